package initialize

import (
	"context"
	"os"
	"time"

	"github.com/denismitr/cropper/internal/loader"
	"github.com/denismitr/cropper/internal/registry"
	"github.com/denismitr/cropper/internal/registry/memregistry"
	"github.com/denismitr/cropper/internal/registry/mgoregistry"
	"github.com/denismitr/cropper/internal/storage"
	"github.com/denismitr/cropper/internal/storage/s3storage"
	"github.com/denismitr/goenv"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DotEnv loads the given env files, .env by default. A missing file is not
// an error; the environment may already be set.
func DotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		panic("Error loading .env file: " + err.Error())
	}
}

func Logger(debug bool) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	log.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.StampMilli,
		FullTimestamp:   true,
	}

	if debug || goenv.IsTruthy("CROPPER_DEBUG") {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}

func S3StorageFromEnv() *s3storage.RemoteStorage {
	cfg := s3storage.Config{
		AccessKey:        goenv.MustString("S3_ACCESS_KEY_ID"),
		AccessSecret:     goenv.MustString("S3_SECRET_ACCESS_KEY"),
		AccessToken:      "",
		Region:           goenv.MustString("S3_REGION"),
		Endpoint:         goenv.MustString("S3_ENDPOINT"),
		S3ForcePathStyle: goenv.IsTruthy("S3_FORCE_PATH_STYLE"),
		EnableSSL:        goenv.IsTruthy("S3_SSL"),
	}

	return s3storage.New(cfg)
}

// Storage is the S3 storage when S3_ENABLED is set and nil otherwise, in
// which case s3:// locators are rejected.
func Storage() storage.Storage {
	if !goenv.IsTruthy("S3_ENABLED") {
		return nil
	}

	return S3StorageFromEnv()
}

// Loader reads CROPPER_CACHE_DIR when CROPPER_CACHE is set.
func Loader(s storage.Storage, logger logrus.FieldLogger) *loader.Loader {
	cfg := loader.DefaultConfig()
	if goenv.IsTruthy("CROPPER_CACHE") {
		cfg.CacheDir = goenv.MustString("CROPPER_CACHE_DIR")
	}

	return loader.New(cfg, s, logger)
}

func MongoRegistry(connectionTimeout time.Duration, migrate bool) (*mgoregistry.MongoRegistry, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(goenv.MustString("MONGODB_URL")))
	if err != nil {
		panic(err)
	}

	r := mgoregistry.New(client, mgoregistry.DefaultConfig(goenv.MustString("MONGODB_DATABASE")))

	if migrate {
		if err := r.Migrate(ctx); err != nil {
			panic(err)
		}
	}

	return r, func() {
		if err := client.Disconnect(context.Background()); err != nil {
			panic(err)
		}
	}
}

// Registry picks mongo when MONGODB_ENABLED is set and keeps the crop
// history in memory otherwise.
func Registry(connectionTimeout time.Duration, migrate bool, logger logrus.FieldLogger) (registry.Registry, func()) {
	if goenv.IsTruthy("MONGODB_ENABLED") {
		return MongoRegistry(connectionTimeout, migrate)
	}

	logger.Warn("MONGODB_ENABLED is not set, crops are kept in memory")
	return memregistry.New(), func() {}
}
