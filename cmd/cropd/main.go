package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/denismitr/cropper/cmd/initialize"
	"github.com/denismitr/cropper/internal/pipeline"
	"github.com/denismitr/cropper/internal/server"
	"github.com/denismitr/goenv"
	"github.com/labstack/echo/v4"
)

var (
	migrate = flag.Bool("migrate", false, "Run the migrations?")
	debug   = flag.Bool("debug", false, "Log at debug level")
	timeout = flag.Duration("crop-timeout", time.Minute, "Upper bound of a single crop")
)

func main() {
	flag.Parse()

	initialize.DotEnv()
	log := initialize.Logger(*debug)

	registry, closeRegistry := initialize.Registry(10*time.Second, *migrate, log)
	defer closeRegistry()

	storage := initialize.Storage()
	l := initialize.Loader(storage, log)
	p := pipeline.New(l, storage, log)

	crops := server.NewCrops(registry, storage, l, p, *timeout, log)
	srv := server.NewServer(echo.New(), server.DefaultConfig(goenv.MustString("CROPD_PORT")), crops, log)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGTERM, syscall.SIGINT)

	if err := srv.Run(stopCh, 10*time.Second); err != nil {
		log.WithError(err).Fatal("crop server stopped")
	}
}
