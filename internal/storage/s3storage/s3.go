package s3storage

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/denismitr/cropper/internal/storage"
	"github.com/pkg/errors"
)

type Config struct {
	AccessKey        string
	AccessSecret     string
	AccessToken      string
	Region           string
	Endpoint         string
	S3ForcePathStyle bool
	EnableSSL        bool
}

type RemoteStorage struct {
	cfg      Config
	s3Config *aws.Config
}

var rxKey = regexp.MustCompile(`^[\w\-. ]+(/[\w\-. ]+)*\.(jpe?g|png|webp|tiff?|bmp)$`)

func New(cfg Config) *RemoteStorage {
	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.AccessSecret, cfg.AccessToken),
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		DisableSSL:       aws.Bool(!cfg.EnableSSL),
		S3ForcePathStyle: aws.Bool(cfg.S3ForcePathStyle),
	}

	return &RemoteStorage{
		cfg:      cfg,
		s3Config: s3Config,
	}
}

func (rs *RemoteStorage) Put(ctx context.Context, namespace, key string, source io.Reader) (*storage.Item, error) {
	if !isValidKey(key) {
		return nil, errors.Wrapf(storage.ErrInvalidLocation, "key %s is not an image key", key)
	}

	sess, err := rs.getSession()
	if err != nil {
		return nil, err
	}

	s3Client := s3.New(sess)

	b := &s3.CreateBucketInput{Bucket: aws.String(namespace)}
	if _, err := s3Client.CreateBucketWithContext(ctx, b); err != nil {
		if !strings.Contains(err.Error(), s3.ErrCodeBucketAlreadyExists) && !strings.Contains(err.Error(), s3.ErrCodeBucketAlreadyOwnedByYou) {
			return nil, errors.Wrapf(
				storage.ErrStorageFailed,
				"could not create namespace %s: %v",
				namespace, err,
			)
		}
	}

	uploader := s3manager.NewUploader(sess)
	uploader.Concurrency = 1

	result, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Body:   source,
		Bucket: aws.String(namespace),
		Key:    aws.String(key),
	})

	if err != nil {
		return nil, errors.Wrapf(
			storage.ErrStorageFailed,
			"could not upload file %s to namespace %s: %v",
			key, namespace, err,
		)
	}

	return &storage.Item{
		Path: namespace + "/" + key,
		URL:  result.Location,
	}, nil
}

func (rs *RemoteStorage) Download(ctx context.Context, dst io.Writer, namespace, key string) error {
	sess, err := rs.getSession()
	if err != nil {
		return err
	}

	downloader := s3manager.NewDownloader(sess)
	// sequential parts let FakeWriterAt ignore offsets
	downloader.Concurrency = 1

	_, err = downloader.DownloadWithContext(ctx, FakeWriterAt{w: dst},
		&s3.GetObjectInput{
			Bucket: aws.String(namespace),
			Key:    aws.String(key),
		})

	if err != nil {
		return errors.Wrapf(
			storage.ErrStorageFailed,
			"could not download file %s from namespace %s: %v",
			key, namespace, err,
		)
	}

	return nil
}

func (rs *RemoteStorage) Remove(ctx context.Context, namespace, key string) error {
	sess, err := rs.getSession()
	if err != nil {
		return err
	}

	s3Client := s3.New(sess)
	_, err = s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(namespace),
		Key:    aws.String(key),
	})

	if err != nil {
		return errors.Wrapf(storage.ErrStorageFailed, "could not remove file %s from namespace %s: %v", key, namespace, err)
	}

	err = s3Client.WaitUntilObjectNotExistsWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(namespace),
		Key:    aws.String(key),
	})

	if err != nil {
		return errors.Wrapf(storage.ErrStorageFailed, "could not confirm removal of file %s from namespace %s", key, namespace)
	}

	return nil
}

func (rs *RemoteStorage) getSession() (*session.Session, error) {
	newSession, err := session.NewSession(rs.s3Config)
	if err != nil {
		return nil, errors.Wrapf(storage.ErrStorageFailed, "s3 session could not be created: %v", err)
	}

	return newSession, nil
}

func isValidKey(key string) bool {
	return rxKey.MatchString(key) && !strings.Contains(key, "..")
}
