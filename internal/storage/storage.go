package storage

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

var ErrStorageFailed = errors.New("storage failed")
var ErrInvalidLocation = errors.New("storage invalid location")

// Scheme of locators that address objects in a Storage.
const Scheme = "s3"

type Item struct {
	Path string
	URL  string
}

// Storage holds source images and crop results addressed by namespace and key.
type Storage interface {
	Put(ctx context.Context, namespace, key string, source io.Reader) (*Item, error)
	Download(ctx context.Context, dst io.Writer, namespace, key string) error
	Remove(ctx context.Context, namespace, key string) error
}

// ParseLocation splits an s3://namespace/key locator.
func ParseLocation(u *url.URL) (namespace, key string, err error) {
	if u.Scheme != Scheme {
		return "", "", errors.Wrapf(ErrInvalidLocation, "scheme %q is not %q", u.Scheme, Scheme)
	}

	namespace = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if namespace == "" || key == "" {
		return "", "", errors.Wrapf(ErrInvalidLocation, "locator %s needs both namespace and key", u.String())
	}

	return namespace, key, nil
}

func Location(namespace, key string) string {
	return Scheme + "://" + namespace + "/" + key
}
