package loader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/denismitr/cropper/internal/storage"
	"github.com/pkg/errors"
)

// Kind of a source locator decides how its bytes are fetched.
type Kind int

const (
	Unknown Kind = iota
	// Remote locators are downloaded into the cache directory.
	Remote
	// Content locators are opaque storage handles copied into the cache directory.
	Content
	// File locators are opened in place.
	File
)

func (k Kind) String() string {
	switch k {
	case Remote:
		return "remote"
	case Content:
		return "content"
	case File:
		return "file"
	default:
		return "unknown"
	}
}

// ParseLocator classifies a source locator. Bare paths count as files.
func ParseLocator(locator string) (*url.URL, Kind, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return nil, Unknown, newError(ErrInvalidLocatorScheme, locator, err)
	}

	switch u.Scheme {
	case "http", "https":
		return u, Remote, nil
	case storage.Scheme:
		return u, Content, nil
	case "file", "":
		if u.Path == "" {
			return nil, Unknown, newError(ErrInvalidLocatorScheme, locator, errors.New("empty path"))
		}
		return u, File, nil
	default:
		return nil, Unknown, newError(ErrInvalidLocatorScheme, locator, errors.Errorf("scheme %q", u.Scheme))
	}
}

// fetch makes the bytes of the locator available as a local file and
// returns its path.
func (l *Loader) fetch(ctx context.Context, locator string) (string, Kind, error) {
	u, kind, err := ParseLocator(locator)
	if err != nil {
		return "", kind, err
	}

	switch kind {
	case Remote:
		p, err := l.download(ctx, u)
		return p, kind, err
	case Content:
		p, err := l.copyFromStorage(ctx, u)
		return p, kind, err
	default:
		p := u.Path
		if _, err := os.Stat(p); err != nil {
			return "", kind, newError(ErrStreamUnavailable, locator, err)
		}
		return p, kind, nil
	}
}

func (l *Loader) download(ctx context.Context, u *url.URL) (string, error) {
	target := l.cachePath(u)
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", newError(ErrStreamUnavailable, u.String(), err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", newError(ErrStreamUnavailable, u.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", newError(ErrStreamUnavailable, u.String(), errors.Errorf("unexpected status %s", resp.Status))
	}

	if err := l.writeCache(target, func(w io.Writer) error {
		_, err := io.Copy(w, resp.Body)
		return err
	}); err != nil {
		return "", newError(ErrStreamUnavailable, u.String(), err)
	}

	return target, nil
}

func (l *Loader) copyFromStorage(ctx context.Context, u *url.URL) (string, error) {
	if l.storage == nil {
		return "", newError(ErrStreamUnavailable, u.String(), errors.New("no storage configured"))
	}

	namespace, key, err := storage.ParseLocation(u)
	if err != nil {
		return "", newError(ErrInvalidLocatorScheme, u.String(), err)
	}

	target := l.cachePath(u)
	if err := l.writeCache(target, func(w io.Writer) error {
		return l.storage.Download(ctx, w, namespace, key)
	}); err != nil {
		return "", newError(ErrStreamUnavailable, u.String(), err)
	}

	return target, nil
}

// writeCache fills target through a temp file so a failed transfer never
// leaves a truncated cache entry behind.
func (l *Loader) writeCache(target string, fill func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(target), ".fetch-*")
	if err != nil {
		return err
	}

	if err := fill(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}

	return os.Rename(f.Name(), target)
}

func (l *Loader) cachePath(u *url.URL) string {
	sum := sha1.Sum([]byte(u.String()))
	return filepath.Join(l.cfg.CacheDir, hex.EncodeToString(sum[:])+path.Ext(u.Path))
}
