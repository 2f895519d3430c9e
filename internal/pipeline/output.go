package pipeline

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/denismitr/cropper/internal/storage"
	"github.com/pkg/errors"
)

// output stages the result next to its destination and only moves it into
// place on commit.
type output struct {
	file      *os.File
	path      string
	target    string
	namespace string
	key       string
	done      bool
}

func newOutput(destination, tempDir string) (*output, error) {
	o := &output{}
	dir := tempDir

	if u, err := url.Parse(destination); err == nil && u.Scheme == storage.Scheme {
		if o.namespace, o.key, err = storage.ParseLocation(u); err != nil {
			return nil, err
		}
	} else {
		o.target = strings.TrimPrefix(destination, "file://")
		dir = filepath.Dir(o.target)
	}

	f, err := os.CreateTemp(dir, ".crop-*"+filepath.Ext(destination))
	if err != nil {
		return nil, errors.Wrapf(err, "could not stage output in %s", dir)
	}

	o.file = f
	o.path = f.Name()
	return o, nil
}

func (o *output) remote() bool {
	return o.key != ""
}

// commit finalizes the staged file and returns its size.
func (o *output) commit(ctx context.Context, s storage.Storage) (int64, error) {
	info, err := o.file.Stat()
	if err != nil {
		return 0, err
	}

	if o.remote() {
		if s == nil {
			return 0, errors.Wrapf(storage.ErrStorageFailed, "no storage for %s", storage.Location(o.namespace, o.key))
		}

		if _, err := o.file.Seek(0, 0); err != nil {
			return 0, err
		}

		if _, err := s.Put(ctx, o.namespace, o.key, o.file); err != nil {
			return 0, err
		}

		o.done = true
		return info.Size(), nil
	}

	if err := o.file.Close(); err != nil {
		return 0, err
	}

	if err := os.Rename(o.path, o.target); err != nil {
		return 0, errors.Wrapf(err, "could not move result to %s", o.target)
	}

	o.done = true
	return info.Size(), nil
}

// cleanup removes the staged file unless it was renamed into place.
func (o *output) cleanup() {
	o.file.Close()
	if o.remote() || !o.done {
		os.Remove(o.path)
	}
}
