package loader

import (
	"context"
	"image"
	"net/http"
	"os"
	"time"

	"github.com/denismitr/cropper/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxBitmapBytes = 100 * 1024 * 1024
	DefaultMaxDecodeBytes = 512 * 1024 * 1024
	DefaultMaxRetries     = 4
	DefaultHTTPTimeout    = 30 * time.Second
)

type Config struct {
	// CacheDir receives downloaded and copied sources.
	CacheDir string
	// MaxBitmapBytes is the ceiling of a decoded bitmap.
	MaxBitmapBytes int64
	// MaxDecodeBytes caps what one decode may allocate on the way to that
	// bitmap, judged from the stored bounds before decoding.
	MaxDecodeBytes int64
	// MaxRetries bounds how many times the sample size is doubled.
	MaxRetries  int
	HTTPTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		CacheDir:       os.TempDir(),
		MaxBitmapBytes: DefaultMaxBitmapBytes,
		MaxDecodeBytes: DefaultMaxDecodeBytes,
		MaxRetries:     DefaultMaxRetries,
		HTTPTimeout:    DefaultHTTPTimeout,
	}
}

// Bitmap is a decoded, orientation corrected source image.
type Bitmap struct {
	Image image.Image
	// Path is the local file holding the source bytes.
	Path    string
	Locator string
	Kind    Kind
	Format  string
	// NativeWidth and NativeHeight are the stored dimensions before sampling
	// and orientation correction.
	NativeWidth  int
	NativeHeight int
	SampleSize   int
	Exif         ExifInfo
}

func (b *Bitmap) Width() int {
	return b.Image.Bounds().Dx()
}

func (b *Bitmap) Height() int {
	return b.Image.Bounds().Dy()
}

// Release drops the pixels; geometry stays readable.
func (b *Bitmap) Release() {
	b.Image = nil
}

type Loader struct {
	cfg     Config
	storage storage.Storage
	decoder Decoder
	client  *http.Client
	logger  logrus.FieldLogger
}

// New creates a loader. s may be nil when no content locators are used.
func New(cfg Config, s storage.Storage, logger logrus.FieldLogger) *Loader {
	if cfg.MaxBitmapBytes <= 0 {
		cfg.MaxBitmapBytes = DefaultMaxBitmapBytes
	}
	if cfg.MaxDecodeBytes <= 0 {
		cfg.MaxDecodeBytes = DefaultMaxDecodeBytes
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.TempDir()
	}

	return &Loader{
		cfg:     cfg,
		storage: s,
		decoder: ImageDecoder{Budget: cfg.MaxDecodeBytes},
		client:  &http.Client{Timeout: cfg.HTTPTimeout},
		logger:  logger,
	}
}

// WithDecoder swaps the codec backend.
func (l *Loader) WithDecoder(d Decoder) *Loader {
	l.decoder = d
	return l
}

// Load fetches the locator, decodes it at the largest sample size that keeps
// the required size and applies the EXIF orientation to the pixels.
func (l *Loader) Load(ctx context.Context, locator string, requiredWidth, requiredHeight int) (*Bitmap, error) {
	localPath, kind, err := l.fetch(ctx, locator)
	if err != nil {
		return nil, err
	}

	lg := l.logger.WithFields(logrus.Fields{"locator": locator, "kind": kind.String()})

	cfg, format, err := l.decodeBounds(localPath)
	if err != nil {
		return nil, newError(ErrBoundsUnreadable, locator, err)
	}

	sample := SampleSize(cfg.Width, cfg.Height, requiredWidth, requiredHeight)
	img, sample, err := l.decodeSampled(ctx, localPath, cfg, sample, lg)
	if err != nil {
		return nil, newError(errorKind(err), locator, err)
	}

	info := NewExifInfo(l.readOrientation(localPath))
	if !info.Identity() {
		img = ApplyExif(img, info)
		info.Applied = true
	}

	bm := &Bitmap{
		Image:        img,
		Path:         localPath,
		Locator:      locator,
		Kind:         kind,
		Format:       format,
		NativeWidth:  cfg.Width,
		NativeHeight: cfg.Height,
		SampleSize:   sample,
		Exif:         info,
	}

	lg.WithFields(logrus.Fields{
		"native":      [2]int{cfg.Width, cfg.Height},
		"sample":      sample,
		"orientation": info.Orientation,
		"size":        humanize.IBytes(uint64(BitmapBytes(bm.Width(), bm.Height()))),
	}).Debug("bitmap loaded")

	return bm, nil
}

// DecodeFull decodes the source at the largest resolution under the
// bitmap ceiling, orientation corrected like Load.
func (l *Loader) DecodeFull(ctx context.Context, bm *Bitmap) (image.Image, error) {
	sample := 1
	for BitmapBytes(bm.NativeWidth/sample, bm.NativeHeight/sample) > l.cfg.MaxBitmapBytes {
		sample *= 2
	}

	native := image.Config{Width: bm.NativeWidth, Height: bm.NativeHeight}
	img, _, err := l.decodeSampled(ctx, bm.Path, native, sample, l.logger.WithField("locator", bm.Locator))
	if err != nil {
		return nil, newError(errorKind(err), bm.Locator, err)
	}

	return ApplyExif(img, bm.Exif), nil
}

func (l *Loader) decodeBounds(p string) (image.Config, string, error) {
	f, err := os.Open(p)
	if err != nil {
		return image.Config{}, "", err
	}
	defer f.Close()

	cfg, format, err := l.decoder.DecodeConfig(f)
	if err != nil {
		return image.Config{}, "", err
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, "", errors.Errorf("bounds %dx%d", cfg.Width, cfg.Height)
	}

	return cfg, format, nil
}

// decodeSampled doubles the sample size on out of memory and on bitmaps
// over the ceiling, up to MaxRetries times. A decode whose cost exceeds
// MaxDecodeBytes is never started; when no reachable sample size brings the
// cost under the ceiling it fails right away.
func (l *Loader) decodeSampled(ctx context.Context, p string, cfg image.Config, sample int, lg logrus.FieldLogger) (image.Image, int, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, sample, err
		}

		img, err := l.decodeWithin(p, cfg, sample)
		if err == nil {
			size := BitmapBytes(img.Bounds().Dx(), img.Bounds().Dy())
			if size <= l.cfg.MaxBitmapBytes {
				return img, sample, nil
			}

			err = errors.Wrapf(ErrOutOfMemory, "decoded bitmap is %s", humanize.IBytes(uint64(size)))
		}

		if !errors.Is(err, ErrOutOfMemory) {
			return nil, sample, err
		}

		if attempt >= l.cfg.MaxRetries {
			return nil, sample, err
		}

		reachable := sample << uint(l.cfg.MaxRetries-attempt)
		if l.decoder.DecodeCost(cfg, reachable) > l.cfg.MaxDecodeBytes {
			return nil, sample, err
		}

		lg.WithFields(logrus.Fields{"sample": sample, "attempt": attempt + 1}).Warn("bitmap does not fit, doubling sample size")
		sample *= 2
	}
}

func (l *Loader) decodeWithin(p string, cfg image.Config, sample int) (image.Image, error) {
	if cost := l.decoder.DecodeCost(cfg, sample); cost > l.cfg.MaxDecodeBytes {
		return nil, errors.Wrapf(
			ErrOutOfMemory,
			"decoding %dx%d at sample %d needs %s",
			cfg.Width, cfg.Height, sample, humanize.IBytes(uint64(cost)),
		)
	}

	return l.decodeOnce(p, sample)
}

func (l *Loader) decodeOnce(p string, sample int) (image.Image, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return l.decoder.Decode(f, sample)
}

func (l *Loader) readOrientation(p string) int {
	f, err := os.Open(p)
	if err != nil {
		return OrientationUndefined
	}
	defer f.Close()

	return ReadOrientation(f)
}

func errorKind(err error) error {
	switch {
	case errors.Is(err, ErrOutOfMemory):
		return ErrOutOfMemory
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrStreamUnavailable
	default:
		return ErrDecodeFailed
	}
}
