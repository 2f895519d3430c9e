package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/denismitr/cropper/cmd/initialize"
	"github.com/denismitr/cropper/internal/aspect"
	"github.com/denismitr/cropper/internal/geometry"
	"github.com/denismitr/cropper/internal/loader"
	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/pipeline"
	"github.com/denismitr/cropper/internal/session"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrBadAspect = errors.New("bad aspect ratio")

type globals struct {
	Debug   bool     `help:"Log at debug level"`
	EnvFile []string `name:"env-file" help:"Env files to load" default:".env"`
}

type cropCmd struct {
	Source      string        `arg:"" help:"Path, file://, http(s):// or s3:// locator of the source image"`
	Destination string        `arg:"" help:"Output path or s3:// location"`
	Script      string        `short:"s" help:"Comma separated ops, e.g. aspect:0,rotate:90,zoom:1.5"`
	Aspect      string        `short:"a" help:"Lock the crop to X:Y; 0:0 keeps the ratio of the image"`
	FreeStyle   bool          `help:"Let the crop frame be resized freely"`
	Area        string        `default:"1000x1000" help:"Size of the crop area the session lays out in"`
	MaxWidth    int           `help:"Upper bound of the result width"`
	MaxHeight   int           `help:"Upper bound of the result height"`
	Format      string        `short:"f" help:"jpeg, png, webp or webp-lossless; guessed from the destination by default"`
	Quality     int           `short:"q" default:"90" help:"Compression quality 0..100"`
	Brightness  float64       `help:"Brightness -100..100"`
	Contrast    float64       `help:"Contrast -50..50"`
	Saturation  float64       `help:"Saturation -100..100"`
	Sharpness   float64       `help:"Sharpness -1..1"`
	SkipExif    bool          `name:"skip-exif" help:"Do not carry EXIF over to the result"`
	Timeout     time.Duration `default:"1m" help:"Upper bound of the whole crop"`
}

func (c *cropCmd) config() (session.Config, error) {
	cfg := session.DefaultConfig(c.Source, c.Destination)
	cfg.FreeStyle = c.FreeStyle
	cfg.Params.MaxWidth = c.MaxWidth
	cfg.Params.MaxHeight = c.MaxHeight
	cfg.Params.Quality = c.Quality
	cfg.Params.SkipExif = c.SkipExif

	if c.Format != "" {
		f, err := media.ParseFormat(c.Format)
		if err != nil {
			return cfg, err
		}
		cfg.Params.Format = f
	}

	if c.Aspect != "" {
		opt, err := parseAspect(c.Aspect)
		if err != nil {
			return cfg, err
		}

		opts, err := aspect.NewOptions(0, opt)
		if err != nil {
			return cfg, err
		}
		cfg.Options = opts
	}

	area, err := parseArea(c.Area)
	if err != nil {
		return cfg, err
	}
	cfg.Area = area

	return cfg, cfg.Validate()
}

// ops are the script followed by the tonal flags, so the flags win.
func (c *cropCmd) ops() ([]session.Op, error) {
	ops, err := session.ParseScript(c.Script)
	if err != nil {
		return nil, err
	}

	tonal := []struct {
		name  string
		value float64
	}{
		{"brightness", c.Brightness},
		{"contrast", c.Contrast},
		{"saturation", c.Saturation},
		{"sharpness", c.Sharpness},
	}

	for _, t := range tonal {
		if t.value != 0 {
			ops = append(ops, session.Op{Name: t.name, Args: []float64{t.value}})
		}
	}

	return ops, nil
}

func (c *cropCmd) Run(g *globals) error {
	initialize.DotEnv(g.EnvFile...)
	log := initialize.Logger(g.Debug)

	cfg, err := c.config()
	if err != nil {
		return err
	}

	ops, err := c.ops()
	if err != nil {
		return err
	}

	storage := initialize.Storage()
	l := initialize.Loader(storage, log)
	p := pipeline.New(l, storage, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, c.Timeout)
	defer cancelTimeout()

	res, err := session.Run(ctx, cfg, ops, l, p, log)
	if err != nil {
		return err
	}

	return printJSON(res)
}

type inspectCmd struct {
	Path string `arg:"" type:"existingfile" help:"Local image file"`
}

type inspection struct {
	Format      string `json:"format"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Orientation int    `json:"orientation"`
	Degrees     int    `json:"degrees"`
	ExifBytes   int    `json:"exifBytes"`
	Size        string `json:"size"`
}

func (c *inspectCmd) Run() error {
	info, err := inspect(c.Path)
	if err != nil {
		return err
	}

	return printJSON(info)
}

func inspect(path string) (*inspection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	cfg, format, err := loader.ImageDecoder{}.DecodeConfig(f)
	if err != nil {
		return nil, errors.Wrapf(loader.ErrDecodeFailed, "%s: %v", path, err)
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	orientation := loader.ReadOrientation(f)

	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	tiff, err := pipeline.ExtractExif(f)
	if err != nil {
		return nil, err
	}

	return &inspection{
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Orientation: orientation,
		Degrees:     loader.ExifToDegrees(orientation),
		ExifBytes:   len(tiff),
		Size:        humanize.Bytes(uint64(stat.Size())),
	}, nil
}

type cli struct {
	globals

	Crop    cropCmd    `cmd:"" help:"Run a headless crop session and write the result"`
	Inspect inspectCmd `cmd:"" help:"Print the geometry and orientation of an image"`
}

func main() {
	var args cli
	ctx := kong.Parse(
		&args,
		kong.Name("cropctl"),
		kong.Description("Crop, rotate, scale and adjust images."),
		kong.UsageOnError(),
	)

	if err := ctx.Run(&args.globals); err != nil {
		logrus.WithError(err).Error("cropctl failed")
		os.Exit(1)
	}
}

func parseAspect(s string) (aspect.Option, error) {
	x, y, err := parsePair(s, ":")
	if err != nil || x < 0 || y < 0 || (x == 0) != (y == 0) {
		return aspect.Option{}, errors.Wrapf(ErrBadAspect, "%q is not X:Y", s)
	}

	return aspect.Ratio(x, y), nil
}

func parseArea(s string) (geometry.Rect, error) {
	w, h, err := parsePair(s, "x")
	if err != nil || w <= 0 || h <= 0 {
		return geometry.Rect{}, errors.Errorf("area %q is not WIDTHxHEIGHT", s)
	}

	return geometry.NewRect(0, 0, w, h), nil
}

func parsePair(s, sep string) (float64, float64, error) {
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("want two values separated by %s", sep)
	}

	a, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}

	b, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}

	return a, b, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
