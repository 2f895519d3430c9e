package media

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidFormat = errors.New("invalid output format")

type ID string

func (id ID) String() string {
	return string(id)
}

func (id ID) None() bool {
	return id == ""
}

// Format is the encoding of a crop result.
type Format string

const (
	JPEG         Format = "jpeg"
	PNG          Format = "png"
	WEBP         Format = "webp"
	WEBPLossless Format = "webp-lossless"
)

const (
	DefaultFormat  = JPEG
	DefaultQuality = 90
)

var formats = map[string]Format{
	"jpg":           JPEG,
	"jpeg":          JPEG,
	"png":           PNG,
	"webp":          WEBP,
	"webp-lossless": WEBPLossless,
}

var extensions = map[Format]string{
	JPEG:         "jpg",
	PNG:          "png",
	WEBP:         "webp",
	WEBPLossless: "webp",
}

var mimes = map[Format]string{
	JPEG:         "image/jpeg",
	PNG:          "image/png",
	WEBP:         "image/webp",
	WEBPLossless: "image/webp",
}

// ParseFormat accepts a format name or a file extension, with or without the dot.
func ParseFormat(s string) (Format, error) {
	if f, ok := formats[strings.ToLower(strings.TrimPrefix(s, "."))]; ok {
		return f, nil
	}

	return "", errors.Wrapf(ErrInvalidFormat, "format unsupported: %s", s)
}

// FormatFromFilename guesses the output format from the destination name and
// falls back to def when the extension says nothing.
func FormatFromFilename(name string, def Format) Format {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return def
	}

	if f, err := ParseFormat(name[i+1:]); err == nil {
		return f
	}

	return def
}

func (f Format) Lossless() bool {
	return f == PNG || f == WEBPLossless
}

func (f Format) Extension() string {
	return extensions[f]
}

func (f Format) Mime() string {
	if m, ok := mimes[f]; ok {
		return m
	}

	return "application/octet-stream"
}
