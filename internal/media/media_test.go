package media

import (
	"fmt"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPagination(t *testing.T) {
	tt := []struct {
		p      Pagination
		offset uint
		limit  uint
	}{
		{Pagination{1, 10}, 0, 10},
		{Pagination{0, 10}, 0, 10},
		{Pagination{2, 5}, 5, 5},
		{Pagination{10, 26}, 234, 26},
		{Pagination{10, 0}, 225, 25},
	}

	for _, tc := range tt {
		t.Run(fmt.Sprintf("%d:%d", tc.p.Page, tc.p.PerPage), func(t *testing.T) {
			assert.Equal(t, int(tc.offset), int(tc.p.Offset()))
			assert.Equal(t, int(tc.limit), int(tc.p.Limit()))
		})
	}
}

func TestParseFormat(t *testing.T) {
	tt := []struct {
		in       string
		expected Format
	}{
		{"jpg", JPEG},
		{".JPEG", JPEG},
		{"png", PNG},
		{"webp", WEBP},
		{"webp-lossless", WEBPLossless},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			f, err := ParseFormat(tc.in)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, f)
		})
	}

	_, err := ParseFormat("gif")
	assert.True(t, errors.Is(err, ErrInvalidFormat))
}

func TestFormatFromFilename(t *testing.T) {
	assert.Equal(t, PNG, FormatFromFilename("/tmp/out.png", JPEG))
	assert.Equal(t, JPEG, FormatFromFilename("/tmp/out", JPEG))
	assert.Equal(t, WEBP, FormatFromFilename("/tmp/out.bin", WEBP))
	assert.Equal(t, "image/webp", WEBPLossless.Mime())
	assert.True(t, WEBPLossless.Lossless())
	assert.False(t, JPEG.Lossless())
}

func TestAdjustments_Clamp(t *testing.T) {
	a := Adjustments{Brightness: 150, Contrast: -70, Saturation: 20, Sharpness: math.NaN()}.Clamp()

	assert.Equal(t, Adjustments{Brightness: 100, Contrast: -50, Saturation: 20, Sharpness: 0}, a)
	assert.False(t, a.None())
}
