package main

import (
	"testing"

	"github.com/denismitr/cropper/internal/aspect"
	"github.com/denismitr/cropper/internal/geometry"
	"github.com/denismitr/cropper/internal/imagetest"
	"github.com/denismitr/cropper/internal/media"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseAspect(t *testing.T) {
	tt := []struct {
		in    string
		want  aspect.Option
		valid bool
	}{
		{in: "16:9", want: aspect.Ratio(16, 9), valid: true},
		{in: "1.5:1", want: aspect.Ratio(1.5, 1), valid: true},
		{in: "0:0", want: aspect.Original(), valid: true},
		{in: "0:3", valid: false},
		{in: "-1:3", valid: false},
		{in: "16x9", valid: false},
		{in: "a:b", valid: false},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			opt, err := parseAspect(tc.in)
			if !tc.valid {
				assert.True(t, errors.Is(err, ErrBadAspect))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want.X, opt.X)
			assert.Equal(t, tc.want.Y, opt.Y)
		})
	}
}

func Test_parseArea(t *testing.T) {
	r, err := parseArea("800x600")
	require.NoError(t, err)
	assert.Equal(t, geometry.NewRect(0, 0, 800, 600), r)

	for _, in := range []string{"800", "0x600", "axb", "800x600x2"} {
		_, err := parseArea(in)
		assert.Error(t, err, in)
	}
}

func TestCropCmd_config(t *testing.T) {
	c := cropCmd{
		Source:      "/tmp/a.jpg",
		Destination: "/tmp/b.png",
		Script:      "rotate:90",
		Aspect:      "4:3",
		Area:        "400x300",
		Quality:     80,
		Brightness:  10,
		Sharpness:   0.5,
	}

	cfg, err := c.config()
	require.NoError(t, err)
	assert.Equal(t, media.PNG, cfg.Params.Format)
	assert.Equal(t, 80, cfg.Params.Quality)
	assert.Equal(t, geometry.NewRect(0, 0, 400, 300), cfg.Area)
	require.NotNil(t, cfg.Options)
	assert.Equal(t, 4.0, cfg.Options.Selected().X)

	ops, err := c.ops()
	require.NoError(t, err)
	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, op.String())
	}
	assert.Equal(t, []string{"rotate:90", "brightness:10", "sharpness:0.5"}, names)

	c.Quality = 101
	_, err = c.config()
	assert.Error(t, err)
}

func Test_inspect(t *testing.T) {
	dir := t.TempDir()
	p := imagetest.WriteFile(t, dir, "o.jpg", imagetest.JPEG(t, imagetest.Gradient(40, 20), 6))

	info, err := inspect(p)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", info.Format)
	assert.Equal(t, 40, info.Width)
	assert.Equal(t, 20, info.Height)
	assert.Equal(t, 6, info.Orientation)
	assert.Equal(t, 90, info.Degrees)
	assert.Greater(t, info.ExifBytes, 0)
}
