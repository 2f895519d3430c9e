package pipeline

import (
	"bytes"
	"image/png"
	"os"
	"testing"

	"github.com/denismitr/cropper/internal/imagetest"
	"github.com/denismitr/cropper/internal/media"
	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagInt(t *testing.T, x *exif.Exif, name exif.FieldName) int {
	t.Helper()

	tag, err := x.Get(name)
	require.NoError(t, err)
	v, err := tag.Int(0)
	require.NoError(t, err)
	return v
}

func TestPatchExif(t *testing.T) {
	patched, err := PatchExif(imagetest.Exif(6, 64, 32), 32, 64)
	require.NoError(t, err)

	jpg, err := InjectExif(imagetest.JPEG(t, imagetest.Gradient(4, 4), 0), patched)
	require.NoError(t, err)

	x, err := exif.Decode(bytes.NewReader(jpg))
	require.NoError(t, err)

	assert.Equal(t, 1, tagInt(t, x, exif.Orientation))
	assert.Equal(t, 32, tagInt(t, x, exif.ImageWidth))
	assert.Equal(t, 64, tagInt(t, x, exif.ImageLength))
	assert.Equal(t, 32, tagInt(t, x, exif.PixelXDimension))
	assert.Equal(t, 64, tagInt(t, x, exif.PixelYDimension))
}

func TestPatchExif_Malformed(t *testing.T) {
	tt := []struct {
		name string
		tiff []byte
	}{
		{name: "short", tiff: []byte("MM\x00")},
		{name: "byte order", tiff: []byte("XX\x00\x2a\x00\x00\x00\x08")},
		{name: "ifd offset", tiff: []byte("MM\x00\x2a\x00\x00\xff\xff")},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PatchExif(tc.tiff, 1, 1)
			assert.True(t, errors.Is(err, ErrBadTIFF))
		})
	}
}

func TestExtractExif(t *testing.T) {
	withExif := imagetest.JPEG(t, imagetest.Gradient(8, 8), 3)
	plain := imagetest.JPEG(t, imagetest.Gradient(8, 8), 0)

	tiff, err := ExtractExif(bytes.NewReader(withExif))
	require.NoError(t, err)
	assert.Equal(t, imagetest.Exif(3, 8, 8), tiff)

	tiff, err = ExtractExif(bytes.NewReader(plain))
	require.NoError(t, err)
	assert.Nil(t, tiff)

	tiff, err = ExtractExif(bytes.NewReader([]byte("not an image")))
	require.NoError(t, err)
	assert.Nil(t, tiff)
}

func TestInjectExif_JPEGReplacesExisting(t *testing.T) {
	src := imagetest.JPEG(t, imagetest.Gradient(8, 8), 6)
	replacement := imagetest.Exif(1, 8, 8)

	out, err := InjectExif(src, replacement)
	require.NoError(t, err)

	assert.Equal(t, 1, bytes.Count(out, exifHeader))
	got, err := ExtractExif(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, replacement, got)
}

func TestInjectExif_PNG(t *testing.T) {
	src := imagetest.PNG(t, imagetest.Gradient(8, 8))
	tiff := imagetest.Exif(1, 8, 8)

	out, err := InjectExif(src, tiff)
	require.NoError(t, err)

	again, err := InjectExif(out, tiff)
	require.NoError(t, err)
	assert.Equal(t, out, again, "an existing eXIf chunk is replaced")

	got, err := ExtractExif(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, tiff, got)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err, "chunk checksum must be valid")
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestInjectExif_UnsupportedContainer(t *testing.T) {
	_, err := InjectExif([]byte("RIFF....WEBP"), imagetest.Exif(1, 1, 1))
	assert.True(t, errors.Is(err, ErrNoContainer))

	assert.True(t, CarriesExif(media.JPEG))
	assert.True(t, CarriesExif(media.PNG))
	assert.False(t, CarriesExif(media.WEBP))
}

func TestMetadata_FileAndStream(t *testing.T) {
	dir := t.TempDir()
	tiff := imagetest.Exif(8, 8, 8)
	src := imagetest.WriteFile(t, dir, "src.jpg", imagetest.JPEG(t, imagetest.Gradient(8, 8), 8))
	dst := imagetest.WriteFile(t, dir, "dst.png", imagetest.PNG(t, imagetest.Gradient(8, 8)))

	var source MetadataSource = FileMetadata{Path: src}
	got, err := source.ReadExif()
	require.NoError(t, err)
	assert.Equal(t, tiff, got)

	var sink MetadataSink = FileMetadata{Path: dst}
	require.NoError(t, sink.WriteExif(got))

	written, err := FileMetadata{Path: dst}.ReadExif()
	require.NoError(t, err)
	assert.Equal(t, tiff, written)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no staging files left behind")

	raw, err := os.ReadFile(src)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	stream := StreamMetadata{
		Source:  bytes.NewReader(raw),
		Encoded: imagetest.PNG(t, imagetest.Gradient(8, 8)),
		Dest:    buf,
	}

	got, err = stream.ReadExif()
	require.NoError(t, err)
	require.NoError(t, stream.WriteExif(got))

	fromStream, err := ExtractExif(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, tiff, fromStream)
}

func TestFileMetadata_Missing(t *testing.T) {
	_, err := FileMetadata{Path: "/does/not/exist.jpg"}.ReadExif()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
