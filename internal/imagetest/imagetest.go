// Package imagetest builds images and EXIF blocks for tests.
package imagetest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// Gradient varies red along x and green along y.
func Gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func Flat(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// Exif returns a big endian TIFF structure carrying the orientation and the
// pixel dimensions in both IFD0 and the Exif sub-IFD.
func Exif(orientation, width, height int) []byte {
	be := binary.BigEndian
	buf := &bytes.Buffer{}
	buf.WriteString("MM")
	binary.Write(buf, be, uint16(42))
	binary.Write(buf, be, uint32(8))

	entry := func(tag, typ uint16, value uint32) {
		binary.Write(buf, be, tag)
		binary.Write(buf, be, typ)
		binary.Write(buf, be, uint32(1))
		if typ == 3 {
			binary.Write(buf, be, uint16(value))
			binary.Write(buf, be, uint16(0))
			return
		}
		binary.Write(buf, be, value)
	}

	const ifd0Entries = 4
	exifOffset := uint32(8 + 2 + ifd0Entries*12 + 4)

	binary.Write(buf, be, uint16(ifd0Entries))
	entry(0x0100, 4, uint32(width))
	entry(0x0101, 4, uint32(height))
	entry(0x0112, 3, uint32(orientation))
	entry(0x8769, 4, exifOffset)
	binary.Write(buf, be, uint32(0))

	binary.Write(buf, be, uint16(2))
	entry(0xA002, 4, uint32(width))
	entry(0xA003, 4, uint32(height))
	binary.Write(buf, be, uint32(0))

	return buf.Bytes()
}

// JPEG encodes img and, for a non-zero orientation, inserts an APP1 EXIF
// segment right after the start of image marker.
func JPEG(t testing.TB, img image.Image, orientation int) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}

	if orientation == 0 {
		return buf.Bytes()
	}

	b := img.Bounds()
	payload := append([]byte("Exif\x00\x00"), Exif(orientation, b.Dx(), b.Dy())...)

	out := &bytes.Buffer{}
	out.Write(buf.Bytes()[:2])
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(buf.Bytes()[2:])

	return out.Bytes()
}

func PNG(t testing.TB, img image.Image) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

// WriteFile stores data under dir and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}

	return p
}
