package pipeline

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/denismitr/cropper/internal/media"
	"github.com/pkg/errors"
)

var (
	ErrNoContainer = errors.New("pipeline metadata container not supported")
	ErrBadTIFF     = errors.New("pipeline malformed exif block")
)

var (
	jpegSOI    = []byte{0xFF, 0xD8}
	exifHeader = []byte("Exif\x00\x00")
	pngMagic   = []byte("\x89PNG\r\n\x1a\n")
)

// maxApp1Payload is what fits in a single JPEG segment after the header.
const maxApp1Payload = 0xFFFF - 2 - 6

const (
	tagImageWidth  = 0x0100
	tagImageHeight = 0x0101
	tagOrientation = 0x0112
	tagExifIFD     = 0x8769
	tagPixelX      = 0xA002
	tagPixelY      = 0xA003

	typeShort = 3
	typeLong  = 4
)

// MetadataSource yields the raw TIFF structured EXIF block of an image, or
// nil when it carries none.
type MetadataSource interface {
	ReadExif() ([]byte, error)
}

// MetadataSink stores a TIFF structured EXIF block into an encoded image.
type MetadataSink interface {
	WriteExif(tiff []byte) error
}

// FileMetadata reads and rewrites the EXIF block of an image file.
type FileMetadata struct {
	Path string
}

func (f FileMetadata) ReadExif() ([]byte, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", f.Path)
	}
	defer file.Close()

	return ExtractExif(file)
}

func (f FileMetadata) WriteExif(tiff []byte) error {
	encoded, err := os.ReadFile(f.Path)
	if err != nil {
		return errors.Wrapf(err, "could not read %s", f.Path)
	}

	out, err := InjectExif(encoded, tiff)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".exif-*")
	if err != nil {
		return errors.Wrap(err, "could not create exif staging file")
	}

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "could not write exif staging file")
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), f.Path)
}

// StreamMetadata reads EXIF from Source and writes Encoded, with the EXIF
// block spliced in, to Dest.
type StreamMetadata struct {
	Source  io.Reader
	Encoded []byte
	Dest    io.Writer
}

func (s StreamMetadata) ReadExif() ([]byte, error) {
	if s.Source == nil {
		return nil, nil
	}

	return ExtractExif(s.Source)
}

func (s StreamMetadata) WriteExif(tiff []byte) error {
	out := s.Encoded
	if len(tiff) > 0 {
		var err error
		if out, err = InjectExif(s.Encoded, tiff); err != nil {
			return err
		}
	}

	_, err := s.Dest.Write(out)
	return err
}

// ExtractExif finds the EXIF block in a JPEG or PNG stream.
func ExtractExif(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not read image")
	}

	switch {
	case bytes.HasPrefix(data, jpegSOI):
		return jpegExif(data)
	case bytes.HasPrefix(data, pngMagic):
		return pngExif(data)
	}

	return nil, nil
}

// InjectExif replaces any EXIF block of the encoded image with tiff.
func InjectExif(encoded, tiff []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(encoded, jpegSOI):
		return jpegInject(encoded, tiff)
	case bytes.HasPrefix(encoded, pngMagic):
		return pngInject(encoded, tiff)
	}

	return nil, ErrNoContainer
}

// CarriesExif reports whether the format has a place for EXIF.
func CarriesExif(f media.Format) bool {
	return f == media.JPEG || f == media.PNG
}

type segment struct {
	marker byte
	start  int
	end    int
}

// jpegSegments lists the marker segments before the scan data.
func jpegSegments(data []byte) ([]segment, int, error) {
	var segs []segment
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil, 0, errors.Wrapf(ErrBadTIFF, "jpeg marker expected at %d", i)
		}

		marker := data[i+1]
		if marker == 0xD9 || marker == 0xDA {
			return segs, i, nil
		}

		length := int(binary.BigEndian.Uint16(data[i+2:]))
		end := i + 2 + length
		if length < 2 || end > len(data) {
			return nil, 0, errors.Wrapf(ErrBadTIFF, "jpeg segment at %d overruns", i)
		}

		segs = append(segs, segment{marker: marker, start: i, end: end})
		i = end
	}

	return segs, len(data), nil
}

func isExifSegment(data []byte, s segment) bool {
	return s.marker == 0xE1 && bytes.HasPrefix(data[s.start+4:s.end], exifHeader)
}

func jpegExif(data []byte) ([]byte, error) {
	segs, _, err := jpegSegments(data)
	if err != nil {
		return nil, err
	}

	for _, s := range segs {
		if isExifSegment(data, s) {
			return append([]byte(nil), data[s.start+4+len(exifHeader):s.end]...), nil
		}
	}

	return nil, nil
}

func jpegInject(encoded, tiff []byte) ([]byte, error) {
	if len(tiff) > maxApp1Payload {
		return nil, errors.Errorf("exif block of %d bytes does not fit a jpeg segment", len(tiff))
	}

	segs, _, err := jpegSegments(encoded)
	if err != nil {
		return nil, err
	}

	// after SOI and a leading JFIF APP0, if any
	insertAt := 2
	if len(segs) > 0 && segs[0].marker == 0xE0 {
		insertAt = segs[0].end
	}

	out := make([]byte, 0, len(encoded)+len(tiff)+10)
	out = append(out, encoded[:insertAt]...)
	out = append(out, 0xFF, 0xE1)
	out = binary.BigEndian.AppendUint16(out, uint16(2+len(exifHeader)+len(tiff)))
	out = append(out, exifHeader...)
	out = append(out, tiff...)

	pos := insertAt
	for _, s := range segs {
		if s.start < insertAt {
			continue
		}
		if isExifSegment(encoded, s) {
			out = append(out, encoded[pos:s.start]...)
			pos = s.end
		}
	}

	return append(out, encoded[pos:]...), nil
}

type chunk struct {
	kind  string
	start int
	end   int
}

func pngChunks(data []byte) ([]chunk, error) {
	var chunks []chunk
	i := len(pngMagic)
	for i+12 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[i:]))
		end := i + 12 + length
		if end > len(data) {
			return nil, errors.Wrapf(ErrBadTIFF, "png chunk at %d overruns", i)
		}

		chunks = append(chunks, chunk{kind: string(data[i+4 : i+8]), start: i, end: end})
		i = end
	}

	return chunks, nil
}

func pngExif(data []byte) ([]byte, error) {
	chunks, err := pngChunks(data)
	if err != nil {
		return nil, err
	}

	for _, c := range chunks {
		if c.kind == "eXIf" {
			return append([]byte(nil), data[c.start+8:c.end-4]...), nil
		}
	}

	return nil, nil
}

func pngInject(encoded, tiff []byte) ([]byte, error) {
	chunks, err := pngChunks(encoded)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(encoded)+len(tiff)+12)
	out = append(out, encoded[:len(pngMagic)]...)
	inserted := false
	for _, c := range chunks {
		if c.kind == "eXIf" {
			continue
		}
		if c.kind == "IDAT" && !inserted {
			out = appendPNGChunk(out, "eXIf", tiff)
			inserted = true
		}
		out = append(out, encoded[c.start:c.end]...)
	}

	if !inserted {
		return nil, errors.Wrap(ErrBadTIFF, "png has no image data")
	}

	return out, nil
}

func appendPNGChunk(out []byte, kind string, data []byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, kind...)
	out = append(out, data...)

	crc := crc32.NewIEEE()
	crc.Write([]byte(kind))
	crc.Write(data)
	return binary.BigEndian.AppendUint32(out, crc.Sum32())
}

// PatchExif returns a copy of tiff with orientation reset to normal and
// the recorded pixel dimensions replaced by width and height.
func PatchExif(tiff []byte, width, height int) ([]byte, error) {
	if len(tiff) < 8 {
		return nil, errors.Wrap(ErrBadTIFF, "header too short")
	}

	out := append([]byte(nil), tiff...)

	var order binary.ByteOrder
	switch string(out[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, errors.Wrapf(ErrBadTIFF, "unknown byte order %q", out[:2])
	}

	ifd0 := int(order.Uint32(out[4:]))
	values := map[uint16]uint32{
		tagImageWidth:  uint32(width),
		tagImageHeight: uint32(height),
		tagOrientation: 1,
	}

	exifIFD, err := patchIFD(out, order, ifd0, values)
	if err != nil {
		return nil, err
	}

	if exifIFD > 0 {
		sub := map[uint16]uint32{tagPixelX: uint32(width), tagPixelY: uint32(height)}
		if _, err := patchIFD(out, order, exifIFD, sub); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// patchIFD rewrites single valued SHORT and LONG entries in place and
// returns the offset of the Exif sub-IFD when present.
func patchIFD(data []byte, order binary.ByteOrder, offset int, values map[uint16]uint32) (int, error) {
	if offset < 8 || offset+2 > len(data) {
		return 0, errors.Wrapf(ErrBadTIFF, "ifd offset %d out of range", offset)
	}

	count := int(order.Uint16(data[offset:]))
	if offset+2+count*12 > len(data) {
		return 0, errors.Wrapf(ErrBadTIFF, "ifd at %d overruns", offset)
	}

	sub := 0
	for i := 0; i < count; i++ {
		e := offset + 2 + i*12
		tag := order.Uint16(data[e:])
		typ := order.Uint16(data[e+2:])
		n := order.Uint32(data[e+4:])

		if tag == tagExifIFD {
			sub = int(order.Uint32(data[e+8:]))
			continue
		}

		v, ok := values[tag]
		if !ok || n != 1 {
			continue
		}

		switch typ {
		case typeShort:
			order.PutUint16(data[e+8:], uint16(v))
		case typeLong:
			order.PutUint32(data[e+8:], v)
		}
	}

	return sub, nil
}
