package s3storage

import "io"

// FakeWriterAt adapts a stream to io.WriterAt for a single-part downloader.
type FakeWriterAt struct {
	w io.Writer
}

func (fw FakeWriterAt) WriteAt(p []byte, _ int64) (int, error) {
	return fw.w.Write(p)
}
