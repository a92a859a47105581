package texstream_test

import (
	"testing"

	"github.com/gogpu/texstream"
	"github.com/gogpu/texstream/backend/software"
)

func newTestUploader(t *testing.T, opts ...texstream.Option) (*texstream.Uploader, *software.Backend) {
	t.Helper()
	return newTestUploaderOn(t, software.New(), opts...)
}

func newTestUploaderOn(t *testing.T, b *software.Backend, opts ...texstream.Option) (*texstream.Uploader, *software.Backend) {
	t.Helper()
	u, err := texstream.New(b, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(u.Close)
	return u, b
}

// ramp returns a payload whose bytes count up, so misplaced rows show.
func ramp(width, height int, format texstream.PixelFormat) []byte {
	p := make([]byte, format.ImageBytes(width, height))
	for i := range p {
		p[i] = byte(i*7 + 1)
	}
	return p
}

func mustAllocate(t *testing.T, u *texstream.Uploader, width, height int) texstream.Handle {
	t.Helper()
	h, err := u.Allocate(width, height, texstream.FormatRGBA8, false)
	if err != nil {
		t.Fatalf("Allocate(%dx%d) error = %v", width, height, err)
	}
	return h
}
