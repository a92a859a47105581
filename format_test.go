package texstream_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/texstream"
)

func TestPixelFormat(t *testing.T) {
	tests := []struct {
		format     texstream.PixelFormat
		wantString string
		wantBPP    int
		wantWGPU   gputypes.TextureFormat
	}{
		{texstream.FormatRGBA8, "RGBA8", 4, gputypes.TextureFormatRGBA8Unorm},
		{texstream.FormatBGRA8, "BGRA8", 4, gputypes.TextureFormatBGRA8Unorm},
		{texstream.FormatR8, "R8", 1, gputypes.TextureFormatR8Unorm},
		{texstream.FormatRG8, "RG8", 2, gputypes.TextureFormatRG8Unorm},
		{texstream.FormatRGBA16F, "RGBA16F", 8, gputypes.TextureFormatRGBA16Float},
		{texstream.FormatUnknown, "Unknown(0)", 0, gputypes.TextureFormatUndefined},
		{texstream.PixelFormat(99), "Unknown(99)", 0, gputypes.TextureFormatUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.wantString, func(t *testing.T) {
			if got := tt.format.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
			if got := tt.format.BytesPerPixel(); got != tt.wantBPP {
				t.Errorf("BytesPerPixel() = %d, want %d", got, tt.wantBPP)
			}
			if got := tt.format.Valid(); got != (tt.wantBPP > 0) {
				t.Errorf("Valid() = %v", got)
			}
			if got := tt.format.WGPUFormat(); got != tt.wantWGPU {
				t.Errorf("WGPUFormat() = %v, want %v", got, tt.wantWGPU)
			}
			if got, want := tt.format.ImageBytes(3, 5), 15*tt.wantBPP; got != want {
				t.Errorf("ImageBytes(3, 5) = %d, want %d", got, want)
			}
		})
	}
}

func TestParsePixelFormat(t *testing.T) {
	for _, s := range []string{"rgba8", "BGRA8", "r8", "Rg8", "rgba16f"} {
		f, err := texstream.ParsePixelFormat(s)
		if err != nil {
			t.Errorf("ParsePixelFormat(%q) error = %v", s, err)
			continue
		}
		if !strings.EqualFold(f.String(), s) {
			t.Errorf("ParsePixelFormat(%q) = %s", s, f)
		}
	}
	if _, err := texstream.ParsePixelFormat("rgb565"); !errors.Is(err, texstream.ErrUsage) {
		t.Errorf("ParsePixelFormat(rgb565) error = %v, want ErrUsage", err)
	}
}
