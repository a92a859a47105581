package texstream

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// PixelFormat is the channel layout and bit depth of a cache's pixels.
type PixelFormat uint8

const (
	// FormatUnknown is the zero value and is rejected by Allocate.
	FormatUnknown PixelFormat = iota

	// FormatRGBA8 is RGBA with 8 bits per channel.
	FormatRGBA8

	// FormatBGRA8 is BGRA with 8 bits per channel, common for surfaces.
	FormatBGRA8

	// FormatR8 is a single 8-bit channel, used for masks.
	FormatR8

	// FormatRG8 is two 8-bit channels.
	FormatRG8

	// FormatRGBA16F is RGBA with a 16-bit float per channel.
	FormatRGBA16F
)

// String returns a human-readable name for the format.
func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatR8:
		return "R8"
	case FormatRG8:
		return "RG8"
	case FormatRGBA16F:
		return "RGBA16F"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// BytesPerPixel returns the size of one pixel, or 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8, FormatBGRA8:
		return 4
	case FormatR8:
		return 1
	case FormatRG8:
		return 2
	case FormatRGBA16F:
		return 8
	default:
		return 0
	}
}

// Valid reports whether f is a known format.
func (f PixelFormat) Valid() bool {
	return f.BytesPerPixel() > 0
}

// RowBytes returns the byte length of one row of width pixels.
func (f PixelFormat) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// ImageBytes returns the byte length of a full width x height image.
func (f PixelFormat) ImageBytes(width, height int) int {
	return f.RowBytes(width) * height
}

// WGPUFormat converts to the matching gputypes.TextureFormat.
// Unknown formats map to gputypes.TextureFormatUndefined.
func (f PixelFormat) WGPUFormat() gputypes.TextureFormat {
	switch f {
	case FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm
	case FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	case FormatR8:
		return gputypes.TextureFormatR8Unorm
	case FormatRG8:
		return gputypes.TextureFormatRG8Unorm
	case FormatRGBA16F:
		return gputypes.TextureFormatRGBA16Float
	default:
		return gputypes.TextureFormatUndefined
	}
}

// ParsePixelFormat returns the format whose String matches s, ignoring case.
func ParsePixelFormat(s string) (PixelFormat, error) {
	for f := FormatRGBA8; f <= FormatRGBA16F; f++ {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: unknown pixel format %q", ErrUsage, s)
}
