// Package pixels builds tightly packed payloads for texstream caches from
// Go images and simple generated patterns.
package pixels

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/gogpu/texstream"
)

// ErrUnsupportedFormat is returned for formats without an encoder.
var ErrUnsupportedFormat = errors.New("pixels: unsupported format")

// FromImage encodes img at its own size.
func FromImage(img image.Image, format texstream.PixelFormat) ([]byte, error) {
	b := img.Bounds()
	return encode(img, b, b.Dx(), b.Dy(), format, nil)
}

// FromImageScaled encodes img resampled to width x height with
// Catmull-Rom filtering.
func FromImageScaled(img image.Image, width, height int, format texstream.PixelFormat) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pixels: invalid size %dx%d", width, height)
	}
	return encode(img, img.Bounds(), width, height, format, draw.CatmullRom)
}

func encode(img image.Image, src image.Rectangle, width, height int, format texstream.PixelFormat, scaler draw.Scaler) ([]byte, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pixels: empty image")
	}

	dst := image.Rect(0, 0, width, height)
	switch format {
	case texstream.FormatR8:
		gray := image.NewGray(dst)
		drawInto(gray, img, src, scaler)
		return gray.Pix, nil
	case texstream.FormatRGBA16F:
		wide := image.NewRGBA64(dst)
		drawInto(wide, img, src, scaler)
		return rgba64ToHalf(wide), nil
	}

	rgba := image.NewRGBA(dst)
	drawInto(rgba, img, src, scaler)

	switch format {
	case texstream.FormatRGBA8:
		return rgba.Pix, nil
	case texstream.FormatBGRA8:
		swapRB(rgba.Pix)
		return rgba.Pix, nil
	case texstream.FormatRG8:
		out := make([]byte, width*height*2)
		for i, j := 0, 0; i < len(rgba.Pix); i, j = i+4, j+2 {
			out[j] = rgba.Pix[i]
			out[j+1] = rgba.Pix[i+1]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

func drawInto(dst draw.Image, img image.Image, src image.Rectangle, scaler draw.Scaler) {
	if scaler == nil {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
		return
	}
	scaler.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
}

func swapRB(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// Stripes returns a width x height payload of horizontal bands, one per
// color, cycling. Bands are bandHeight rows tall.
func Stripes(width, height, bandHeight int, format texstream.PixelFormat, colors ...color.Color) ([]byte, error) {
	if len(colors) == 0 {
		return nil, fmt.Errorf("pixels: no colors")
	}
	bandHeight = max(bandHeight, 1)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		c := colors[(y/bandHeight)%len(colors)]
		draw.Draw(img, image.Rect(0, y, width, y+1), &image.Uniform{C: c}, image.Point{}, draw.Src)
	}
	return FromImage(img, format)
}

// rgba64ToHalf converts 16-bit channels to IEEE 754 half floats in [0, 1],
// little endian.
func rgba64ToHalf(img *image.RGBA64) []byte {
	out := make([]byte, len(img.Pix))
	for i := 0; i+1 < len(img.Pix); i += 2 {
		v := uint16(img.Pix[i])<<8 | uint16(img.Pix[i+1])
		h := halfFromFloat32(float32(v) / math.MaxUint16)
		out[i] = byte(h)
		out[i+1] = byte(h >> 8)
	}
	return out
}

// halfFromFloat32 converts a normal float32 in [0, 1] to half precision,
// truncating the mantissa.
func halfFromFloat32(f float32) uint16 {
	if f <= 0 {
		return 0
	}
	bits := math.Float32bits(f)
	exp := int((bits>>23)&0xff) - 127 + 15
	if exp <= 0 {
		return 0
	}
	return uint16(exp)<<10 | uint16((bits>>13)&0x3ff) //nolint:gosec // G115: exp <= 15 for f <= 1
}
