package software

import (
	"fmt"

	"github.com/gogpu/texstream"
)

// Texture is an in-memory texture. Rows are tightly packed.
type Texture struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
	Format texstream.PixelFormat
}

// NewTexture allocates a zeroed texture.
func NewTexture(width, height int, format texstream.PixelFormat) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("software: invalid dimensions %dx%d", width, height)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("software: unsupported format %s", format)
	}
	return &Texture{
		Pix:    make([]byte, format.ImageBytes(width, height)),
		Width:  width,
		Height: height,
		Stride: format.RowBytes(width),
		Format: format,
	}, nil
}

// Row returns row y of the texture.
func (t *Texture) Row(y int) []byte {
	return t.Pix[y*t.Stride : (y+1)*t.Stride]
}

// String returns a string representation of the texture.
func (t *Texture) String() string {
	return fmt.Sprintf("software.Texture[%dx%d %s]", t.Width, t.Height, t.Format)
}
