// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package texcanvas

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/texstream"
	"github.com/gogpu/texstream/pixels"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("texcanvas: canvas is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("texcanvas: invalid dimensions")

	// ErrNilUploader is returned when a nil Uploader is passed.
	ErrNilUploader = errors.New("texcanvas: nil uploader")
)

// Option configures a Canvas.
type Option func(*Canvas)

// WithFormat sets the texture format. Default is FormatRGBA8.
func WithFormat(format texstream.PixelFormat) Option {
	return func(c *Canvas) { c.format = format }
}

// WithRowsPerTick sets how many rows each flush uploads. Zero uploads the
// whole canvas in one tick.
func WithRowsPerTick(rows int) Option {
	return func(c *Canvas) { c.rowsPerTick = rows }
}

// WithFilter sets the filter policy used when the texture is materialized.
func WithFilter(filter texstream.FilterPolicy) Option {
	return func(c *Canvas) { c.filter = filter }
}

// Canvas mirrors an *image.RGBA into a texstream cache.
type Canvas struct {
	u      *texstream.Uploader
	img    *image.RGBA
	format texstream.PixelFormat
	filter texstream.FilterPolicy

	rowsPerTick int

	// current is shown; pending replaces it once fully uploaded.
	current texstream.Handle
	pending texstream.Handle

	// host is the drawer's texture mirroring the cache named by mirrorHandle.
	// mirror holds the RGBA rows of that cache's payload; mirrorRows of them
	// already reached host.
	host         gpucontext.Texture
	mirror       []byte
	mirrorHandle texstream.Handle
	mirrorRows   int

	dirty  bool
	closed bool

	// owned is closed with the canvas.
	owned io.Closer
}

// New creates a Canvas backed by u. The canvas does not take ownership of u.
func New(u *texstream.Uploader, width, height int, opts ...Option) (*Canvas, error) {
	if u == nil {
		return nil, ErrNilUploader
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}

	c := &Canvas{
		u:       u,
		img:     image.NewRGBA(image.Rect(0, 0, width, height)),
		format:  texstream.FormatRGBA8,
		filter:  texstream.FilterLinear,
		current:      texstream.InvalidHandle,
		pending:      texstream.InvalidHandle,
		mirrorHandle: texstream.InvalidHandle,
		dirty:        true,
	}
	for _, opt := range opts {
		opt(c)
	}

	h, err := c.allocate(width, height)
	if err != nil {
		return nil, err
	}
	c.current = h
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(u *texstream.Uploader, width, height int, opts ...Option) *Canvas {
	c, err := New(u, width, height, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Canvas) allocate(width, height int) (texstream.Handle, error) {
	h, err := c.u.Allocate(width, height, c.format, false)
	if err != nil {
		return texstream.InvalidHandle, fmt.Errorf("texcanvas: allocate %dx%d: %w", width, height, err)
	}
	if c.rowsPerTick > 0 {
		if err := c.u.SetRowsPerTick(h, c.rowsPerTick); err != nil {
			_ = c.u.Release(h)
			return texstream.InvalidHandle, err
		}
	}
	return h, nil
}

// Image returns the backing image. Returns nil if the canvas is closed.
// Call MarkDirty after drawing into it directly.
func (c *Canvas) Image() *image.RGBA {
	if c.closed {
		return nil
	}
	return c.img
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.img.Bounds().Dx() }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// Size returns width and height.
func (c *Canvas) Size() (width, height int) { return c.Width(), c.Height() }

// MarkDirty flags the canvas for upload on the next Flush.
func (c *Canvas) MarkDirty() { c.dirty = true }

// IsDirty reports whether the canvas has changes not yet staged.
func (c *Canvas) IsDirty() bool { return c.dirty }

// Draw calls fn with the backing image and marks the canvas dirty.
func (c *Canvas) Draw(fn func(*image.RGBA)) error {
	if c.closed {
		return ErrCanvasClosed
	}
	fn(c.img)
	c.dirty = true
	return nil
}

// Resize changes canvas dimensions and clears the image. The current
// texture stays visible until the new size finishes uploading.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if c.Width() == width && c.Height() == height {
		return nil
	}

	h, err := c.allocate(width, height)
	if err != nil {
		return err
	}
	// A resize superseding an unfinished one drops the older target.
	if c.pending != texstream.InvalidHandle {
		_ = c.u.Release(c.pending)
	}
	c.pending = h
	c.mirror = nil
	c.mirrorHandle = texstream.InvalidHandle
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.dirty = true
	return nil
}

// target is the cache new content is staged into.
func (c *Canvas) target() texstream.Handle {
	if c.pending != texstream.InvalidHandle {
		return c.pending
	}
	return c.current
}

// Flush advances the upload by one tick and stages new content when the
// canvas is dirty and the previous upload has completed. Changes made
// while an upload is in flight are coalesced into the next one.
//
// It returns the texture to display, or nil when nothing is uploaded yet.
func (c *Canvas) Flush() (*texstream.Texture, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}

	h := c.target()
	state, err := c.u.State(h)
	if err != nil {
		return nil, err
	}

	switch state {
	case texstream.StateStaged, texstream.StateTicking:
		if err := c.u.Tick(h); err != nil {
			return nil, err
		}
	default:
		if c.dirty {
			// A fresh payload per submit: the cache holds a view until complete.
			data, err := pixels.FromImage(c.img, c.format)
			if err != nil {
				return nil, err
			}
			if err := c.u.Submit(h, data, 0); err != nil {
				return nil, err
			}
			if err := c.stageMirror(h, data); err != nil {
				return nil, err
			}
			c.dirty = false
			if err := c.u.Tick(h); err != nil {
				return nil, err
			}
		}
	}

	if err := c.promote(); err != nil {
		return nil, err
	}
	return c.Texture(), nil
}

// promote swaps in the pending cache once it is complete.
func (c *Canvas) promote() error {
	if c.pending == texstream.InvalidHandle {
		return nil
	}
	done, err := c.u.IsComplete(c.pending)
	if err != nil || !done {
		return err
	}
	old := c.current
	c.current = c.pending
	c.pending = texstream.InvalidHandle
	texstream.Logger().Debug("texcanvas: resized texture promoted", "old", old, "new", c.current)
	return c.u.Release(old)
}

// Texture returns the texture currently shown without flushing, or nil
// when the backend has none yet.
func (c *Canvas) Texture() *texstream.Texture {
	if c.closed {
		return nil
	}
	tex, err := c.u.Materialize(c.current, texstream.MipBase, c.filter)
	if err != nil {
		return nil
	}
	return tex
}

// Progress returns the upload progress of the content being staged.
func (c *Canvas) Progress() (float64, error) {
	if c.closed {
		return 0, ErrCanvasClosed
	}
	return c.u.Progress(c.target())
}

// Close releases all caches of the canvas. Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.pending != texstream.InvalidHandle {
		errs = append(errs, c.u.Release(c.pending))
		c.pending = texstream.InvalidHandle
	}
	errs = append(errs, c.u.Release(c.current))
	c.current = texstream.InvalidHandle

	c.destroyHost()
	c.mirror = nil

	if c.owned != nil {
		errs = append(errs, c.owned.Close())
		c.owned = nil
	}
	return errors.Join(errs...)
}
