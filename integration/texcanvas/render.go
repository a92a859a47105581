// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package texcanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/texstream"
	"github.com/gogpu/texstream/pixels"
)

// ErrInvalidRenderer is returned when the drawer has no texture creator.
var ErrInvalidRenderer = errors.New("texcanvas: drawer has no gpucontext.TextureCreator")

// textureDestroyer is the interface for destroying host textures.
type textureDestroyer interface {
	Destroy()
}

// RenderTo flushes the canvas and draws it at (0, 0).
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
//
// The drawer only accepts textures made by its own TextureCreator, so the
// canvas keeps a host texture from dc.TextureCreator() in step with the
// cache: rows the cache reports written are copied with UpdateRegion when
// the host texture supports it, otherwise the host texture is refreshed
// once the upload completes. After a resize the old host texture is drawn
// until the new size finished uploading.
//
// Nothing is drawn until the first upload reached the host texture.
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.RenderToPosition(dc, 0, 0)
}

// RenderToPosition is like RenderTo but draws at (x, y).
func (c *Canvas) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	if _, err := c.Flush(); err != nil {
		return err
	}
	if err := c.syncHost(dc); err != nil {
		return err
	}
	if c.host == nil {
		return nil
	}
	if err := dc.DrawTexture(c.host, x, y); err != nil {
		return fmt.Errorf("texcanvas: draw texture: %w", err)
	}
	return nil
}

// stageMirror records the RGBA rows of the payload just submitted to h.
func (c *Canvas) stageMirror(h texstream.Handle, payload []byte) error {
	rgba := payload
	if c.format != texstream.FormatRGBA8 {
		var err error
		if rgba, err = pixels.FromImage(c.img, texstream.FormatRGBA8); err != nil {
			return err
		}
	}
	c.mirror = rgba
	c.mirrorHandle = h
	c.mirrorRows = 0
	return nil
}

// syncHost copies the rows written to the mirrored cache since the last
// call into the host texture.
func (c *Canvas) syncHost(dc gpucontext.TextureDrawer) error {
	if c.mirror == nil || c.mirrorHandle == texstream.InvalidHandle {
		return nil
	}
	rows, err := c.u.RowsWritten(c.mirrorHandle)
	if err != nil {
		return err
	}
	if rows <= c.mirrorRows {
		return nil
	}

	width, height := c.Size()
	sameSize := c.host != nil && c.host.Width() == width && c.host.Height() == height

	if sameSize {
		if ru, ok := c.host.(gpucontext.TextureRegionUpdater); ok {
			stride := width * 4
			if err := ru.UpdateRegion(0, c.mirrorRows, width, rows-c.mirrorRows, c.mirror[c.mirrorRows*stride:rows*stride]); err != nil {
				return fmt.Errorf("texcanvas: texture region update failed: %w", err)
			}
			c.mirrorRows = rows
			return nil
		}
	}
	if rows < height {
		// Whole-texture paths wait for the full payload.
		return nil
	}

	if sameSize {
		if up, ok := c.host.(gpucontext.TextureUpdater); ok {
			if err := up.UpdateData(c.mirror); err != nil {
				return fmt.Errorf("texcanvas: texture update failed: %w", err)
			}
			c.mirrorRows = rows
			return nil
		}
	}

	creator := dc.TextureCreator()
	if creator == nil {
		return ErrInvalidRenderer
	}
	tex, err := creator.NewTextureFromRGBA(width, height, c.mirror)
	if err != nil {
		return fmt.Errorf("texcanvas: NewTextureFromRGBA failed: %w", err)
	}
	c.destroyHost()
	c.host = tex
	c.mirrorRows = rows
	texstream.Logger().Debug("texcanvas: host texture created", "width", width, "height", height)
	return nil
}

func (c *Canvas) destroyHost() {
	if d, ok := c.host.(textureDestroyer); ok {
		d.Destroy()
	}
	c.host = nil
}
