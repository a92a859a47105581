// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package texcanvas keeps a CPU image mirrored into a GPU texture through
// a texstream.Uploader, a bounded number of rows per frame.
//
// The data flow is:
//
//	image.RGBA (draw) -> payload -> texstream cache -> TextureDrawer
//
// # Usage
//
//	canvas, err := texcanvas.New(u, 800, 600)
//	if err != nil {
//	    return err
//	}
//	defer canvas.Close()
//
//	_ = canvas.Draw(func(img *image.RGBA) {
//	    draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
//	})
//
//	// once per frame
//	_ = canvas.RenderTo(dc)
//
// # Resizing
//
// Resize allocates a cache at the new size and keeps showing the old
// texture until the new one is fully uploaded, then releases the old
// cache.
//
// # Thread Safety
//
// Canvas is NOT safe for concurrent use. The Uploader underneath is.
package texcanvas
