// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texstream"
)

// View is what texstream.Texture.Native returns for native caches: a
// sampled view of the cache texture and a sampler honoring the filter
// policy. Both are destroyed with the texstream.Texture.
type View struct {
	Texture hal.Texture
	View    hal.TextureView
	Sampler hal.Sampler

	Width     int
	Height    int
	Format    gputypes.TextureFormat
	MipLevels uint32
}

// String returns a string representation of the view.
func (v *View) String() string {
	return fmt.Sprintf("native.View[%dx%d %s, %d mips]", v.Width, v.Height, v.Format, v.MipLevels)
}

// WrapTexture creates the view and sampler for a materialized cache.
func (b *Backend) WrapTexture(ref texstream.NativeRef, opts texstream.MaterializeOptions) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRef, ref)
	}

	levels := uint32(1)
	if opts.Mip == texstream.MipAll {
		levels = e.mipLevels
	}

	view, err := b.device.CreateTextureView(e.tex, &hal.TextureViewDescriptor{
		Label:         opts.Label + "_view",
		Format:        e.format.WGPUFormat(),
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		BaseMipLevel:  0,
		MipLevelCount: levels,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture view: %w", err)
	}

	filter := gputypes.FilterModeNearest
	if opts.Filter == texstream.FilterLinear {
		filter = gputypes.FilterModeLinear
	}
	sampler, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        opts.Label + "_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: filter,
	})
	if err != nil {
		b.device.DestroyTextureView(view)
		return nil, fmt.Errorf("native: create sampler: %w", err)
	}

	b.views++
	return &View{
		Texture:   e.tex,
		View:      view,
		Sampler:   sampler,
		Width:     e.width,
		Height:    e.height,
		Format:    e.format.WGPUFormat(),
		MipLevels: levels,
	}, nil
}

// UnwrapTexture destroys a view created by WrapTexture.
func (b *Backend) UnwrapTexture(wrapped any) {
	v, ok := wrapped.(*View)
	if !ok || v == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if v.Sampler != nil {
		b.device.DestroySampler(v.Sampler)
		v.Sampler = nil
	}
	if v.View != nil {
		b.device.DestroyTextureView(v.View)
		v.View = nil
		b.views--
	}
}

// Views returns the number of live views.
func (b *Backend) Views() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.views
}
