// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package native implements texstream.Backend on gogpu/wgpu HAL textures.
//
// Row ranges are written with hal.Queue.WriteTexture when the copy entry
// point runs, so the entry point must be issued on the goroutine that owns
// the queue. Only mip level 0 is written; other levels are left to the
// caller.
package native

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texstream"
	"github.com/gogpu/texstream/internal/budget"
	"github.com/gogpu/texstream/internal/mathutil"
)

// Native backend errors.
var (
	// ErrNilHALDevice is returned when creating a backend without a HAL device.
	ErrNilHALDevice = errors.New("native: HAL device is nil")

	// ErrNilHALQueue is returned when creating a backend without a HAL queue.
	ErrNilHALQueue = errors.New("native: HAL queue is nil")

	// ErrUnknownRef is returned for refs the backend never issued or
	// already destroyed.
	ErrUnknownRef = errors.New("native: unknown texture reference")

	// ErrInvalidRange is returned for row ranges outside the texture.
	ErrInvalidRange = errors.New("native: invalid row range")

	// ErrNotHALTexture is returned when an existing texture is not a hal.Texture.
	ErrNotHALTexture = errors.New("native: existing texture is not a hal.Texture")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("native: backend closed")
)

// Row counts reported by QueryRowsWritten for failures.
const (
	// RowsUnknownRef is reported for unknown refs.
	RowsUnknownRef = -1

	// RowsWriteFailed is reported once Queue.WriteTexture failed for ref.
	RowsWriteFailed = -2
)

// entry is the backend state behind one NativeRef.
type entry struct {
	tex       hal.Texture
	owned     bool
	width     int
	height    int
	format    texstream.PixelFormat
	mipLevels uint32

	pending      []byte
	pendingStart int
	pendingCount int

	rowsWritten int
	failed      bool
}

// Backend writes cache textures through a HAL queue.
//
// Thread Safety: Backend is safe for concurrent use from multiple goroutines.
// The copy entry point holds the backend mutex while WriteTexture runs.
type Backend struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue
	label  string
	budget *budget.Manager

	next    texstream.NativeRef
	entries map[texstream.NativeRef]*entry
	views   int

	// Set when the backend opened the device itself.
	instance hal.Instance
	closed   bool
}

// New creates a backend on a device and queue owned by the caller.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Backend, error) {
	if device == nil {
		return nil, ErrNilHALDevice
	}
	if queue == nil {
		return nil, ErrNilHALQueue
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	b := &Backend{
		device:  device,
		queue:   queue,
		label:   o.label,
		entries: make(map[texstream.NativeRef]*entry),
	}
	if o.budgetMB > 0 {
		b.budget = budget.New(o.budgetMB)
	}
	return b, nil
}

// CreateCacheTexture creates a 2D texture with CopyDst and TextureBinding
// usage. With mip set, the full mip chain is allocated.
func (b *Backend) CreateCacheTexture(width, height int, format texstream.PixelFormat, mip bool) (texstream.NativeRef, error) {
	wgpuFormat := format.WGPUFormat()
	if wgpuFormat == gputypes.TextureFormatUndefined {
		return texstream.NullRef, fmt.Errorf("native: unsupported format %s", format)
	}

	levels := uint32(1)
	if mip {
		levels = mathutil.MipLevels[uint32](uint32(width), uint32(height)) //nolint:gosec // G115: validated positive
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return texstream.NullRef, ErrClosed
	}

	ref := b.nextRefLocked()
	if b.budget != nil {
		//nolint:gosec // G115: dimensions validated by the uploader
		if err := b.budget.Reserve(uint64(ref), uint64(textureBytes(width, height, format, levels))); err != nil {
			return texstream.NullRef, err
		}
	}

	//nolint:gosec // G115: dimensions validated by the uploader
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label: fmt.Sprintf("%s_%d", b.label, ref),
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: levels,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        wgpuFormat,
		Usage: gputypes.TextureUsageCopyDst |
			gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		b.releaseBudgetLocked(ref)
		return texstream.NullRef, fmt.Errorf("native: create texture: %w", err)
	}

	b.entries[ref] = &entry{
		tex:       tex,
		owned:     true,
		width:     width,
		height:    height,
		format:    format,
		mipLevels: levels,
	}
	texstream.Logger().Debug("native: texture created", "ref", ref, "width", width, "height", height, "mips", levels)
	return ref, nil
}

// CreateCacheTextureFromExisting wraps a caller-owned hal.Texture. The
// texture must have CopyDst usage; DestroyCache leaves it alive.
func (b *Backend) CreateCacheTextureFromExisting(existing any, width, height int, format texstream.PixelFormat) (texstream.NativeRef, error) {
	tex, ok := existing.(hal.Texture)
	if !ok || tex == nil {
		return texstream.NullRef, fmt.Errorf("%w: got %T", ErrNotHALTexture, existing)
	}
	if format.WGPUFormat() == gputypes.TextureFormatUndefined {
		return texstream.NullRef, fmt.Errorf("native: unsupported format %s", format)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return texstream.NullRef, ErrClosed
	}

	ref := b.nextRefLocked()
	b.entries[ref] = &entry{
		tex:       tex,
		width:     width,
		height:    height,
		format:    format,
		mipLevels: 1,
	}
	return ref, nil
}

// DestroyCache destroys textures the backend created and forgets ref.
func (b *Backend) DestroyCache(ref texstream.NativeRef) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[ref]
	if !ok {
		return
	}
	delete(b.entries, ref)
	e.pending = nil
	if e.owned {
		b.device.DestroyTexture(e.tex)
		b.releaseBudgetLocked(ref)
	}
	texstream.Logger().Debug("native: texture destroyed", "ref", ref, "owned", e.owned)
}

// SubmitRowRange records the next row range to write.
func (b *Backend) SubmitRowRange(ref texstream.NativeRef, data []byte, rowStart, rowCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[ref]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRef, ref)
	}
	if rowStart < 0 || rowCount <= 0 || rowStart+rowCount > e.height {
		return fmt.Errorf("%w: [%d,%d) of %d rows", ErrInvalidRange, rowStart, rowStart+rowCount, e.height)
	}
	if want := e.format.ImageBytes(e.width, e.height); len(data) != want {
		return fmt.Errorf("%w: data is %d bytes, want %d", ErrInvalidRange, len(data), want)
	}
	if rowStart == 0 {
		e.rowsWritten = 0
		e.failed = false
	}

	e.pending = data
	e.pendingStart = rowStart
	e.pendingCount = rowCount
	return nil
}

// QueryRowsWritten returns the rows of the current image written so far,
// RowsWriteFailed after a failed write, or RowsUnknownRef.
func (b *Backend) QueryRowsWritten(ref texstream.NativeRef) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[ref]
	if !ok {
		return RowsUnknownRef
	}
	if e.failed {
		return RowsWriteFailed
	}
	return e.rowsWritten
}

// BackendTextureHandle returns the hal.Texture for ref.
func (b *Backend) BackendTextureHandle(ref texstream.NativeRef) any {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[ref]
	if !ok || e.tex == nil {
		return nil
	}
	return e.tex
}

// CopyEntryPoint returns the function that writes recorded row ranges.
func (b *Backend) CopyEntryPoint() texstream.EntryPoint {
	return b.writeRows
}

func (b *Backend) writeRows(ref texstream.NativeRef) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[ref]
	if !ok || e.pending == nil {
		return
	}

	stride := e.format.RowBytes(e.width)
	start, count := e.pendingStart, e.pendingCount
	rows := e.pending[start*stride : (start+count)*stride]
	e.pending = nil

	//nolint:gosec // G115: ranges validated by SubmitRowRange
	err := b.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  e.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: uint32(start), Z: 0},
			Aspect:   gputypes.TextureAspectAll,
		},
		rows,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(stride),
			RowsPerImage: uint32(count),
		},
		&hal.Extent3D{
			Width:              uint32(e.width),
			Height:             uint32(count),
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		e.failed = true
		texstream.Logger().Warn("native: write texture failed", "ref", ref, "row_start", start, "row_count", count, "err", err)
		return
	}
	e.rowsWritten = start + count
}

// Memory returns budget statistics. It is the zero value without a budget.
func (b *Backend) Memory() budget.Stats {
	if b.budget == nil {
		return budget.Stats{}
	}
	return b.budget.Stats()
}

// Live returns the number of refs not yet destroyed.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Close destroys every texture the backend created, and the device if
// Open created it. Release caches through the Uploader first.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for ref, e := range b.entries {
		if e.owned {
			b.device.DestroyTexture(e.tex)
		}
		delete(b.entries, ref)
	}
	if b.budget != nil {
		b.budget.Close()
	}
	if b.instance != nil {
		b.device.Destroy()
		b.instance.Destroy()
		b.instance = nil
	}
	return nil
}

func (b *Backend) nextRefLocked() texstream.NativeRef {
	b.next++
	return b.next
}

func (b *Backend) releaseBudgetLocked(ref texstream.NativeRef) {
	if b.budget != nil {
		b.budget.Release(uint64(ref))
	}
}

// textureBytes returns the size of a texture with levels mip levels.
func textureBytes(width, height int, format texstream.PixelFormat, levels uint32) int {
	total := 0
	for range levels {
		total += format.ImageBytes(width, height)
		width = max(width/2, 1)
		height = max(height/2, 1)
	}
	return total
}

var (
	_ texstream.Backend        = (*Backend)(nil)
	_ texstream.TextureWrapper = (*Backend)(nil)
)
