// Package software implements texstream.Backend on in-memory textures.
//
// It is deterministic: a copy entry point runs exactly the row range
// recorded by the last SubmitRowRange, on whatever goroutine the issuer
// calls it from. Tests use it to inspect written pixels and to inject
// backend failures.
package software

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/texstream"
	"github.com/gogpu/texstream/backend"
	"github.com/gogpu/texstream/internal/budget"
)

// Software backend errors.
var (
	// ErrUnknownRef is returned for refs the backend never issued or
	// already destroyed.
	ErrUnknownRef = errors.New("software: unknown texture reference")

	// ErrInvalidRange is returned for row ranges outside the texture or
	// out of order.
	ErrInvalidRange = errors.New("software: invalid row range")

	// ErrExistingMismatch is returned when a wrapped texture does not
	// match the requested dimensions or format.
	ErrExistingMismatch = errors.New("software: existing texture mismatch")
)

// RowsUnknownRef is what QueryRowsWritten returns for unknown refs.
const RowsUnknownRef = -1

// init registers the software backend on package import.
func init() {
	backend.Register(backend.NameSoftware, func() (texstream.Backend, error) {
		return New(), nil
	})
}

// entry is the backend state behind one NativeRef.
type entry struct {
	width  int
	height int
	format texstream.PixelFormat
	tex    *Texture
	owned  bool

	pending      []byte
	pendingStart int
	pendingCount int

	rowsWritten int
	consumed    int
	injected    *int
}

// Backend keeps cache textures in memory.
//
// Backend is safe for concurrent use.
type Backend struct {
	mu      sync.Mutex
	next    texstream.NativeRef
	entries map[texstream.NativeRef]*entry
	budget  *budget.Manager
	lazy    bool

	failNext error
}

// New creates a software backend.
func New(opts ...Option) *Backend {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	b := &Backend{
		entries: make(map[texstream.NativeRef]*entry),
		lazy:    o.lazy,
	}
	if o.budgetMB > 0 {
		b.budget = budget.New(o.budgetMB)
	}
	return b
}

// CreateCacheTexture allocates an in-memory texture.
func (b *Backend) CreateCacheTexture(width, height int, format texstream.PixelFormat, _ bool) (texstream.NativeRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailureLocked(); err != nil {
		return texstream.NullRef, err
	}

	ref := b.nextRefLocked()
	if b.budget != nil {
		//nolint:gosec // G115: dimensions validated by the uploader
		if err := b.budget.Reserve(uint64(ref), uint64(format.ImageBytes(width, height))); err != nil {
			return texstream.NullRef, err
		}
	}

	e := &entry{width: width, height: height, format: format, owned: true}
	if !b.lazy {
		tex, err := NewTexture(width, height, format)
		if err != nil {
			b.releaseBudgetLocked(ref)
			return texstream.NullRef, err
		}
		e.tex = tex
	}
	b.entries[ref] = e

	texstream.Logger().Debug("software: texture created", "ref", ref, "width", width, "height", height, "lazy", b.lazy)
	return ref, nil
}

// CreateCacheTextureFromExisting wraps a caller-owned *Texture.
func (b *Backend) CreateCacheTextureFromExisting(existing any, width, height int, format texstream.PixelFormat) (texstream.NativeRef, error) {
	tex, ok := existing.(*Texture)
	if !ok || tex == nil {
		return texstream.NullRef, fmt.Errorf("%w: want *software.Texture, got %T", ErrExistingMismatch, existing)
	}
	if tex.Width != width || tex.Height != height || tex.Format != format {
		return texstream.NullRef, fmt.Errorf("%w: have %dx%d %s, want %dx%d %s",
			ErrExistingMismatch, tex.Width, tex.Height, tex.Format, width, height, format)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailureLocked(); err != nil {
		return texstream.NullRef, err
	}

	ref := b.nextRefLocked()
	b.entries[ref] = &entry{width: width, height: height, format: format, tex: tex}
	return ref, nil
}

// DestroyCache forgets ref. Wrapped textures are left to their owner.
func (b *Backend) DestroyCache(ref texstream.NativeRef) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[ref]
	if !ok {
		return
	}
	delete(b.entries, ref)
	if e.owned {
		b.releaseBudgetLocked(ref)
	}
	e.pending = nil
	texstream.Logger().Debug("software: texture destroyed", "ref", ref, "owned", e.owned)
}

// SubmitRowRange records the next row range to copy.
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
	} else if rowStart != e.rowsWritten {
		return fmt.Errorf("%w: range starts at %d, %d rows written", ErrInvalidRange, rowStart, e.rowsWritten)
	}

	e.pending = data
	e.pendingStart = rowStart
	e.pendingCount = rowCount
	return nil
}

// QueryRowsWritten returns the rows of the current image copied so far,
// or RowsUnknownRef.
func (b *Backend) QueryRowsWritten(ref texstream.NativeRef) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[ref]
	if !ok {
		return RowsUnknownRef
	}
	if e.injected != nil {
		return *e.injected
	}
	return e.rowsWritten
}

// BackendTextureHandle returns the *Texture for ref, or nil when storage
// has not been allocated yet.
func (b *Backend) BackendTextureHandle(ref texstream.NativeRef) any {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[ref]
	if !ok || e.tex == nil {
		return nil
	}
	return e.tex
}

// CopyEntryPoint returns the function that runs recorded copies.
func (b *Backend) CopyEntryPoint() texstream.EntryPoint {
	return b.copyRows
}

func (b *Backend) copyRows(ref texstream.NativeRef) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[ref]
	if !ok || e.pending == nil {
		return
	}
	if e.tex == nil {
		tex, err := NewTexture(e.width, e.height, e.format)
		if err != nil {
			texstream.Logger().Warn("software: lazy allocation failed", "ref", ref, "err", err)
			return
		}
		e.tex = tex
	}

	stride := e.format.RowBytes(e.width)
	for y := e.pendingStart; y < e.pendingStart+e.pendingCount; y++ {
		copy(e.tex.Row(y), e.pending[y*stride:(y+1)*stride])
	}
	e.rowsWritten = e.pendingStart + e.pendingCount
	e.consumed += e.pendingCount
	e.pending = nil
}

// Pixels returns the texture memory for ref, or nil.
func (b *Backend) Pixels(ref texstream.NativeRef) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.entries[ref]; ok && e.tex != nil {
		return e.tex.Pix
	}
	return nil
}

// ConsumedRows returns the total rows copied for ref across all images.
func (b *Backend) ConsumedRows(ref texstream.NativeRef) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.entries[ref]; ok {
		return e.consumed
	}
	return 0
}

// Live returns the number of refs not yet destroyed.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Pending reports whether ref has a recorded range that no copy ran yet.
func (b *Backend) Pending(ref texstream.NativeRef) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[ref]
	return ok && e.pending != nil
}

// Memory returns budget statistics. It is the zero value without a budget.
func (b *Backend) Memory() budget.Stats {
	if b.budget == nil {
		return budget.Stats{}
	}
	return b.budget.Stats()
}

// FailNextAllocation makes the next CreateCacheTexture or
// CreateCacheTextureFromExisting call fail with err.
func (b *Backend) FailNextAllocation(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = err
}

// InjectRowsWritten overrides what QueryRowsWritten reports for ref.
// Negative values simulate backend error codes.
func (b *Backend) InjectRowsWritten(ref texstream.NativeRef, rows int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.entries[ref]; ok {
		e.injected = &rows
	}
}

func (b *Backend) nextRefLocked() texstream.NativeRef {
	b.next++
	return b.next
}

func (b *Backend) takeFailureLocked() error {
	err := b.failNext
	b.failNext = nil
	return err
}

func (b *Backend) releaseBudgetLocked(ref texstream.NativeRef) {
	if b.budget != nil {
		b.budget.Release(uint64(ref))
	}
}

var _ texstream.Backend = (*Backend)(nil)
