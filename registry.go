package texstream

import (
	"fmt"
	"sync"
)

// Handle identifies a cache in an Uploader. Handles are small indices into
// the registry's slot table; a released handle may be handed out again by
// a later allocation.
type Handle int

// InvalidHandle is returned when allocation fails. It is never registered,
// so using it anywhere yields ErrNotFound.
const InvalidHandle Handle = -1

// cache is the registry record behind a Handle.
type cache struct {
	handle  Handle
	width   int
	height  int
	format  PixelFormat
	mip     bool
	wrapped bool
	ref     NativeRef

	rowsPerTick   int
	rowsWritten   int
	rowsScheduled int
	stage         []byte
	state         State

	binding      *binding
	texture      *Texture
	materialized bool
}

// Stats is a snapshot of registry occupancy.
type Stats struct {
	// Live is the number of allocated caches.
	Live int

	// Capacity is the number of registry slots.
	Capacity int

	// Bound is the number of caches with a frame-boundary binding.
	Bound int

	// Materialized is the number of caches with a live external texture.
	Materialized int
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Caches[%d/%d live, %d bound, %d materialized]",
		s.Live, s.Capacity, s.Bound, s.Materialized)
}

// Uploader owns a table of caches and drives their progressive uploads
// against a Backend.
//
// Uploader is safe for concurrent use. It never spawns goroutines; copies
// run wherever the configured Issuer runs them.
type Uploader struct {
	mu sync.RWMutex

	backend Backend
	entry   EntryPoint
	opts    options

	slots []*cache
	live  int

	// refs holds the native refs of live caches. Issued entry points only
	// reach the backend while their ref is in this set.
	refs map[NativeRef]Handle

	gate   frameGate
	closed bool
}

// New creates an Uploader on top of backend.
func New(backend Backend, opts ...Option) (*Uploader, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Uploader{
		backend: backend,
		entry:   backend.CopyEntryPoint(),
		opts:    o,
		slots:   make([]*cache, o.capacity),
		refs:    make(map[NativeRef]Handle),
		gate:    newFrameGate(),
	}, nil
}

// Allocate reserves backend storage for a new width x height texture and
// returns its handle. On failure it returns InvalidHandle and an error
// wrapping ErrAllocation.
func (u *Uploader) Allocate(width, height int, format PixelFormat, mip bool) (Handle, error) {
	if err := validateDimensions(width, height, format); err != nil {
		return InvalidHandle, err
	}
	return u.register(width, height, format, mip, false, func() (NativeRef, error) {
		return u.backend.CreateCacheTexture(width, height, format, mip)
	})
}

// AllocateFromExisting registers an existing backend texture for
// progressive update in place. The caller keeps ownership of existing.
func (u *Uploader) AllocateFromExisting(existing any, width, height int, format PixelFormat) (Handle, error) {
	if existing == nil {
		return InvalidHandle, fmt.Errorf("%w: nil existing texture", ErrAllocation)
	}
	if err := validateDimensions(width, height, format); err != nil {
		return InvalidHandle, err
	}
	return u.register(width, height, format, false, true, func() (NativeRef, error) {
		return u.backend.CreateCacheTextureFromExisting(existing, width, height, format)
	})
}

func validateDimensions(width, height int, format PixelFormat) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrAllocation, width, height)
	}
	if !format.Valid() {
		return fmt.Errorf("%w: unsupported format %s", ErrAllocation, format)
	}
	return nil
}

func (u *Uploader) register(width, height int, format PixelFormat, mip, wrapped bool, create func() (NativeRef, error)) (Handle, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return InvalidHandle, ErrClosed
	}

	slot := -1
	for i, c := range u.slots {
		if c == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		return InvalidHandle, fmt.Errorf("%w: no free caches (capacity %d)", ErrAllocation, len(u.slots))
	}

	ref, err := create()
	if err != nil {
		return InvalidHandle, fmt.Errorf("%w: %dx%d %s: %w", ErrAllocation, width, height, format, err)
	}
	if ref == NullRef {
		return InvalidHandle, fmt.Errorf("%w: backend returned a null reference", ErrAllocation)
	}

	h := Handle(slot)
	u.slots[slot] = &cache{
		handle:      h,
		width:       width,
		height:      height,
		format:      format,
		mip:         mip,
		wrapped:     wrapped,
		ref:         ref,
		rowsPerTick: height,
		state:       StateIdle,
	}
	u.refs[ref] = h
	u.live++

	Logger().Info("texstream: cache allocated",
		"handle", h, "width", width, "height", height, "format", format, "mip", mip, "wrapped", wrapped)
	return h, nil
}

// Release frees a cache. It first destroys the materialized texture, then
// drops any frame-boundary binding, and only then frees backend storage,
// so no queued tick can reach freed state.
//
// Releasing an already released handle, or InvalidHandle, is a no-op.
func (u *Uploader) Release(h Handle) error {
	if h < 0 {
		return nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if int(h) >= len(u.slots) {
		return u.notFound(h)
	}
	c := u.slots[h]
	if c == nil {
		return nil
	}
	u.releaseLocked(c)
	return nil
}

// releaseLocked tears a cache down. Caller must hold mu for writing.
func (u *Uploader) releaseLocked(c *cache) {
	if c.texture != nil {
		c.texture.destroyed.Store(true)
		u.detachLocked(c.texture)
	}
	u.gate.unbind(c)

	delete(u.refs, c.ref)
	u.backend.DestroyCache(c.ref)

	c.stage = nil
	u.slots[c.handle] = nil
	u.live--

	Logger().Info("texstream: cache released",
		"handle", c.handle, "rows_written", c.rowsWritten, "rows", c.height, "state", c.state)
}

// Close releases every live cache. Later allocations fail with ErrClosed;
// Close itself is idempotent.
func (u *Uploader) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return
	}
	for _, c := range u.slots {
		if c != nil {
			u.releaseLocked(c)
		}
	}
	u.closed = true
}

// Stats returns a snapshot of registry occupancy.
func (u *Uploader) Stats() Stats {
	u.mu.RLock()
	defer u.mu.RUnlock()

	s := Stats{Live: u.live, Capacity: len(u.slots)}
	for _, c := range u.slots {
		if c == nil {
			continue
		}
		if c.binding != nil {
			s.Bound++
		}
		if c.texture != nil {
			s.Materialized++
		}
	}
	return s
}

// lookupLocked returns the cache for h. Caller must hold mu.
func (u *Uploader) lookupLocked(h Handle) (*cache, error) {
	if h < 0 || int(h) >= len(u.slots) || u.slots[h] == nil {
		return nil, u.notFound(h)
	}
	return u.slots[h], nil
}

// notFound builds the ErrNotFound result for h, panicking in debug mode.
func (u *Uploader) notFound(h Handle) error {
	err := fmt.Errorf("%w: handle %d", ErrNotFound, h)
	if u.opts.debug {
		panic(err)
	}
	return err
}

// guardedEntry is the entry point handed to issuers. It reaches the
// backend only while ref belongs to a live cache, and holds the read lock
// for the duration of the copy so Release cannot free storage under it.
func (u *Uploader) guardedEntry(ref NativeRef) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if _, ok := u.refs[ref]; !ok {
		Logger().Warn("texstream: dropping copy for released cache", "ref", ref)
		return
	}
	u.entry(ref)
}
