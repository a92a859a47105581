package texstream

import (
	"fmt"
	"sync/atomic"
)

// Texture is the caller-facing object for a cache's backend texture.
//
// Rendering may read the texture while later ticks keep writing rows
// through the same backend storage. The scheduler only guarantees that
// ticks are issued in order and never overlap; it is up to the backend
// that writes to not-yet-consumed rows do not race with reads of rows
// already written. Sample a texture that is still uploading only where
// partial content is acceptable.
type Texture struct {
	uploader *Uploader
	handle   Handle
	width    int
	height   int
	format   PixelFormat
	mip      MipPolicy
	filter   FilterPolicy

	native  any
	wrapped bool

	destroyed atomic.Bool
}

// Materialize returns the caller-facing texture for a cache, creating it
// on first use. Later calls return the same *Texture regardless of the
// policies passed. Upload completion is not required, so partially written
// textures can be previewed.
//
// It returns ErrNotReady when the backend has no texture for the cache
// yet, and ErrTextureDestroyed once the caller destroyed the texture.
func (u *Uploader) Materialize(h Handle, mip MipPolicy, filter FilterPolicy) (*Texture, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	c, err := u.lookupLocked(h)
	if err != nil {
		return nil, err
	}
	if c.texture != nil {
		return c.texture, nil
	}
	if c.materialized {
		return nil, fmt.Errorf("%w: handle %d", ErrTextureDestroyed, h)
	}

	native := u.backend.BackendTextureHandle(c.ref)
	if native == nil {
		return nil, fmt.Errorf("%w: handle %d has no backend texture", ErrNotReady, h)
	}

	wrapped := false
	if w, ok := u.backend.(TextureWrapper); ok {
		native, err = w.WrapTexture(c.ref, MaterializeOptions{
			Mip:    mip,
			Filter: filter,
			Label:  fmt.Sprintf("texstream_cache_%d", h),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: handle %d: %w", ErrNotReady, h, err)
		}
		wrapped = true
	}

	t := &Texture{
		uploader: u,
		handle:   h,
		width:    c.width,
		height:   c.height,
		format:   c.format,
		mip:      mip,
		filter:   filter,
		native:   native,
		wrapped:  wrapped,
	}
	c.texture = t
	c.materialized = true

	Logger().Info("texstream: texture materialized", "handle", h, "wrapped", wrapped)
	return t, nil
}

// detachLocked drops t from its cache and destroys any wrapper object.
// Caller must hold mu for writing.
func (u *Uploader) detachLocked(t *Texture) {
	if t.wrapped {
		if w, ok := u.backend.(TextureWrapper); ok {
			w.UnwrapTexture(t.native)
		}
	}
	if int(t.handle) < len(u.slots) {
		if c := u.slots[t.handle]; c != nil && c.texture == t {
			c.texture = nil
		}
	}
	t.native = nil
}

// Native returns the backend object: a *software.Texture, a hal.Texture,
// or whatever the backend's TextureWrapper built. It returns nil after
// Destroy.
func (t *Texture) Native() any {
	if t.destroyed.Load() {
		return nil
	}
	t.uploader.mu.RLock()
	defer t.uploader.mu.RUnlock()
	return t.native
}

// Handle returns the cache the texture belongs to.
func (t *Texture) Handle() Handle { return t.handle }

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Format returns the pixel format.
func (t *Texture) Format() PixelFormat { return t.format }

// MipPolicy returns the mip policy the texture was created with.
func (t *Texture) MipPolicy() MipPolicy { return t.mip }

// FilterPolicy returns the filter policy the texture was created with.
func (t *Texture) FilterPolicy() FilterPolicy { return t.filter }

// IsDestroyed reports whether Destroy ran or the cache was released.
func (t *Texture) IsDestroyed() bool { return t.destroyed.Load() }

// Destroy detaches the texture from its cache. The cache keeps uploading
// into backend storage but cannot be materialized again.
// Destroy is idempotent; Release calls it implicitly.
func (t *Texture) Destroy() {
	if t.destroyed.Swap(true) {
		return
	}
	t.uploader.mu.Lock()
	defer t.uploader.mu.Unlock()
	t.uploader.detachLocked(t)
}

// String returns a string representation of the texture.
func (t *Texture) String() string {
	status := "live"
	if t.destroyed.Load() {
		status = "destroyed"
	}
	return fmt.Sprintf("Texture[cache %d %dx%d %s %s]", t.handle, t.width, t.height, t.format, status)
}
