package texstream

// NativeRef is an opaque reference to backend texture storage.
// The zero value is the null reference. Backends never reuse a ref
// after DestroyCache.
type NativeRef uint64

// NullRef is the null backend reference.
const NullRef NativeRef = 0

// EntryPoint performs the pending memory transfer for ref. It is what a
// render thread runs when an issued copy event reaches it.
type EntryPoint func(ref NativeRef)

// Backend is the capability interface the scheduler consumes from the
// graphics layer. Implementations live in backend/software and
// backend/native.
//
// Resource lifecycle:
//   - Storage is created via CreateCacheTexture or CreateCacheTextureFromExisting
//   - Storage must be explicitly destroyed via DestroyCache
//   - Refs become invalid after destruction and are never reused
//
// Implementations must be safe for concurrent use: the entry point returned
// by CopyEntryPoint may run on a render goroutine while other methods are
// called from the update goroutine.
type Backend interface {
	// CreateCacheTexture creates storage for a new width x height texture.
	CreateCacheTexture(width, height int, format PixelFormat, mip bool) (NativeRef, error)

	// CreateCacheTextureFromExisting wraps an existing texture for
	// in-place update. The caller keeps ownership of existing;
	// DestroyCache releases only the wrapper.
	CreateCacheTextureFromExisting(existing any, width, height int, format PixelFormat) (NativeRef, error)

	// DestroyCache frees storage created for ref.
	DestroyCache(ref NativeRef)

	// SubmitRowRange records rows [rowStart, rowStart+rowCount) of data as
	// the next transfer for ref. data is the full image and is held as a
	// view until the transfer ran. A range starting at row 0 begins a new
	// image and resets the rows-written counter.
	SubmitRowRange(ref NativeRef, data []byte, rowStart, rowCount int) error

	// QueryRowsWritten returns how many rows of the current image reached
	// texture storage. Negative values are backend error codes.
	QueryRowsWritten(ref NativeRef) int

	// BackendTextureHandle returns the native texture object for ref, or
	// nil when the backend has none.
	BackendTextureHandle(ref NativeRef) any

	// CopyEntryPoint returns the function that performs the recorded
	// transfer. The scheduler hands it to an Issuer.
	CopyEntryPoint() EntryPoint
}

// MipPolicy selects which mip levels a materialized texture exposes.
type MipPolicy uint8

const (
	// MipBase exposes only the base level.
	MipBase MipPolicy = iota

	// MipAll exposes every level allocated for the cache.
	MipAll
)

// FilterPolicy selects the sampling filter of a materialized texture.
type FilterPolicy uint8

const (
	// FilterNearest samples the nearest texel.
	FilterNearest FilterPolicy = iota

	// FilterLinear interpolates between texels.
	FilterLinear
)

// MaterializeOptions are passed to a TextureWrapper.
type MaterializeOptions struct {
	Mip    MipPolicy
	Filter FilterPolicy
	Label  string
}

// TextureWrapper is implemented by backends that build a dedicated
// caller-facing object (view, sampler) for a materialized texture instead
// of exposing BackendTextureHandle directly.
type TextureWrapper interface {
	// WrapTexture builds the caller-facing object for ref.
	WrapTexture(ref NativeRef, opts MaterializeOptions) (any, error)

	// UnwrapTexture destroys an object returned by WrapTexture.
	UnwrapTexture(wrapped any)
}
