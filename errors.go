package texstream

import (
	"errors"
	"fmt"
)

// Errors returned by Uploader operations. Wrapped errors carry the handle
// and the offending values; test for the class with errors.Is.
var (
	// ErrAllocation is returned when backend storage for a cache cannot be
	// created: bad dimensions or format, exhausted GPU memory, or a full
	// registry.
	ErrAllocation = errors.New("texstream: allocation failed")

	// ErrNotFound is returned when a handle was never allocated or has
	// already been released. It indicates a programming error.
	ErrNotFound = errors.New("texstream: cache not found")

	// ErrSizeMismatch is returned when a submitted payload does not match
	// width*height*bytes-per-pixel of the cache.
	ErrSizeMismatch = errors.New("texstream: payload size mismatch")

	// ErrUsage is returned for invalid state transitions.
	ErrUsage = errors.New("texstream: invalid usage")

	// ErrBackend is returned when the backend reports an impossible state.
	// The cache is corrupt and must be released and reallocated.
	ErrBackend = errors.New("texstream: backend error")

	// ErrNotReady is returned by Materialize when the backend has no
	// texture for the cache.
	ErrNotReady = errors.New("texstream: texture not ready")

	// ErrNilBackend is returned by New when no backend is given.
	ErrNilBackend = errors.New("texstream: nil backend")

	// ErrClosed is returned by operations on a closed Uploader.
	ErrClosed = errors.New("texstream: uploader closed")
)

// Usage errors. Each wraps ErrUsage.
var (
	// ErrUploadInProgress is returned by Submit when the previous payload
	// has not been fully consumed.
	ErrUploadInProgress = fmt.Errorf("%w: previous upload still in progress", ErrUsage)

	// ErrNothingStaged is returned by Tick when no payload was submitted.
	ErrNothingStaged = fmt.Errorf("%w: no pixels staged", ErrUsage)

	// ErrCopyUnsupported is returned when copy-on-submit is requested.
	// Payloads are held as views; the caller keeps them unmodified until
	// the upload completes or the cache is released.
	ErrCopyUnsupported = fmt.Errorf("%w: copy-on-submit is not supported", ErrUsage)

	// ErrTextureDestroyed is returned by Materialize after the caller
	// destroyed the cache's texture. A cache materializes at most once.
	ErrTextureDestroyed = fmt.Errorf("%w: materialized texture was destroyed", ErrUsage)
)
