package texstream

import (
	"fmt"

	"github.com/gogpu/texstream/internal/mathutil"
)

// State is the upload state of a cache.
type State uint8

const (
	// StateIdle means no payload has been submitted.
	StateIdle State = iota

	// StateStaged means a payload was submitted but no tick consumed it yet.
	StateStaged

	// StateTicking means at least one tick ran and rows remain.
	StateTicking

	// StateComplete means every row of the payload reached the texture.
	StateComplete

	// StateCorrupt means the backend reported an impossible row count or
	// rejected a row range.
	// The cache must be released and reallocated.
	StateCorrupt
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStaged:
		return "Staged"
	case StateTicking:
		return "Ticking"
	case StateComplete:
		return "Complete"
	case StateCorrupt:
		return "Corrupt"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Tick transfers the next chunk of at most rows-per-tick rows of the
// staged payload. The row range is handed to the backend and its copy
// entry point goes through the Issuer; Tick itself never waits for the GPU.
//
// Ticking a complete cache is a no-op. If the previous tick's copy has not
// been observed by the backend yet, Tick does nothing, so ranges never
// overlap. Ticking a cache without a payload returns ErrNothingStaged.
func (u *Uploader) Tick(h Handle) error {
	ref, err := u.prepareTick(h)
	u.issue(ref)
	return err
}

// prepareTick schedules the next range of h under mu and returns the ref
// to issue once mu is released.
func (u *Uploader) prepareTick(h Handle) (NativeRef, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	c, err := u.lookupLocked(h)
	if err != nil {
		return NullRef, err
	}
	if err := u.observeLocked(c); err != nil {
		return NullRef, err
	}
	if c.state == StateIdle {
		return NullRef, fmt.Errorf("%w: handle %d", ErrNothingStaged, h)
	}
	return u.scheduleLocked(c)
}

// issue hands the guarded entry point for ref to the issuer.
// Must be called without mu held.
func (u *Uploader) issue(ref NativeRef) {
	if ref == NullRef {
		return
	}
	u.opts.issuer(u.guardedEntry, ref)
}

// scheduleLocked records the next row range with the backend and returns
// the ref whose copy must be issued, or NullRef when there is nothing to
// issue. Caller must hold mu and have observed c.
func (u *Uploader) scheduleLocked(c *cache) (NativeRef, error) {
	switch c.state {
	case StateIdle, StateComplete, StateCorrupt:
		return NullRef, nil
	}

	if c.rowsWritten < c.rowsScheduled {
		Logger().Debug("texstream: tick skipped, copy in flight",
			"handle", c.handle, "rows_written", c.rowsWritten, "rows_scheduled", c.rowsScheduled)
		return NullRef, nil
	}

	start := c.rowsScheduled
	count := mathutil.Clamp(c.rowsPerTick, 1, c.height-start)
	if err := u.backend.SubmitRowRange(c.ref, c.stage, start, count); err != nil {
		c.state = StateCorrupt
		return NullRef, fmt.Errorf("%w: handle %d rows [%d,%d): %w", ErrBackend, c.handle, start, start+count, err)
	}
	c.rowsScheduled = start + count
	c.state = StateTicking

	Logger().Debug("texstream: tick",
		"handle", c.handle, "row_start", start, "row_count", count, "rows", c.height)
	return c.ref, nil
}

// observeLocked refreshes rowsWritten from the backend counter.
// Caller must hold mu for writing.
func (u *Uploader) observeLocked(c *cache) error {
	switch c.state {
	case StateCorrupt:
		return fmt.Errorf("%w: handle %d is corrupt", ErrBackend, c.handle)
	case StateTicking:
	default:
		return nil
	}

	n := u.backend.QueryRowsWritten(c.ref)
	if n < 0 {
		c.state = StateCorrupt
		return fmt.Errorf("%w: handle %d reported %d rows written", ErrBackend, c.handle, n)
	}

	// The counter is monotonic for one payload and cannot pass the rows
	// handed to the backend so far.
	c.rowsWritten = mathutil.Clamp(n, c.rowsWritten, c.rowsScheduled)
	if c.rowsWritten == c.height {
		c.state = StateComplete
		c.stage = nil
		Logger().Debug("texstream: upload complete", "handle", c.handle, "rows", c.height)
	}
	return nil
}

// Progress returns rows written over total rows, in [0, 1].
// A negative row count from the backend yields an ErrBackend error and
// marks the cache corrupt.
func (u *Uploader) Progress(h Handle) (float64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	c, err := u.lookupLocked(h)
	if err != nil {
		return 0, err
	}
	if err := u.observeLocked(c); err != nil {
		return 0, err
	}
	return mathutil.Fraction(c.rowsWritten, c.height), nil
}

// IsComplete reports whether every row of the current payload was
// written. It never schedules work.
func (u *Uploader) IsComplete(h Handle) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	c, err := u.lookupLocked(h)
	if err != nil {
		return false, err
	}
	if err := u.observeLocked(c); err != nil {
		return false, err
	}
	return c.state == StateComplete, nil
}

// HasFinished reports whether every row of the current payload was
// written. Unlike IsComplete it may also drive the upload: when the cache
// is unfinished, has no frame-boundary binding, and poll driving is enabled
// (the default), it issues the next tick before returning. The returned
// value reflects the state observed before that tick.
func (u *Uploader) HasFinished(h Handle) (bool, error) {
	done, ref, err := u.preparePoll(h)
	u.issue(ref)
	return done, err
}

// preparePoll observes h under mu and, when poll driving applies, schedules
// the next range. The returned ref is issued once mu is released.
func (u *Uploader) preparePoll(h Handle) (bool, NativeRef, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	c, err := u.lookupLocked(h)
	if err != nil {
		return false, NullRef, err
	}
	if err := u.observeLocked(c); err != nil {
		return false, NullRef, err
	}

	done := c.state == StateComplete
	if done || !u.opts.pollDriving || c.binding != nil {
		return done, NullRef, nil
	}
	ref, err := u.scheduleLocked(c)
	return false, ref, err
}

// SetRowsPerTick sets how many rows one tick transfers. Values below 1
// are raised to 1. The default transfers the whole image in one tick.
func (u *Uploader) SetRowsPerTick(h Handle, rows int) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	c, err := u.lookupLocked(h)
	if err != nil {
		return err
	}
	c.rowsPerTick = max(rows, 1)
	return nil
}

// RowsWritten returns how many rows of the current payload were written.
func (u *Uploader) RowsWritten(h Handle) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	c, err := u.lookupLocked(h)
	if err != nil {
		return 0, err
	}
	if err := u.observeLocked(c); err != nil {
		return c.rowsWritten, err
	}
	return c.rowsWritten, nil
}

// State returns the upload state of a cache.
func (u *Uploader) State(h Handle) (State, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	c, err := u.lookupLocked(h)
	if err != nil {
		return StateIdle, err
	}
	if err := u.observeLocked(c); err != nil {
		return c.state, err
	}
	return c.state, nil
}
