package texstream

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// FrameBoundary names a point in a render frame's lifecycle, such as
// "after the scene was drawn for this camera".
type FrameBoundary string

// BindMode selects how long a frame-boundary binding lives.
type BindMode uint8

const (
	// BindOnce fires on the next matching boundary and is then removed.
	BindOnce BindMode = iota

	// BindPersistent fires on every matching boundary until unbound or
	// the cache is released.
	BindPersistent
)

type binding struct {
	token FrameBoundary
	mode  BindMode
}

// frameGate indexes bindings by boundary token. Guarded by Uploader.mu.
type frameGate struct {
	subs map[FrameBoundary]map[Handle]struct{}
}

func newFrameGate() frameGate {
	return frameGate{subs: make(map[FrameBoundary]map[Handle]struct{})}
}

func (g *frameGate) bind(c *cache, token FrameBoundary, mode BindMode) {
	g.unbind(c)
	set := g.subs[token]
	if set == nil {
		set = make(map[Handle]struct{})
		g.subs[token] = set
	}
	set[c.handle] = struct{}{}
	c.binding = &binding{token: token, mode: mode}
}

func (g *frameGate) unbind(c *cache) {
	if c.binding == nil {
		return
	}
	if set := g.subs[c.binding.token]; set != nil {
		delete(set, c.handle)
		if len(set) == 0 {
			delete(g.subs, c.binding.token)
		}
	}
	c.binding = nil
}

// subscribers returns the handles bound to token in ascending order.
func (g *frameGate) subscribers(token FrameBoundary) []Handle {
	set := g.subs[token]
	hs := make([]Handle, 0, len(set))
	for h := range set {
		hs = append(hs, h)
	}
	slices.Sort(hs)
	return hs
}

// BindFrameBoundary makes every ReachFrameBoundary(token) tick the cache.
// A cache has at most one binding; binding again replaces it. Bound caches
// are not driven by HasFinished.
func (u *Uploader) BindFrameBoundary(h Handle, token FrameBoundary, mode BindMode) error {
	if token == "" {
		return fmt.Errorf("%w: empty frame boundary", ErrUsage)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	c, err := u.lookupLocked(h)
	if err != nil {
		return err
	}
	u.gate.bind(c, token, mode)
	Logger().Debug("texstream: frame boundary bound", "handle", h, "boundary", token, "mode", mode)
	return nil
}

// UnbindFrameBoundary removes the cache's binding, if any.
func (u *Uploader) UnbindFrameBoundary(h Handle) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	c, err := u.lookupLocked(h)
	if err != nil {
		return err
	}
	u.gate.unbind(c)
	return nil
}

// ReachFrameBoundary signals that the render frame reached token and ticks
// every cache bound to it. Caches with nothing staged, already complete, or
// waiting for an in-flight copy are skipped; a BindOnce binding survives a
// skip and is consumed by the first boundary that issues a copy or finds
// the cache finished or failed. It returns the number of copies issued;
// tick failures are joined into the error.
func (u *Uploader) ReachFrameBoundary(token FrameBoundary) (int, error) {
	refs, err := u.prepareBoundary(token)
	for _, ref := range refs {
		u.issue(ref)
	}
	return len(refs), err
}

// prepareBoundary schedules every subscriber of token under mu and returns
// the refs to issue once mu is released.
func (u *Uploader) prepareBoundary(token FrameBoundary) ([]NativeRef, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	var (
		refs []NativeRef
		errs []error
	)
	for _, h := range u.gate.subscribers(token) {
		c := u.slots[h]
		if c == nil {
			continue
		}
		ref, err := u.fireLocked(c)
		if ref != NullRef {
			refs = append(refs, ref)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return refs, errors.Join(errs...)
}

// fireLocked ticks one bound cache and consumes a BindOnce binding unless
// the tick was skipped while the cache can still progress.
// Caller must hold mu for writing.
func (u *Uploader) fireLocked(c *cache) (NativeRef, error) {
	ref, err := NullRef, u.observeLocked(c)
	if err == nil {
		ref, err = u.scheduleLocked(c)
	}
	if c.binding.mode == BindOnce && (ref != NullRef || err != nil || c.state == StateComplete) {
		u.gate.unbind(c)
	}
	return ref, err
}

// RunFrameEvents consumes boundary events until events is closed or ctx is
// done, calling ReachFrameBoundary for each. Tick failures are logged and
// do not stop the loop. It returns ctx.Err() when the context ends first.
func (u *Uploader) RunFrameEvents(ctx context.Context, events <-chan FrameBoundary) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case token, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := u.ReachFrameBoundary(token); err != nil {
				Logger().Warn("texstream: frame boundary ticks failed", "boundary", token, "err", err)
			}
		}
	}
}
