package texstream

import "sync"

// Issuer hands a copy entry point to whatever executes graphics work.
// It models the "issue a plugin event on this frame" primitive of engine
// integrations: the entry may run inline, or later on a render goroutine.
//
// Issuers are always called without any Uploader lock held.
type Issuer func(entry EntryPoint, ref NativeRef)

// ImmediateIssuer runs the entry point inline.
func ImmediateIssuer(entry EntryPoint, ref NativeRef) {
	entry(ref)
}

// QueueIssuer collects issued copies until Flush runs them, typically once
// per frame on the render goroutine.
//
// QueueIssuer is safe for concurrent use.
type QueueIssuer struct {
	mu      sync.Mutex
	pending []issued
}

type issued struct {
	entry EntryPoint
	ref   NativeRef
}

// Issue records the entry point. Pass q.Issue to WithIssuer.
func (q *QueueIssuer) Issue(entry EntryPoint, ref NativeRef) {
	q.mu.Lock()
	q.pending = append(q.pending, issued{entry: entry, ref: ref})
	q.mu.Unlock()
}

// Len returns the number of copies waiting for Flush.
func (q *QueueIssuer) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush runs every pending copy in issue order and returns how many ran.
// Copies issued while Flush runs wait for the next Flush.
func (q *QueueIssuer) Flush() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, it := range batch {
		it.entry(it.ref)
	}
	return len(batch)
}
