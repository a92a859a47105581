// Package budget tracks texture memory against a fixed byte budget.
//
// Backends reserve the size of each cache texture when it is created and
// release it when the cache is destroyed. Nothing is evicted: caches are
// owned by their callers, so an allocation that does not fit fails.
package budget

import (
	"errors"
	"fmt"
	"sync"
)

// Budget errors.
var (
	// ErrBudgetExceeded is returned when a reservation would exceed the budget.
	ErrBudgetExceeded = errors.New("budget: memory budget exceeded")

	// ErrClosed is returned when reserving on a closed manager.
	ErrClosed = errors.New("budget: manager closed")

	// ErrDuplicate is returned when an id is reserved twice.
	ErrDuplicate = errors.New("budget: id already reserved")
)

// Default limits.
const (
	// DefaultMaxMemoryMB is the default budget (256 MB).
	DefaultMaxMemoryMB = 256

	// MinMemoryMB is the smallest budget accepted (1 MB).
	MinMemoryMB = 1
)

// Stats contains memory usage statistics.
type Stats struct {
	// TotalBytes is the budget in bytes.
	TotalBytes uint64

	// UsedBytes is the currently reserved memory in bytes.
	UsedBytes uint64

	// AvailableBytes is the remaining budget.
	AvailableBytes uint64

	// Reservations is the number of live reservations.
	Reservations int

	// Rejected counts reservations refused for lack of budget.
	Rejected uint64

	// Utilization is UsedBytes over TotalBytes, in [0, 1].
	Utilization float64
}

// String returns a human-readable string of memory stats.
func (s Stats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d MB, %d textures, %d rejected]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.TotalBytes/(1024*1024),
		s.Reservations,
		s.Rejected)
}

// Manager accounts reservations keyed by an id chosen by the caller.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	budgetBytes uint64
	usedBytes   uint64
	entries     map[uint64]uint64
	rejected    uint64
	closed      bool
}

// New creates a manager with a budget of megabytes. Values below
// MinMemoryMB select DefaultMaxMemoryMB.
func New(megabytes int) *Manager {
	if megabytes < MinMemoryMB {
		megabytes = DefaultMaxMemoryMB
	}
	//nolint:gosec // G115: megabytes bounded by MinMemoryMB minimum
	return &Manager{
		budgetBytes: uint64(megabytes) * 1024 * 1024,
		entries:     make(map[uint64]uint64),
	}
}

// Reserve accounts size bytes for id.
func (m *Manager) Reserve(id, size uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if _, ok := m.entries[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicate, id)
	}
	if size > m.budgetBytes-m.usedBytes {
		m.rejected++
		return fmt.Errorf("%w: need %d bytes, have %d bytes available",
			ErrBudgetExceeded, size, m.budgetBytes-m.usedBytes)
	}

	m.entries[id] = size
	m.usedBytes += size
	return nil
}

// Release returns the reservation for id. Unknown ids are ignored.
func (m *Manager) Release(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size, ok := m.entries[id]
	if !ok {
		return
	}
	delete(m.entries, id)
	m.usedBytes -= size
}

// Stats returns current memory usage statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var utilization float64
	if m.budgetBytes > 0 {
		utilization = float64(m.usedBytes) / float64(m.budgetBytes)
	}

	return Stats{
		TotalBytes:     m.budgetBytes,
		UsedBytes:      m.usedBytes,
		AvailableBytes: m.budgetBytes - m.usedBytes,
		Reservations:   len(m.entries),
		Rejected:       m.rejected,
		Utilization:    utilization,
	}
}

// Close drops every reservation. Later reservations fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	m.usedBytes = 0
	m.closed = true
}
