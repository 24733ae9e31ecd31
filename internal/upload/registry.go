// Package upload implements cancellable, progress-reporting uploads: a
// registry of per-transfer cancellation flags, a reader adapter that checks
// the flag on every read and coalesces progress events, and an HTTP client
// performing one round trip per queued job.
package upload

import (
	"sync"
	"sync/atomic"
)

// Registry maps upload ids to shared cancellation flags. Map mutations take
// the lock; flag reads and writes are atomic, so the per-chunk cancellation
// check never blocks on the lock.
//
// Flags live purely in process memory and never survive a restart. Callers
// must Remove the id exactly once per transfer, whatever the outcome.
type Registry struct {
	mu    sync.Mutex
	flags map[string]*atomic.Bool
}

func NewRegistry() *Registry {
	return &Registry{flags: make(map[string]*atomic.Bool)}
}

// Register creates a fresh, unset flag for id and returns a shared reference
// to it. A prior flag under the same id is replaced: last registration wins.
func (r *Registry) Register(id string) *atomic.Bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	flag := &atomic.Bool{}
	r.flags[id] = flag
	return flag
}

// Cancel sets the flag for id if one is registered and reports whether an
// active flag was found. A set flag is never reset.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	flag, ok := r.flags[id]
	if !ok {
		return false
	}
	flag.Store(true)
	return true
}

// Remove evicts the entry for id unconditionally. Removing an unknown id is
// a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.flags, id)
}
