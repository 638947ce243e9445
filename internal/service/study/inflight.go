package study

import (
	"sync"

	"github.com/google/uuid"
)

// inflight tracks sessions with a grade being processed.
type inflight struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]struct{}
}

func newInflight() *inflight {
	return &inflight{sessions: make(map[uuid.UUID]struct{})}
}

func (f *inflight) tryAcquire(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.sessions[id]; busy {
		return false
	}
	f.sessions[id] = struct{}{}
	return true
}

func (f *inflight) release(id uuid.UUID) {
	f.mu.Lock()
	delete(f.sessions, id)
	f.mu.Unlock()
}

func (f *inflight) busy(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.sessions[id]
	return busy
}
