package state

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry keeps one Store per browser session and drops idle ones.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time

	// Verbose logs every commit of every session.
	Verbose bool
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

// NewRegistry creates a Registry whose sessions expire after ttl of inactivity.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create starts a new session and returns its id and store.
func (r *Registry) Create() (string, *Store) {
	id := uuid.New().String()
	store := NewStore()
	store.id = id
	store.verbose = r.Verbose

	r.mu.Lock()
	r.entries[id] = &entry{store: store, lastSeen: r.now()}
	r.mu.Unlock()
	return id, store
}

// Get returns the store for id and marks the session as active.
func (r *Registry) Get(id string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.store, true
}

// Delete ends a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes sessions idle for longer than the ttl and returns how many
// were removed. Sessions with subscribers are never idle.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.entries {
		// An open WebSocket keeps its session alive.
		if e.store.subscribers() > 0 {
			e.lastSeen = now
			continue
		}
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				log.Printf("state: expired %d idle sessions", n)
			}
		}
	}
}
