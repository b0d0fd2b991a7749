package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds the live guest sessions of one server, keyed by an
// opaque ID. Sessions are held in memory only: a guest session lives
// from load to report and is not persisted.
type Registry struct {
	svc Service
	max int
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ctl     *Controller
	created time.Time
}

// NewRegistry creates a registry capped at max sessions; entries older
// than ttl are evicted when room is needed. A max of zero or less
// means uncapped.
func NewRegistry(svc Service, max int, ttl time.Duration) *Registry {
	return &Registry{
		svc:     svc,
		max:     max,
		ttl:     ttl,
		entries: make(map[string]*entry),
	}
}

// Create registers a fresh controller and returns its ID.
func (r *Registry) Create() (string, *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked()

	id := uuid.NewString()
	ctl := New(r.svc)
	r.entries[id] = &entry{ctl: ctl, created: time.Now()}
	return id, ctl
}

// Get returns the controller for an ID, or false if it is unknown or
// already evicted.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.ctl, true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// evictLocked drops expired entries, then the oldest ones while the
// registry is at capacity.
func (r *Registry) evictLocked() {
	cutoff := time.Now().Add(-r.ttl)
	for id, e := range r.entries {
		if e.created.Before(cutoff) {
			delete(r.entries, id)
		}
	}
	for r.max > 0 && len(r.entries) >= r.max {
		var oldestID string
		var oldest time.Time
		for id, e := range r.entries {
			if oldestID == "" || e.created.Before(oldest) {
				oldestID = id
				oldest = e.created
			}
		}
		delete(r.entries, oldestID)
	}
}
