/*
Package chat contains the presence engine: the session registry, the event router,
the broadcast emitter and the hub that serializes every connection's events.

This file defines the Registry, the authoritative mapping from connection id to user record.
*/
package chat

import (
	"sync"

	"github.com/tealtint-nt/WebRTCSample/internal/app/user"
)

// Patch describes a partial update to a user record. Nil fields are left unchanged.
type Patch struct {
	Position *user.Position
}

// Registry maps connection ids to user records.
// Records exist only between a successful login and the matching disconnect.
// Returned records are copies; the registry never hands out its own storage.
type Registry struct {
	// mu guards records and order.
	mu sync.RWMutex

	records map[string]*user.Record

	// order keeps ids in first-login order for stable snapshots.
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*user.Record),
	}
}

// Create stores rec under id, replacing any existing record for that id.
// The stored id is always the connection id. A replaced record keeps its snapshot slot.
func (r *Registry) Create(id string, rec user.Record) user.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := rec.Clone()
	stored.ID = id

	if _, exists := r.records[id]; !exists {
		r.order = append(r.order, id)
	}
	r.records[id] = &stored

	return stored.Clone()
}

// Update merges patch into the record for id.
// It reports false and changes nothing when id has no record.
func (r *Registry) Update(id string, patch Patch) (user.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return user.Record{}, false
	}

	if patch.Position != nil {
		rec.Position = *patch.Position
	}

	return rec.Clone(), true
}

// Get returns a copy of the record for id.
func (r *Registry) Get(id string) (user.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return user.Record{}, false
	}
	return rec.Clone(), true
}

// Remove deletes the record for id and returns it.
// It reports false when no record existed, which lets callers keep a pre-login disconnect silent.
func (r *Registry) Remove(id string) (user.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return user.Record{}, false
	}

	delete(r.records, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return *rec, true
}

// Snapshot returns copies of every current record in first-login order.
func (r *Registry) Snapshot() []user.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id].Clone())
	}
	return out
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}
