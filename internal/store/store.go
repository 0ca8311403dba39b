// Package store keeps the in-memory draft sessions. Drafts live here for
// exactly as long as they are being built; a submitted or discarded draft
// leaves no trace. This is the gateway's only state.
package store

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/fakturo/fakturo-api/internal/draft"
)

// ErrNotFound is returned when no draft exists under the given id.
var ErrNotFound = errors.New("draft not found")

type session struct {
	mu sync.Mutex
	d  *draft.Draft
}

// DraftStore holds the active draft sessions keyed by draft id. Each draft
// carries its own lock, so a slow operation on one draft never blocks
// another.
type DraftStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewDraftStore creates an empty store.
func NewDraftStore() *DraftStore {
	return &DraftStore{sessions: make(map[string]*session)}
}

// Create opens a new draft session and returns the draft.
func (s *DraftStore) Create() *draft.Draft {
	d := draft.New(uuid.NewString())
	s.mu.Lock()
	s.sessions[d.ID] = &session{d: d}
	s.mu.Unlock()
	return d
}

// Delete discards the draft session. Deleting an absent id is a no-op.
func (s *DraftStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Exists reports whether a draft session is open under the given id.
func (s *DraftStore) Exists(id string) bool {
	s.mu.RLock()
	_, ok := s.sessions[id]
	s.mu.RUnlock()
	return ok
}

// With runs fn while holding the draft's lock. Every access to a stored
// draft goes through here; together with the draft's Submitting state this
// enforces the single-flight submit rule.
func (s *DraftStore) With(id string, fn func(d *draft.Draft) error) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.d)
}
