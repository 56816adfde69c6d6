// Package memory is the in-process annotation.Store used by the CLI and by
// tests.  It copies lists on the way in and out, so callers can mutate their
// slices freely.
package memory

import (
	"context"
	"sync"

	"github.com/annolens/annolens/internal/domain/annotation"
)

// Store keeps annotation lists keyed by document key.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]*annotation.Annotation
}

// New builds an empty Store.
func New() *Store {
	return &Store{docs: make(map[string][]*annotation.Annotation)}
}

var _ annotation.Store = (*Store)(nil)

// Save replaces the list for key.
func (s *Store) Save(_ context.Context, key string, annotations []*annotation.Annotation) error {
	cp := make([]*annotation.Annotation, len(annotations))
	copy(cp, annotations)
	s.mu.Lock()
	s.docs[key] = cp
	s.mu.Unlock()
	return nil
}

// Load returns the list for key; absent keys yield an empty list.
func (s *Store) Load(_ context.Context, key string) ([]*annotation.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.docs[key]
	cp := make([]*annotation.Annotation, len(stored))
	copy(cp, stored)
	return cp, nil
}

// Delete removes one annotation by id; a missing id is a no-op.
func (s *Store) Delete(_ context.Context, key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.docs[key]
	for i, a := range stored {
		if a.ID == id {
			s.docs[key] = append(stored[:i:i], stored[i+1:]...)
			return nil
		}
	}
	return nil
}

// Clear drops the list for key.
func (s *Store) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.docs, key)
	s.mu.Unlock()
	return nil
}
