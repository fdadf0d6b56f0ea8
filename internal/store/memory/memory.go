package memory

import (
	"context"
	"sync"

	"docsync/internal/store"
)

// Store keeps document content in process memory. Used for tests and
// single-node deployments without an external store.
type Store struct {
	mu   sync.RWMutex
	docs map[string]string
}

func New() *Store {
	return &Store{docs: make(map[string]string)}
}

// Create seeds a document. In production the CRUD system owns creation;
// this exists for wiring up tests and local runs.
func (s *Store) Create(id, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = content
}

func (s *Store) Load(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.docs[id]
	if !ok {
		return "", store.ErrNotFound
	}
	return content, nil
}

func (s *Store) Save(_ context.Context, id string, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return store.ErrNotFound
	}
	s.docs[id] = content
	return nil
}
