package state

import (
	"context"
	"sync"

	"maestro/pkg/exception"
)

// MemoryStore keeps one state document in process memory. It backs the
// chaos drill and tests, with optional write failure injection.
type MemoryStore struct {
	mu      sync.Mutex
	doc     SystemState
	exists  bool
	failErr error
	applies uint64
	closed  bool
}

// NewMemoryStore creates an empty in-memory store for the given system.
func NewMemoryStore(systemID string) *MemoryStore {
	return &MemoryStore{doc: SystemState{SystemID: systemID}}
}

// FailWith forces subsequent Apply calls to fail with err. Pass nil to
// restore normal writes.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// Apply merges the patch into the in-memory document.
func (s *MemoryStore) Apply(ctx context.Context, patch Patch) UpdateResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return UpdateResult{Err: exception.ErrStoreClosed}
	}
	if s.failErr != nil {
		return UpdateResult{Err: s.failErr}
	}
	merge(&s.doc, patch)
	s.exists = true
	s.applies++
	return UpdateResult{Applied: true}
}

// Load returns the stored document.
func (s *MemoryStore) Load(ctx context.Context) (SystemState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return SystemState{}, exception.ErrStoreClosed
	}
	if !s.exists {
		return SystemState{}, exception.ErrStateNotFound
	}
	return s.doc, nil
}

// Close marks the store closed. Later calls fail with ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// State returns the current document regardless of existence.
func (s *MemoryStore) State() SystemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Applies returns how many writes were accepted.
func (s *MemoryStore) Applies() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applies
}
