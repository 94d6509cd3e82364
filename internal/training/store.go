package training

import (
	"context"
	"sync"
)

// HistoryStore persists training results most-recent-first. Implementations
// never prune.
type HistoryStore interface {
	Prepend(ctx context.Context, result Result) error
	List(ctx context.Context) ([]Result, error)
	Len(ctx context.Context) (int, error)
}

// MemoryStore keeps the history in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	results []Result
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Prepend(_ context.Context, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append([]Result{result}, s.results...)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out, nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results), nil
}
