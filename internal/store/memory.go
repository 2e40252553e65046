package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vnishchay/reasoning-game/internal/domain"
)

// MemoryStore keeps riddles in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	riddles map[int]domain.Riddle
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{riddles: make(map[int]domain.Riddle)}
}

// Get returns the riddle stored for level.
func (s *MemoryStore) Get(_ context.Context, level int) (domain.Riddle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.riddles[level]
	if !ok {
		return domain.Riddle{}, fmt.Errorf("level %d: %w", level, ErrNotFound)
	}
	return r.Clone(), nil
}

// Put replaces the riddle for r.Level.
func (s *MemoryStore) Put(_ context.Context, r domain.Riddle) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("put riddle: %w", err)
	}
	r = r.Clone()
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.riddles[r.Level] = r
	return nil
}

// List returns all stored riddles ordered by level.
func (s *MemoryStore) List(_ context.Context) ([]domain.Riddle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Riddle, 0, len(s.riddles))
	for _, r := range s.riddles {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
