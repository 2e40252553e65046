// Package store provides riddle persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vnishchay/reasoning-game/internal/domain"
)

// ErrNotFound is returned when no riddle has been stored for a level.
var ErrNotFound = errors.New("riddle not found")

// Repository defines the interface for persisting riddles by level.
//
// Implementations keep at most one authoritative riddle per level: Put replaces
// whatever Get previously returned for that level.
type Repository interface {
	// Get returns the most recently stored riddle for level.
	Get(ctx context.Context, level int) (domain.Riddle, error)

	// Put stores r as the authoritative riddle for r.Level.
	Put(ctx context.Context, r domain.Riddle) error

	// List returns the authoritative riddle of every stored level, ordered by level.
	List(ctx context.Context) ([]domain.Riddle, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverSupabase = "supabase"
)

// Options carries backend-specific settings for Open.
type Options struct {
	Driver        string
	DBPath        string
	SupabaseURL   string
	SupabaseKey   string
	SupabaseTable string
}

// Open builds the repository selected by opts.Driver.
func Open(opts Options) (Repository, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		s, err := NewSQLite(opts.DBPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSupabase:
		s, err := NewSupabase(opts.SupabaseURL, opts.SupabaseKey, opts.SupabaseTable)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
