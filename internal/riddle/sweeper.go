package riddle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vnishchay/reasoning-game/internal/domain"
	"github.com/vnishchay/reasoning-game/internal/store"
)

// RiddleGenerator produces a riddle for a level.
type RiddleGenerator interface {
	Generate(ctx context.Context, level int) (domain.Riddle, error)
}

// Sweep event types.
const (
	EventSweepStarted  = "sweep_started"
	EventLevelStored   = "level_stored"
	EventLevelFailed   = "level_failed"
	EventSweepFinished = "sweep_finished"
)

// SweepEvent reports progress of a regeneration sweep.
type SweepEvent struct {
	Type    string    `json:"type"`
	SweepID string    `json:"sweep_id"`
	Level   int       `json:"level,omitempty"`
	Stored  int       `json:"stored"`
	Failed  int       `json:"failed"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// SweepObserver receives sweep progress. Implementations must not block.
type SweepObserver interface {
	OnSweepEvent(SweepEvent)
}

// SweepResult summarizes a finished sweep.
type SweepResult struct {
	ID           string
	Stored       int
	FailedLevels []int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Sweeper regenerates every level's riddle.
type Sweeper struct {
	gen      RiddleGenerator
	repo     store.Repository
	observer SweepObserver
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewSweeper creates a Sweeper. observer may be nil.
func NewSweeper(gen RiddleGenerator, repo store.Repository, observer SweepObserver, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{gen: gen, repo: repo, observer: observer, logger: logger}
}

// RegenerateAll walks levels 1..49 in order, generating and storing each riddle.
// A failed level is logged and skipped. Only one sweep runs at a time; a concurrent
// call returns ErrSweepInProgress. Cancelling ctx stops the sweep between levels.
func (s *Sweeper) RegenerateAll(ctx context.Context) (SweepResult, error) {
	if !s.mu.TryLock() {
		return SweepResult{}, ErrSweepInProgress
	}
	defer s.mu.Unlock()

	res := SweepResult{ID: uuid.NewString(), StartedAt: time.Now()}
	log := s.logger.With("sweep_id", res.ID)
	log.Info("Generating riddles for all levels", "levels", domain.MaxLevel)
	s.emit(SweepEvent{Type: EventSweepStarted, SweepID: res.ID})

	for level := domain.MinLevel; level <= domain.MaxLevel; level++ {
		if err := ctx.Err(); err != nil {
			log.Warn("Sweep cancelled", "next_level", level, "error", err)
			res.FinishedAt = time.Now()
			s.emit(SweepEvent{Type: EventSweepFinished, SweepID: res.ID, Stored: res.Stored, Failed: len(res.FailedLevels), Error: err.Error()})
			return res, err
		}

		r, err := s.gen.Generate(ctx, level)
		if err == nil {
			err = s.repo.Put(ctx, r)
		}
		if err != nil {
			res.FailedLevels = append(res.FailedLevels, level)
			log.Warn("Failed to generate riddle for level", "level", level, "error", err)
			s.emit(SweepEvent{Type: EventLevelFailed, SweepID: res.ID, Level: level, Stored: res.Stored, Failed: len(res.FailedLevels), Error: err.Error()})
			continue
		}

		res.Stored++
		log.Info("Riddle stored", "level", level)
		s.emit(SweepEvent{Type: EventLevelStored, SweepID: res.ID, Level: level, Stored: res.Stored, Failed: len(res.FailedLevels)})
	}

	res.FinishedAt = time.Now()
	log.Info("Riddle sweep completed",
		"stored", res.Stored,
		"failed", len(res.FailedLevels),
		"duration", res.FinishedAt.Sub(res.StartedAt))
	s.emit(SweepEvent{Type: EventSweepFinished, SweepID: res.ID, Stored: res.Stored, Failed: len(res.FailedLevels)})
	return res, nil
}

// Running reports whether a sweep currently holds the lock.
func (s *Sweeper) Running() bool {
	if s.mu.TryLock() {
		s.mu.Unlock()
		return false
	}
	return true
}

func (s *Sweeper) emit(ev SweepEvent) {
	if s.observer == nil {
		return
	}
	ev.Time = time.Now().UTC()
	s.observer.OnSweepEvent(ev)
}
