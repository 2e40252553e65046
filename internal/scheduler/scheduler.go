// Package scheduler runs the periodic riddle regeneration sweep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vnishchay/reasoning-game/internal/riddle"
)

// DefaultSchedule fires once a day at midnight.
const DefaultSchedule = "0 0 * * *"

// Sweeper regenerates all riddles.
type Sweeper interface {
	RegenerateAll(ctx context.Context) (riddle.SweepResult, error)
}

// Config controls when sweeps run.
type Config struct {
	Schedule string
	Timezone string
	// RunOnStart triggers one sweep immediately after the worker starts.
	RunOnStart bool
}

// Worker owns the cron scheduler driving sweeps.
type Worker struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  *slog.Logger
	wg      sync.WaitGroup
	done    chan struct{}
}

// StartSweepWorker schedules sweeper according to cfg and stops when ctx is cancelled.
// Overlapping firings are skipped while a sweep is still running.
func StartSweepWorker(ctx context.Context, cfg Config, sweeper Sweeper, logger *slog.Logger) (*Worker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}

	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load sweep timezone %q: %w", cfg.Timezone, err)
		}
	}

	cl := cronLogger{logger: logger}
	w := &Worker{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper: sweeper,
		logger:  logger,
		done:    make(chan struct{}),
	}

	if _, err := w.cron.AddFunc(cfg.Schedule, func() { w.runSweep(ctx, "schedule") }); err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", cfg.Schedule, err)
	}

	w.cron.Start()
	logger.Info("Sweep worker started", "schedule", cfg.Schedule, "timezone", loc.String())

	if cfg.RunOnStart {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runSweep(ctx, "startup")
		}()
	}

	go func() {
		defer close(w.done)
		<-ctx.Done()
		logger.Info("Sweep worker shutting down", "reason", ctx.Err())
		<-w.cron.Stop().Done()
		w.wg.Wait()
	}()

	return w, nil
}

// Done is closed once the worker has stopped and any in-flight sweep has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Next reports the next scheduled sweep time.
func (w *Worker) Next() time.Time {
	entries := w.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (w *Worker) runSweep(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	res, err := w.sweeper.RegenerateAll(ctx)
	switch {
	case errors.Is(err, riddle.ErrSweepInProgress):
		w.logger.Info("Sweep skipped, another sweep is running", "trigger", trigger)
	case err != nil:
		w.logger.Warn("Sweep ended early", "trigger", trigger, "sweep_id", res.ID, "stored", res.Stored, "error", err)
	default:
		w.logger.Info("Sweep finished",
			"trigger", trigger,
			"sweep_id", res.ID,
			"stored", res.Stored,
			"failed_levels", res.FailedLevels)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
