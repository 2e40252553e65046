// Reasoning game riddle server
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/vnishchay/reasoning-game/internal/api"
	"github.com/vnishchay/reasoning-game/internal/config"
	"github.com/vnishchay/reasoning-game/internal/feed"
	"github.com/vnishchay/reasoning-game/internal/health"
	"github.com/vnishchay/reasoning-game/internal/llm"
	"github.com/vnishchay/reasoning-game/internal/middleware"
	"github.com/vnishchay/reasoning-game/internal/riddle"
	"github.com/vnishchay/reasoning-game/internal/scheduler"
	"github.com/vnishchay/reasoning-game/internal/store"
	"golang.org/x/sync/errgroup"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped successfully")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	slog.Info("Starting server",
		"port", cfg.Port,
		"dev", cfg.IsDevelopment(),
		"store", cfg.Store.Driver,
		"llm_provider", cfg.LLM.Provider)

	repo, err := store.Open(store.Options{
		Driver:        cfg.Store.Driver,
		DBPath:        cfg.Store.DBPath,
		SupabaseURL:   cfg.Store.SupabaseURL,
		SupabaseKey:   cfg.Store.SupabaseKey,
		SupabaseTable: cfg.Store.SupabaseTable,
	})
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("store health check: %w", err)
	}
	slog.Info("Store connected", "driver", cfg.Store.Driver)

	completer, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		return fmt.Errorf("initialize LLM client: %w", err)
	}
	if closer, ok := completer.(io.Closer); ok {
		defer func() {
			if closeErr := closer.Close(); closeErr != nil {
				slog.Debug("Failed to close LLM client", "error", closeErr)
			}
		}()
	}

	// Initialize services.
	gen := riddle.NewGenerator(completer, logger)
	judge := riddle.NewJudge(completer, logger)
	svc := riddle.NewService(repo, gen, judge, logger)

	if cfg.SeedRiddles {
		seeded, err := svc.Seed(ctx, riddle.SeedRiddles())
		if err != nil {
			return fmt.Errorf("seed riddles: %w", err)
		}
		slog.Info("Seed riddles loaded", "stored", seeded)
	}

	hub := feed.NewHub(logger)
	sweeper := riddle.NewSweeper(gen, repo, hub, logger)

	worker, err := scheduler.StartSweepWorker(ctx, scheduler.Config{
		Schedule:   cfg.Sweep.Schedule,
		Timezone:   cfg.Sweep.Timezone,
		RunOnStart: cfg.Sweep.OnStart,
	}, sweeper, logger)
	if err != nil {
		return fmt.Errorf("start sweep worker: %w", err)
	}
	slog.Info("Next riddle sweep scheduled", "at", worker.Next())

	// Setup router.
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	api.NewHealthHandler(repo, cfg.HealthCheckTimeout).RegisterHealth(r)
	api.NewRiddleHandler(svc, logger, middleware.RateLimit(cfg.RateLimitPerMinute)).RegisterRoutes(r)
	api.NewAdminHandler(ctx, sweeper, cfg.AdminToken, logger).RegisterRoutes(r)

	feedOrigin := "*"
	if cfg.FrontendURL != "" {
		feedOrigin = cfg.FrontendURL
	}
	r.Get("/ws/sweeps", feed.NewHandler(hub, feedOrigin, cfg.IsDevelopment()).ServeHTTP)

	// WriteTimeout stays above the LLM timeout so a slow generation can still answer.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.GRPCHealthPort != "" {
		hs := health.NewServer(repo, logger)
		g.Go(func() error {
			return hs.ListenAndServe(ctx, ":"+cfg.GRPCHealthPort)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down gracefully...")

		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		select {
		case <-worker.Done():
		case <-shutdownCtx.Done():
			slog.Warn("Sweep worker did not stop before shutdown deadline")
		}
		return nil
	})

	return g.Wait()
}
