package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vnishchay/reasoning-game/internal/riddle"
)

// AdminTokenHeader carries the shared secret for admin routes.
const AdminTokenHeader = "X-Admin-Token"

// Sweeper runs a full regeneration sweep.
type Sweeper interface {
	RegenerateAll(ctx context.Context) (riddle.SweepResult, error)
	Running() bool
}

// AdminHandler exposes operator endpoints.
type AdminHandler struct {
	sweeper Sweeper
	token   string
	baseCtx context.Context
	logger  *slog.Logger
}

// NewAdminHandler creates an AdminHandler. Sweeps it starts run under baseCtx so they
// outlive the triggering request but stop at shutdown. An empty token disables the routes.
func NewAdminHandler(baseCtx context.Context, sweeper Sweeper, token string, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{sweeper: sweeper, token: token, baseCtx: baseCtx, logger: logger}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireToken)
		r.Post("/regenerate", h.Regenerate)
	})
}

func (h *AdminHandler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(AdminTokenHeader)
		if h.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			h.logger.Warn("Admin request rejected", "path", r.URL.Path, "ip", r.RemoteAddr)
			Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Regenerate starts a background sweep over every level.
func (h *AdminHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	if h.sweeper.Running() {
		Error(w, http.StatusConflict, "regeneration_in_progress")
		return
	}

	go func() {
		res, err := h.sweeper.RegenerateAll(h.baseCtx)
		switch {
		case errors.Is(err, riddle.ErrSweepInProgress):
			h.logger.Info("Manual sweep skipped, another sweep is running")
		case err != nil:
			h.logger.Warn("Manual sweep ended early", "sweep_id", res.ID, "error", err)
		default:
			h.logger.Info("Manual sweep finished", "sweep_id", res.ID, "stored", res.Stored, "failed_levels", res.FailedLevels)
		}
	}()

	JSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
