package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vnishchay/reasoning-game/internal/domain"
	"github.com/vnishchay/reasoning-game/internal/riddle"
)

// Client-facing error messages.
const (
	msgInvalidLevel     = "Level must be between 1 and 49."
	msgRiddleNotFound   = "Riddle not found for this level."
	msgHintsNotFound    = "Hints not found for this level."
	msgValidateRequired = "Level and userAnswer are required."
	msgAskRequired      = "Question and userAnswer are required."
	msgReasoningFailed  = "Failed to get reasoning from AI."
	msgInternal         = "Internal server error."
	msgInvalidBody      = "Invalid JSON body."
)

// RiddleService is the riddle behavior the HTTP layer depends on.
type RiddleService interface {
	Riddle(ctx context.Context, level int) (domain.Riddle, error)
	Hints(ctx context.Context, level int) ([]string, error)
	ValidateAnswer(ctx context.Context, level int, userAnswer string) (riddle.Verdict, error)
	AskAI(ctx context.Context, question, userAnswer string) (riddle.Verdict, error)
	StoredLevels(ctx context.Context) ([]int, error)
}

// RiddleHandler serves the game endpoints.
type RiddleHandler struct {
	svc       RiddleService
	logger    *slog.Logger
	llmLimits []func(http.Handler) http.Handler
}

// NewRiddleHandler creates a RiddleHandler. llmLimits wrap only the routes that call the model.
func NewRiddleHandler(svc RiddleService, logger *slog.Logger, llmLimits ...func(http.Handler) http.Handler) *RiddleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RiddleHandler{svc: svc, logger: logger, llmLimits: llmLimits}
}

// RegisterRoutes registers riddle routes.
func (h *RiddleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/getHints/{level}", h.GetHints)
	r.Get("/riddles", h.ListLevels)

	r.Group(func(r chi.Router) {
		for _, mw := range h.llmLimits {
			r.Use(mw)
		}
		r.Get("/getRiddle/{level}", h.GetRiddle)
		r.Post("/validateAnswer", h.ValidateAnswer)
		r.Post("/askAIForReasoning", h.AskAI)
	})
}

type riddleResponse struct {
	Question string `json:"Question"`
	Answer   string `json:"Answer"`
}

type verdictResponse struct {
	Answer    bool   `json:"Answer"`
	Reasoning string `json:"Reasoning"`
}

type validateRequest struct {
	Level      flexInt `json:"level"`
	UserAnswer string  `json:"userAnswer"`
}

type askRequest struct {
	Question   string `json:"question"`
	UserAnswer string `json:"userAnswer"`
}

// flexInt accepts a JSON number or a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

func levelParam(r *http.Request) (int, bool) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil || !domain.ValidLevel(level) {
		return 0, false
	}
	return level, true
}

// GetRiddle generates, stores and returns a fresh riddle for the level.
func (h *RiddleHandler) GetRiddle(w http.ResponseWriter, r *http.Request) {
	level, ok := levelParam(r)
	if !ok {
		Error(w, http.StatusBadRequest, msgInvalidLevel)
		return
	}

	rd, err := h.svc.Riddle(r.Context(), level)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, riddleResponse{Question: rd.Question, Answer: rd.Answer})
	case errors.Is(err, riddle.ErrInvalidLevel):
		Error(w, http.StatusBadRequest, msgInvalidLevel)
	case errors.Is(err, riddle.ErrGeneration):
		h.logger.Warn("Riddle generation failed", "level", level, "error", err)
		Error(w, http.StatusNotFound, msgRiddleNotFound)
	default:
		h.logger.Error("Failed to get riddle", "level", level, "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
	}
}

// GetHints returns the stored hints for the level.
func (h *RiddleHandler) GetHints(w http.ResponseWriter, r *http.Request) {
	level, ok := levelParam(r)
	if !ok {
		Error(w, http.StatusBadRequest, msgInvalidLevel)
		return
	}

	hints, err := h.svc.Hints(r.Context(), level)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, map[string][]string{"hints": hints})
	case errors.Is(err, riddle.ErrInvalidLevel):
		Error(w, http.StatusBadRequest, msgInvalidLevel)
	case errors.Is(err, riddle.ErrNotFound):
		Error(w, http.StatusNotFound, msgHintsNotFound)
	default:
		h.logger.Error("Failed to get hints", "level", level, "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
	}
}

// ValidateAnswer judges a user's answer against the stored riddle.
func (h *RiddleHandler) ValidateAnswer(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	v, err := h.svc.ValidateAnswer(r.Context(), int(req.Level), req.UserAnswer)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, verdictResponse{Answer: v.Correct, Reasoning: v.Reasoning})
	case errors.Is(err, riddle.ErrMissingField):
		Error(w, http.StatusBadRequest, msgValidateRequired)
	case errors.Is(err, riddle.ErrInvalidLevel):
		Error(w, http.StatusBadRequest, msgInvalidLevel)
	case errors.Is(err, riddle.ErrNotFound):
		Error(w, http.StatusNotFound, msgRiddleNotFound)
	case errors.Is(err, riddle.ErrJudge):
		Error(w, http.StatusInternalServerError, msgReasoningFailed)
	default:
		h.logger.Error("Failed to validate answer", "level", int(req.Level), "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
	}
}

// AskAI judges a user's answer to an arbitrary question.
func (h *RiddleHandler) AskAI(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	v, err := h.svc.AskAI(r.Context(), req.Question, req.UserAnswer)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, verdictResponse{Answer: v.Correct, Reasoning: v.Reasoning})
	case errors.Is(err, riddle.ErrMissingField):
		Error(w, http.StatusBadRequest, msgAskRequired)
	default:
		h.logger.Error("Error fetching AI reasoning", "error", err)
		Error(w, http.StatusInternalServerError, msgReasoningFailed)
	}
}

// ListLevels returns the levels that currently have a stored riddle.
func (h *RiddleHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.svc.StoredLevels(r.Context())
	if err != nil {
		h.logger.Error("Failed to list stored levels", "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if levels == nil {
		levels = []int{}
	}
	JSON(w, http.StatusOK, map[string][]int{"levels": levels})
}
