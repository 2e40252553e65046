package riddle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vnishchay/reasoning-game/internal/domain"
	"github.com/vnishchay/reasoning-game/internal/store"
)

// AnswerJudge decides whether a user's answer is correct.
type AnswerJudge interface {
	Judge(ctx context.Context, question, correctAnswer, userAnswer string) (Verdict, error)
	JudgeWithoutKnownAnswer(ctx context.Context, question, userAnswer string) (Verdict, error)
}

// Service orchestrates the riddle store, generator and judge for the API layer.
type Service struct {
	repo   store.Repository
	gen    RiddleGenerator
	judge  AnswerJudge
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(repo store.Repository, gen RiddleGenerator, judge AnswerJudge, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, gen: gen, judge: judge, logger: logger}
}

func checkLevel(level int) error {
	if !domain.ValidLevel(level) {
		return fmt.Errorf("%w: got %d", ErrInvalidLevel, level)
	}
	return nil
}

// Riddle generates a fresh riddle for level and stores it as the level's current riddle.
func (s *Service) Riddle(ctx context.Context, level int) (domain.Riddle, error) {
	if err := checkLevel(level); err != nil {
		return domain.Riddle{}, err
	}
	r, err := s.gen.Generate(ctx, level)
	if err != nil {
		if !errors.Is(err, ErrGeneration) {
			err = fmt.Errorf("%w: %w", ErrGeneration, err)
		}
		return domain.Riddle{}, err
	}
	if err := s.repo.Put(ctx, r); err != nil {
		s.logger.Error("Failed to store generated riddle", "level", level, "error", err)
	}
	return r, nil
}

// Hints returns the hints of the stored riddle for level without generating one.
func (s *Service) Hints(ctx context.Context, level int) ([]string, error) {
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	r, err := s.repo.Get(ctx, level)
	if err != nil {
		return nil, err
	}
	return r.Hints, nil
}

// ValidateAnswer judges userAnswer against the stored riddle for level.
func (s *Service) ValidateAnswer(ctx context.Context, level int, userAnswer string) (Verdict, error) {
	if level == 0 || strings.TrimSpace(userAnswer) == "" {
		return Verdict{}, fmt.Errorf("%w: level and userAnswer", ErrMissingField)
	}
	if err := checkLevel(level); err != nil {
		return Verdict{}, err
	}
	r, err := s.repo.Get(ctx, level)
	if err != nil {
		return Verdict{}, err
	}
	return s.judge.Judge(ctx, r.Question, r.Answer, userAnswer)
}

// AskAI judges userAnswer for an arbitrary question without a known answer.
func (s *Service) AskAI(ctx context.Context, question, userAnswer string) (Verdict, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(userAnswer) == "" {
		return Verdict{}, fmt.Errorf("%w: question and userAnswer", ErrMissingField)
	}
	return s.judge.JudgeWithoutKnownAnswer(ctx, question, userAnswer)
}

// StoredLevels lists the levels that currently have a riddle.
func (s *Service) StoredLevels(ctx context.Context) ([]int, error) {
	riddles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	levels := make([]int, 0, len(riddles))
	for _, r := range riddles {
		levels = append(levels, r.Level)
	}
	return levels, nil
}

// Seed stores each riddle whose level is still empty. It returns how many were stored.
func (s *Service) Seed(ctx context.Context, riddles []domain.Riddle) (int, error) {
	seeded := 0
	for _, r := range riddles {
		_, err := s.repo.Get(ctx, r.Level)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return seeded, fmt.Errorf("check level %d: %w", r.Level, err)
		}
		if err := s.repo.Put(ctx, r); err != nil {
			return seeded, fmt.Errorf("seed level %d: %w", r.Level, err)
		}
		seeded++
	}
	return seeded, nil
}
