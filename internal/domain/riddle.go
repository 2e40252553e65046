// Package domain contains core domain types for the riddle game.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// MinLevel is the first playable level.
	MinLevel = 1
	// MaxLevel is the last playable level.
	MaxLevel = 49
	// HintCount is the number of hints every riddle carries.
	HintCount = 3
)

// ErrInvalidRiddle is returned when a riddle breaks a structural invariant.
var ErrInvalidRiddle = errors.New("invalid riddle")

// Riddle represents a single level's riddle.
type Riddle struct {
	Level       int       `json:"level"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Hints       []string  `json:"hints"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ValidLevel reports whether level is inside the playable range.
func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

// Levels returns every playable level in ascending order.
func Levels() []int {
	levels := make([]int, 0, MaxLevel-MinLevel+1)
	for l := MinLevel; l <= MaxLevel; l++ {
		levels = append(levels, l)
	}
	return levels
}

// NormalizeAnswer returns the canonical form used for answer comparison.
func NormalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// Matches reports whether userAnswer equals the riddle's answer, ignoring case.
func (r *Riddle) Matches(userAnswer string) bool {
	return NormalizeAnswer(r.Answer) == NormalizeAnswer(userAnswer)
}

// Validate checks level range, non-empty text fields and the hint count.
func (r *Riddle) Validate() error {
	if !ValidLevel(r.Level) {
		return fmt.Errorf("%w: level %d out of range", ErrInvalidRiddle, r.Level)
	}
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("%w: empty question", ErrInvalidRiddle)
	}
	answer := strings.TrimSpace(r.Answer)
	if answer == "" {
		return fmt.Errorf("%w: empty answer", ErrInvalidRiddle)
	}
	if strings.ContainsAny(answer, " \t\n") {
		return fmt.Errorf("%w: answer %q is not a single word", ErrInvalidRiddle, answer)
	}
	if len(r.Hints) != HintCount {
		return fmt.Errorf("%w: expected %d hints, got %d", ErrInvalidRiddle, HintCount, len(r.Hints))
	}
	for i, h := range r.Hints {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("%w: hint %d is empty", ErrInvalidRiddle, i+1)
		}
	}
	return nil
}

// Clone returns a copy that shares no slices with r.
func (r Riddle) Clone() Riddle {
	hints := make([]string, len(r.Hints))
	copy(hints, r.Hints)
	r.Hints = hints
	return r
}
