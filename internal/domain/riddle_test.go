package domain

import (
	"errors"
	"testing"
)

func validRiddle() Riddle {
	return Riddle{
		Level:    5,
		Question: "I speak without a mouth. What am I?",
		Answer:   "echo",
		Hints:    []string{"a", "b", "c"},
	}
}

func TestValidLevel(t *testing.T) {
	cases := map[int]bool{0: false, 1: true, 25: true, 49: true, 50: false, -3: false}
	for level, want := range cases {
		if got := ValidLevel(level); got != want {
			t.Errorf("ValidLevel(%d) = %v, want %v", level, got, want)
		}
	}
}

func TestLevels(t *testing.T) {
	levels := Levels()
	if len(levels) != 49 {
		t.Fatalf("expected 49 levels, got %d", len(levels))
	}
	if levels[0] != 1 || levels[48] != 49 {
		t.Fatalf("unexpected bounds: %d..%d", levels[0], levels[48])
	}
}

func TestRiddleValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Riddle)
		ok     bool
	}{
		{"valid", func(*Riddle) {}, true},
		{"level too high", func(r *Riddle) { r.Level = 50 }, false},
		{"empty question", func(r *Riddle) { r.Question = "  " }, false},
		{"empty answer", func(r *Riddle) { r.Answer = "" }, false},
		{"multi word answer", func(r *Riddle) { r.Answer = "an echo" }, false},
		{"two hints", func(r *Riddle) { r.Hints = r.Hints[:2] }, false},
		{"blank hint", func(r *Riddle) { r.Hints[1] = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRiddle()
			tt.mutate(&r)
			err := r.Validate()
			if tt.ok && err != nil {
				t.Fatalf("expected valid riddle, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidRiddle) {
				t.Fatalf("expected ErrInvalidRiddle, got %v", err)
			}
		})
	}
}

func TestRiddleMatchesIgnoresCase(t *testing.T) {
	r := validRiddle()
	if !r.Matches("  ECHO ") {
		t.Fatal("expected case-insensitive match")
	}
	if r.Matches("shadow") {
		t.Fatal("expected mismatch")
	}
}

func TestRiddleCloneDetachesHints(t *testing.T) {
	r := validRiddle()
	c := r.Clone()
	c.Hints[0] = "changed"
	if r.Hints[0] != "a" {
		t.Fatalf("clone shares hint storage: %q", r.Hints[0])
	}
}
