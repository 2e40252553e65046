package riddle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vnishchay/reasoning-game/internal/llm"
)

const echoJSON = `{"question":"Q","answer":"echo","hints":["a","b","c"]}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticCompleter(text string, err error) llm.Completer {
	return llm.CompleterFunc(func(context.Context, string) (string, error) {
		return text, err
	})
}

func TestGenerateSuccess(t *testing.T) {
	gen := NewGenerator(staticCompleter(echoJSON, nil), discardLogger())

	r, err := gen.Generate(context.Background(), 5)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if r.Level != 5 || r.Question != "Q" || r.Answer != "echo" {
		t.Fatalf("unexpected riddle %+v", r)
	}
	if len(r.Hints) != 3 || r.Hints[0] != "a" || r.Hints[2] != "c" {
		t.Fatalf("unexpected hints %v", r.Hints)
	}
}

func TestGeneratePromptMentionsLevel(t *testing.T) {
	var seen string
	gen := NewGenerator(llm.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		seen = prompt
		return echoJSON, nil
	}), discardLogger())

	if _, err := gen.Generate(context.Background(), 17); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := "level 17"; !strings.Contains(seen, want) {
		t.Fatalf("prompt %q does not mention %q", seen, want)
	}
}

func TestGenerateStripsCodeFence(t *testing.T) {
	fenced := "```json\n" + echoJSON + "\n```"
	gen := NewGenerator(staticCompleter(fenced, nil), discardLogger())

	r, err := gen.Generate(context.Background(), 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if r.Answer != "echo" {
		t.Fatalf("expected answer echo, got %q", r.Answer)
	}
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
	}{
		{"completion error", "", errors.New("connection refused")},
		{"not json", "Here is a riddle: what has keys but no locks?", nil},
		{"missing answer", `{"question":"Q","hints":["a","b","c"]}`, nil},
		{"missing hints", `{"question":"Q","answer":"echo"}`, nil},
		{"two hints", `{"question":"Q","answer":"echo","hints":["a","b"]}`, nil},
		{"hints wrong type", `{"question":"Q","answer":"echo","hints":"a,b,c"}`, nil},
		{"empty question", `{"question":"","answer":"echo","hints":["a","b","c"]}`, nil},
		{"json array", `[1,2,3]`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewGenerator(staticCompleter(tt.text, tt.err), discardLogger())
			r, err := gen.Generate(context.Background(), 3)
			if !errors.Is(err, ErrGeneration) {
				t.Fatalf("expected ErrGeneration, got %v", err)
			}
			if r.Question != "" || r.Hints != nil {
				t.Fatalf("expected zero riddle on failure, got %+v", r)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		echoJSON:                          echoJSON,
		"  " + echoJSON + "\n":            echoJSON,
		"```json\n" + echoJSON + "\n```":  echoJSON,
		"```json" + echoJSON + "```":      echoJSON,
		"```\n" + echoJSON + "\n```":      echoJSON,
		"```JSON\n" + echoJSON + "\n```":  echoJSON,
		"```json\n" + echoJSON:            "```json\n" + echoJSON,
		"```":                             "```",
	}
	for in, want := range tests {
		if got := StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
