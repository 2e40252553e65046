// Package riddle implements the riddle lifecycle: generation, judging answers and
// bulk regeneration of every level.
package riddle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vnishchay/reasoning-game/internal/domain"
	"github.com/vnishchay/reasoning-game/internal/llm"
	"github.com/xeipuuv/gojsonschema"
)

// riddleSchema is the shape model output must have before it is trusted.
const riddleSchema = `{
	"type": "object",
	"properties": {
		"question": {"type": "string", "minLength": 1},
		"answer": {"type": "string", "minLength": 1},
		"hints": {
			"type": "array",
			"items": {"type": "string", "minLength": 1},
			"minItems": 3,
			"maxItems": 3
		}
	},
	"required": ["question", "answer", "hints"]
}`

var compiledRiddleSchema = mustCompileSchema(riddleSchema)

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic("riddle: invalid embedded schema: " + err.Error())
	}
	return schema
}

// generatedRiddle is the raw model output before it becomes a domain.Riddle.
type generatedRiddle struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Hints    []string `json:"hints"`
}

// Generator asks the model for a new riddle.
type Generator struct {
	llm    llm.Completer
	logger *slog.Logger
}

// NewGenerator creates a Generator backed by completer.
func NewGenerator(completer llm.Completer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: completer, logger: logger}
}

// Generate produces a riddle for level. The caller range-checks level.
// Any failure is logged and returned wrapped in ErrGeneration; there is no retry.
func (g *Generator) Generate(ctx context.Context, level int) (domain.Riddle, error) {
	text, err := g.llm.Complete(ctx, generationPrompt(level))
	if err != nil {
		g.logger.Error("Failed to generate riddle", "level", level, "error", err)
		return domain.Riddle{}, fmt.Errorf("%w: level %d: %w", ErrGeneration, level, err)
	}
	g.logger.Debug("Riddle model response", "level", level, "response", text)

	r, err := ParseRiddle(level, text)
	if err != nil {
		g.logger.Error("Failed to parse generated riddle", "level", level, "error", err)
		return domain.Riddle{}, fmt.Errorf("%w: level %d: %w", ErrGeneration, level, err)
	}
	return r, nil
}

// ParseRiddle validates untrusted model text and converts it into a riddle for level.
func ParseRiddle(level int, text string) (domain.Riddle, error) {
	cleaned := StripCodeFence(text)

	result, err := compiledRiddleSchema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("decode model output: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.Riddle{}, fmt.Errorf("model output failed schema validation: %s", strings.Join(msgs, "; "))
	}

	var raw generatedRiddle
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return domain.Riddle{}, fmt.Errorf("unmarshal model output: %w", err)
	}

	r := domain.Riddle{
		Level:    level,
		Question: strings.TrimSpace(raw.Question),
		Answer:   strings.TrimSpace(raw.Answer),
		Hints:    raw.Hints,
	}
	if err := r.Validate(); err != nil {
		return domain.Riddle{}, err
	}
	return r, nil
}

// StripCodeFence removes a surrounding markdown code fence such as ```json ... ```.
// Text without a complete fence is returned trimmed but otherwise unchanged.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if len(s) < 6 || !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	// Drop an info string like "json" on the opening fence line.
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	return strings.TrimSpace(s)
}
