package riddle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vnishchay/reasoning-game/internal/llm"
)

// NoReasoning is reported when the model returns an empty reply.
const NoReasoning = "No reasoning provided"

// Verdict is the outcome of judging a user's answer.
type Verdict struct {
	Correct   bool
	Reasoning string
}

// Classifier decides correctness from the model's free-form reply.
type Classifier interface {
	Classify(response string) bool
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(response string) bool

// Classify calls f.
func (f ClassifierFunc) Classify(response string) bool { return f(response) }

// SubstringClassifier treats any reply containing "true" (case-insensitive) as correct.
// It tolerates verbose replies but misfires when "true" appears in the reasoning.
type SubstringClassifier struct{}

// Classify implements Classifier.
func (SubstringClassifier) Classify(response string) bool {
	return strings.Contains(strings.ToLower(response), "true")
}

// Judge asks the model whether a user's answer solves a riddle.
type Judge struct {
	llm        llm.Completer
	classifier Classifier
	logger     *slog.Logger
}

// JudgeOption customizes a Judge.
type JudgeOption func(*Judge)

// WithClassifier replaces the default SubstringClassifier.
func WithClassifier(c Classifier) JudgeOption {
	return func(j *Judge) { j.classifier = c }
}

// NewJudge creates a Judge backed by completer.
func NewJudge(completer llm.Completer, logger *slog.Logger, opts ...JudgeOption) *Judge {
	if logger == nil {
		logger = slog.Default()
	}
	j := &Judge{llm: completer, classifier: SubstringClassifier{}, logger: logger}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Judge evaluates userAnswer against the known correct answer.
func (j *Judge) Judge(ctx context.Context, question, correctAnswer, userAnswer string) (Verdict, error) {
	return j.ask(ctx, judgePrompt(question, correctAnswer, userAnswer))
}

// JudgeWithoutKnownAnswer evaluates userAnswer when the canonical answer is unavailable.
func (j *Judge) JudgeWithoutKnownAnswer(ctx context.Context, question, userAnswer string) (Verdict, error) {
	return j.ask(ctx, openJudgePrompt(question, userAnswer))
}

func (j *Judge) ask(ctx context.Context, prompt string) (Verdict, error) {
	text, err := j.llm.Complete(ctx, prompt)
	if err != nil {
		j.logger.Error("Failed to judge answer", "error", err)
		return Verdict{}, fmt.Errorf("%w: %w", ErrJudge, err)
	}
	if text == "" {
		text = NoReasoning
	}
	return Verdict{
		Correct:   j.classifier.Classify(text),
		Reasoning: text,
	}, nil
}
