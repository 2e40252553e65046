// Package llm provides text-completion clients for the riddle service.
//
// Every provider implements Completer: a single user-role prompt in, generated text
// out. Providers:
//   - OpenAIClient - any OpenAI-compatible chat endpoint (DeepSeek by default)
//   - GeminiClient - Google Gemini
//
// Error handling:
//   - ErrNoAPIKey      - provider constructed without credentials
//   - ErrEmptyResponse - the provider answered with no choices/candidates
//   - APIError         - HTTP-level failure reported by the provider
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Completer sends a prompt to a language model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrNoAPIKey indicates the required API key is not configured.
	ErrNoAPIKey = errors.New("API key not configured")

	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("empty response")
)

// APIError represents an HTTP error returned by a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRateLimited checks if the error indicates rate limiting.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// New builds the Completer named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI, "deepseek":
		c, err := NewOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderGemini:
		c, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
