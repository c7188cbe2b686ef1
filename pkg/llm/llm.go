// Package llm wraps text generation providers behind a single Completer interface
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dailylesson/lessonmail/pkg/config"
)

// ErrRateLimited is returned when the provider rejects a request with HTTP 429
var ErrRateLimited = errors.New("rate limited")

// Completer sends one system+user prompt pair and returns the text reply
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// New makes a completer for the configured provider, nil if the provider is not set
func New(cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAI(cfg), nil
	case "anthropic":
		return NewAnthropic(cfg), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}
