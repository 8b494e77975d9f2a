// Package llm talks to hosted language models.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"career-roadmap/internal/config"
)

// Request is a single system + user prompt exchange.
type Request struct {
	Model  string
	System string
	User   string
	// JSON asks the provider to constrain output to a JSON object.
	JSON bool
}

// Client completes prompts against a hosted model.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the client for the configured provider.
func New(ctx context.Context, cfg config.Config, logger *logrus.Logger) (Client, error) {
	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: timeout,
			Logger:  logger,
		}), nil
	case config.ProviderGemini:
		return NewGemini(ctx, GeminiConfig{
			APIKey:  cfg.LLM.APIKey,
			Timeout: timeout,
			Logger:  logger,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
