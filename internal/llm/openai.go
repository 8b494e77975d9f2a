package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// ErrNoChoices is returned when a completion carries no message.
var ErrNoChoices = errors.New("openai returned no choices")

type OpenAIConfig struct {
	APIKey string
	// BaseURL is the API root without the /v1 suffix. Empty means api.openai.com.
	BaseURL string
	Timeout time.Duration
	Logger  *logrus.Logger
}

type openAIClient struct {
	client *openai.Client
	log    *logrus.Entry
}

// NewOpenAI returns a chat-completions client.
func NewOpenAI(cfg OpenAIConfig) Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base + "/v1"
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &openAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		log:    logger.WithField("component", "openai"),
	}
}

func (c *openAIClient) Complete(ctx context.Context, req Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	started := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	entry := c.log.WithFields(logrus.Fields{
		"model":   req.Model,
		"latency": time.Since(started).String(),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			entry = entry.WithField("status", apiErr.HTTPStatusCode)
		}
		entry.WithError(err).Debug("chat completion failed")
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	entry.WithField("tokens", resp.Usage.TotalTokens).Debug("chat completion")

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
