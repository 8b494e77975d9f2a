package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey  string
	Timeout time.Duration
	Logger  *logrus.Logger
}

type geminiClient struct {
	client  *genai.Client
	timeout time.Duration
	log     *logrus.Entry
}

// NewGemini returns a client for the Gemini API.
func NewGemini(ctx context.Context, cfg GeminiConfig) (Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &geminiClient{
		client:  client,
		timeout: cfg.Timeout,
		log:     logger.WithField("component", "gemini"),
	}, nil
}

func (c *geminiClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
	}
	if req.JSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	started := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.User), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"model":   req.Model,
		"latency": time.Since(started).String(),
	}).Debug("generate content")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}
