package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrGeneration is returned when the text-generation API yields no usable text.
var ErrGeneration = errors.New("text generation failed")

// Completer produces a reply for a system and user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// GeneratorConfig configures the chat-completions client.
type GeneratorConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Generator calls an OpenAI-compatible chat-completions endpoint.
type Generator struct {
	httpClient *resty.Client
	model      string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewGenerator builds a Generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}
	return &Generator{httpClient: httpClient, model: cfg.Model}
}

// Complete posts one chat completion and returns the trimmed first choice.
func (g *Generator) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	}

	var (
		out    chatResponse
		failed apiError
	)
	resp, err := g.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&failed).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if resp.IsError() {
		msg := failed.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("%w: %s", ErrGeneration, msg)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	return text, nil
}
