package messages

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultTimeout   = 20 * time.Second
	completionTemp   = 0.7
	completionTokens = 500
)

// ClientConfig configures the text-generation endpoint. BaseURL points at an
// OpenAI-compatible API root such as https://api.openai.com/v1.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client wraps chat completion calls against an OpenAI-compatible API.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient constructs a new client. An empty BaseURL leaves generation
// disabled.
func NewClient(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{model: model}
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		conf := openai.DefaultConfig(cfg.APIKey)
		conf.BaseURL = base
		conf.HTTPClient = &http.Client{Timeout: timeout}
		c.api = openai.NewClientWithConfig(conf)
	}
	return c
}

// Complete sends a system and a user prompt and returns the first choice.
// Every failure wraps shared.ErrExternalService.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c.api == nil {
		return "", fmt.Errorf("%w: text generation is not configured", shared.ErrExternalService)
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: completionTemp,
		MaxTokens:   completionTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: text generation returned status %d: %s", shared.ErrExternalService, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: text generation request: %v", shared.ErrExternalService, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", shared.ErrExternalService, errEmptyCompletion)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: %w", shared.ErrExternalService, errEmptyCompletion)
	}
	return text, nil
}

var errEmptyCompletion = errors.New("completion has no content")
