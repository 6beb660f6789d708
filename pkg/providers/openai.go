package providers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultModel   = "gpt-4o-mini"
	requestTimeout = 60 * time.Second
	maxRetries     = 2
	baseRetryDelay = 2 * time.Second
)

// OpenAIClient implements Completer against any OpenAI-compatible
// chat-completions endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a client for the given key, model and optional
// base URL (empty means the default OpenAI endpoint).
func NewOpenAIClient(apiKey, apiBase, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("provider API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		cfg.BaseURL = strings.TrimRight(apiBase, "/")
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Model returns the configured chat model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// GenerateText sends a single-turn completion request. Transient failures
// are retried a bounded number of times with jittered exponential backoff;
// the last error is returned if all attempts fail.
func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff(baseRetryDelay, attempt)):
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("attempt %d: no completion choices returned", attempt+1)
			continue
		}

		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}

	return "", fmt.Errorf("generate text after %d attempts: %w", maxRetries+1, lastErr)
}

// backoff returns exponential backoff with up to +/-25% jitter, capped at 30s.
func backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base * time.Duration(1<<uint(attempt))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2)) - d/4
	return d + jitter
}
