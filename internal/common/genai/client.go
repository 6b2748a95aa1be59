// internal/common/genai/client.go
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack-bot/internal/common/config"

	genai "google.golang.org/genai"
)

var (
	ErrGenerationFailed = errors.New("GENERATION_FAILED")
	ErrEmptyResponse    = errors.New("EMPTY_RESPONSE")
)

// Client wraps the Gemini SDK behind a single text-in/text-out call.
type Client struct {
	client     *genai.Client
	model      string
	maxRetries int
}

// NewClient builds a Gemini client from config. The ctx is only used for
// SDK initialization.
func NewClient(ctx context.Context, cfg config.GenAIConfig) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		client:     c,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// GenerateText sends the prompt and returns the raw model text. Transient
// failures are retried with exponential backoff until the context expires.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}

		text := resp.Text()
		if text == "" {
			lastErr = ErrEmptyResponse
			continue
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
}

// CleanModelJSON strips Markdown code fences and surrounding junk that models
// emit despite strict-JSON instructions, keeping only the outermost JSON
// object or array.
func CleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only the outermost JSON value if there is still junk around it.
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		if start := strings.Index(s, pair[0]); start != -1 {
			if end := strings.LastIndex(s, pair[1]); end != -1 && end > start {
				return strings.TrimSpace(s[start : end+1])
			}
		}
	}

	return s
}
