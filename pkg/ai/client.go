package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/edustack/school-portal-api/pkg/config"
)

// Client wraps an OpenAI-compatible chat completions endpoint. Credentials
// and endpoint come from injected configuration only.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewClient builds a client from AI configuration.
func NewClient(cfg config.AIConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		timeout: timeout,
	}
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a single-prompt request and returns the first candidate's
// text. Every call carries the configured timeout.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{}
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("ai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ai returned no candidates")
	}
	return resp.Choices[0].Message.Content, nil
}

// StripCodeFences removes a wrapping Markdown code fence, with or without a
// language tag, from a candidate's text.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// drop the language tag line ("json", "JSON", ...)
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseInto strips code fences from the candidate text and unmarshals the
// remaining JSON into out. A non-nil error means the response was malformed,
// not that the call failed.
func ParseInto(raw string, out interface{}) error {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return fmt.Errorf("empty ai response")
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("parse ai response: %w", err)
	}
	return nil
}
