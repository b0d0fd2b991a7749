// Package llm generates answer feedback and report summaries through an
// OpenAI-compatible chat API. It is optional; the rule-based fallback in
// the feedback package covers deployments without a model endpoint.
package llm

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/salatiso/lifesync/internal/llm/prompts"

	openai "github.com/sashabaranov/go-openai"
)

//go:embed prompts/*.txt
var promptFS embed.FS

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
	tone  prompts.Tone
}

// New creates a new LLM client with the given feedback tone.
func New(baseURL, apiKey, modelName, tone string) (*Client, error) {
	if !prompts.IsValidTone(tone) {
		return nil, fmt.Errorf("invalid feedback tone %q", tone)
	}
	if err := prompts.Load(promptFS); err != nil {
		return nil, fmt.Errorf("load prompt templates: %w", err)
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
		tone:  prompts.Tone(tone),
	}, nil
}

// Ping verifies the API endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint unreachable: %w", err)
	}
	return nil
}

// Comment produces one short feedback message for a single answer.
func (c *Client) Comment(ctx context.Context, question, answer string) (string, error) {
	prompt, err := prompts.BuildFeedbackPrompt(c.tone, question, answer)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, prompt, 0.7)
}

// Summarize produces the report summary for a completed assessment.
func (c *Client) Summarize(ctx context.Context, exchanges []prompts.Exchange) (string, error) {
	prompt, err := prompts.BuildSummaryPrompt(c.tone, exchanges)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, prompt, 0.3)
}

func (c *Client) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("LLM response", "raw", raw)
	if raw == "" {
		return "", fmt.Errorf("LLM returned an empty message")
	}

	return raw, nil
}
