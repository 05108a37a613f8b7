// Package openai generates recommendation explanations via an
// OpenAI-compatible chat completion API (e.g. Cloud.ru Foundation Models).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/IlyadI/rec-sys-project-retail/internal/domain"
	"github.com/IlyadI/rec-sys-project-retail/internal/metrics"
)

// Client asks a chat model for a one-sentence explanation of a recommendation.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	provider    string
	logger      *zap.Logger
}

// Config holds the explanation provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Provider    string
	Logger      *zap.Logger
}

// NewClient creates an explanation client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// Explain returns one short sentence on why the product suits the user.
func (c *Client) Explain(ctx context.Context, req domain.ExplanationRequest) (string, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:           c.model,
		MaxTokens:       c.maxTokens,
		Temperature:     c.temperature,
		TopP:            0.95,
		PresencePenalty: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
	})

	duration := time.Since(start)

	if err != nil {
		metrics.ExplanationRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.ExplanationRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return "", fmt.Errorf("empty chat response: %w", domain.ErrExplanationProviderError)
	}

	metrics.ExplanationRequestsTotal.WithLabelValues(c.provider, c.model, "success").Inc()
	metrics.ExplanationRequestDuration.WithLabelValues(c.provider, c.model).Observe(duration.Seconds())

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// buildPrompt renders the explanation prompt. The model only ever sees the
// purchased-item descriptions and the recommended item, nothing else.
func buildPrompt(req domain.ExplanationRequest) string {
	var b strings.Builder
	b.WriteString("You are a recommendation system for an online store.\n\n")

	b.WriteString("The user has previously purchased the following items:\n")
	if len(req.BoughtDescriptions) == 0 {
		b.WriteString("no purchase history available")
	} else {
		for i, d := range req.BoughtDescriptions {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", d)
		}
	}

	fmt.Fprintf(&b, "\n\nYou are now recommending the following product:\n%q\n\n", req.Description)
	b.WriteString("Explain in one short sentence in English why it makes sense to recommend ")
	b.WriteString("this product to this user.\n")
	b.WriteString("Do not mention any technical details such as \"algorithm\", \"model\", or similar.")
	return b.String()
}

// parseAPIError extracts a human-readable error from the API response.
// Everything is wrapped with domain.ErrExplanationProviderError so callers can
// degrade uniformly.
func parseAPIError(err error) error {
	wrap := domain.ErrExplanationProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("chat request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
