// Package generation forwards writing prompts to an OpenAI-compatible chat
// completions provider (OpenRouter by default) and classifies its answers.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"narreyes/internal/config"
	"narreyes/internal/domain"
	"narreyes/internal/metrics"
)

// Sampling parameters sent with every request.
const (
	temperature = 0.8
	maxTokens   = 800
	topP        = 0.92

	maxResponseBytes = 1 << 20
)

// Options configures the provider endpoint.
type Options struct {
	URL     string
	APIKey  config.Secret
	Timeout time.Duration
	Referer string
	Title   string
}

// Request is the body of POST /api/generate
type Request struct {
	Prompt   string `json:"prompt"`
	Category string `json:"category"`
}

// Result is the generated text together with the category and model that produced it.
type Result struct {
	Result   string `json:"result"`
	Category string `json:"category"`
	Model    string `json:"model"`
}

// Client makes one synchronous call per Generate. No retries.
type Client struct {
	opts       Options
	categories *Categories
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a generation client
func NewClient(opts Options, categories *Categories, logger *slog.Logger) *Client {
	opts.URL = strings.TrimSpace(opts.URL)
	return &Client{
		opts:       opts,
		categories: categories,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger,
	}
}

// Categories exposes the category table
func (c *Client) Categories() *Categories {
	return c.categories
}

// Generate validates the prompt, calls the provider and maps its answer.
func (c *Client) Generate(ctx context.Context, req *Request) (*Result, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: please enter a prompt", domain.ErrInvalidOperation)
	}
	if err := validation.Validate(prompt, validation.Length(0, config.MaxPromptLength)); err != nil {
		return nil, fmt.Errorf("%w: prompt: %v", domain.ErrValidation, err)
	}

	cat := c.categories.Resolve(req.Category)

	text, err := c.complete(ctx, cat, prompt)
	metrics.GenerationRequests.WithLabelValues(cat.Name, outcome(err)).Inc()
	if err != nil {
		c.logger.Warn("generation failed",
			"category", cat.Name,
			"model", cat.Model,
			"error", err,
		)
		return nil, err
	}

	c.logger.Info("generation completed", "category", cat.Name, "model", cat.Model, "chars", len(text))
	return &Result{Result: text, Category: cat.Name, Model: cat.Model}, nil
}

func (c *Client) complete(ctx context.Context, cat Category, prompt string) (string, error) {
	if c.opts.APIKey.Reveal() == "" {
		return "", fmt.Errorf("%w: no API key configured", ErrProviderUnauthorized)
	}

	body, err := json.Marshal(chatRequest{
		Model: cat.Model,
		Messages: []chatMessage{
			{Role: "system", Content: cat.Instruction},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopP:        topP,
	})
	if err != nil {
		return "", fmt.Errorf("encode generation request: %w", err)
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey.Reveal())
	httpReq.Header.Set("Content-Type", "application/json")
	if c.opts.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.opts.Referer)
	}
	if c.opts.Title != "" {
		httpReq.Header.Set("X-Title", c.opts.Title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusServiceUnavailable:
		return "", ErrServiceUnavailable
	case http.StatusPaymentRequired:
		return "", ErrQuotaExhausted
	case http.StatusUnauthorized:
		return "", ErrProviderUnauthorized
	default:
		return "", &ProviderError{StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &TransportError{Err: err}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(raw, &chatResp); err != nil || len(chatResp.Choices) == 0 {
		return "", &ProviderError{StatusCode: resp.StatusCode}
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

func outcome(err error) string {
	var providerErr *ProviderError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrServiceUnavailable):
		return "unavailable"
	case errors.Is(err, ErrQuotaExhausted):
		return "quota_exhausted"
	case errors.Is(err, ErrProviderUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.As(err, &providerErr):
		return "provider_error"
	default:
		return "transport_error"
	}
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
	TopP        float64       `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
