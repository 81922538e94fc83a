// Package adjudicate resolves conflicting candidate values by asking an
// LLM to pick (or reconstruct) the correct figure, grounding its answer
// in the raw evidence trail rather than its own background knowledge.
// Two independent providers are supported so a single vendor outage
// never stalls every run.
package adjudicate

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"

	"github.com/ternarybob/arbor"
)

// Provider is the capability boundary every LLM backend implements: take
// a fully-constructed prompt, return raw text. Tolerant JSON parsing of
// that text is the adjudicator's responsibility, not the provider's.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// RetryConfig controls the backoff applied around every provider call.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryConfig: a handful of attempts with exponential backoff,
// since LLM APIs return transient 429/5xx responses often enough that a
// single attempt is not a reliable signal of true failure.
var DefaultRetryConfig = RetryConfig{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}

// ProviderConfig carries the generation parameters shared by every
// provider implementation.
type ProviderConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
}

func (c ProviderConfig) retryConfig() RetryConfig {
	retry := DefaultRetryConfig
	if c.MaxRetries > 0 {
		retry.MaxAttempts = c.MaxRetries
	}
	return retry
}

func (c ProviderConfig) maxTokens() int64 {
	if c.MaxTokens > 0 {
		return int64(c.MaxTokens)
	}
	return 1024
}

// callContext applies the per-request timeout, when configured.
func (c ProviderConfig) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(ctx, c.Timeout)
	}
	return context.WithCancel(ctx)
}

// ClaudeProvider generates adjudication text via the Anthropic Messages API.
type ClaudeProvider struct {
	client *anthropic.Client
	config ProviderConfig
	retry  RetryConfig
	logger arbor.ILogger
}

// NewClaudeProvider builds a Claude-backed Provider.
func NewClaudeProvider(apiKey string, config ProviderConfig, logger arbor.ILogger) *ClaudeProvider {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ClaudeProvider{client: &client, config: config, retry: config.retryConfig(), logger: logger}
}

func (p *ClaudeProvider) Name() string { return "claude" }

// Generate sends prompt as a single user message and returns the
// concatenated text of Claude's response, retrying on transient errors
// with exponential backoff.
func (p *ClaudeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < p.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, p.retry.BaseDelay, attempt); err != nil {
				return "", err
			}
		}

		callCtx, cancel := p.config.callContext(ctx)
		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(p.config.Model),
			MaxTokens: p.config.maxTokens(),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		}
		if p.config.Temperature > 0 {
			params.Temperature = anthropic.Float(float64(p.config.Temperature))
		}
		resp, err := p.client.Messages.New(callCtx, params)
		cancel()
		if err != nil {
			lastErr = err
			if p.logger != nil {
				p.logger.Warn().Int("attempt", attempt+1).Err(err).Msg("claude adjudication call failed, retrying")
			}
			continue
		}

		var text string
		for _, block := range resp.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		return text, nil
	}
	return "", fmt.Errorf("adjudicate: claude generate failed after %d attempts: %w", p.retry.MaxAttempts, lastErr)
}

// GeminiProvider generates adjudication text via the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	config ProviderConfig
	retry  RetryConfig
	logger arbor.ILogger
}

// NewGeminiProvider builds a Gemini-backed Provider.
func NewGeminiProvider(ctx context.Context, apiKey string, config ProviderConfig, logger arbor.ILogger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("adjudicate: gemini client init: %w", err)
	}
	return &GeminiProvider{client: client, config: config, retry: config.retryConfig(), logger: logger}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Generate sends prompt as Gemini content and returns the response text,
// retrying on transient errors with the same backoff policy as Claude.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < p.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, p.retry.BaseDelay, attempt); err != nil {
				return "", err
			}
		}

		config := &genai.GenerateContentConfig{}
		if p.config.Temperature > 0 {
			config.Temperature = genai.Ptr(p.config.Temperature)
		}
		callCtx, cancel := p.config.callContext(ctx)
		resp, err := p.client.Models.GenerateContent(callCtx, p.config.Model, genai.Text(prompt), config)
		cancel()
		if err != nil {
			lastErr = err
			if p.logger != nil {
				p.logger.Warn().Int("attempt", attempt+1).Err(err).Msg("gemini adjudication call failed, retrying")
			}
			continue
		}
		return resp.Text(), nil
	}
	return "", fmt.Errorf("adjudicate: gemini generate failed after %d attempts: %w", p.retry.MaxAttempts, lastErr)
}

func sleepBackoff(ctx context.Context, base time.Duration, attempt int) error {
	delay := base << uint(attempt-1)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Factory builds the configured set of providers in priority order, so
// the adjudicator can fail over from the first to the second when one
// vendor's key is absent or its calls keep failing.
func Factory(ctx context.Context, claudeAPIKey string, claudeConfig ProviderConfig, geminiAPIKey string, geminiConfig ProviderConfig, logger arbor.ILogger) ([]Provider, error) {
	var providers []Provider

	if claudeAPIKey != "" {
		providers = append(providers, NewClaudeProvider(claudeAPIKey, claudeConfig, logger))
	}
	if geminiAPIKey != "" {
		gemini, err := NewGeminiProvider(ctx, geminiAPIKey, geminiConfig, logger)
		if err != nil {
			return providers, fmt.Errorf("adjudicate: gemini provider unavailable: %w", err)
		}
		providers = append(providers, gemini)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("adjudicate: no LLM provider configured")
	}
	return providers, nil
}
