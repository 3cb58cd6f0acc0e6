package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/nudgekit-dev/nudgekit/pkg/config"
)

// OpenAIClient interface for testability
type OpenAIClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIOracle talks to an OpenAI-compatible chat completion endpoint.
type OpenAIOracle struct {
	client      OpenAIClient
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	limiter     *rate.Limiter
}

// NewOpenAIOracle creates an oracle from the configured credentials. BaseURL
// may point at any OpenAI-compatible gateway.
func NewOpenAIOracle(cfg config.OracleConfig) (*OpenAIOracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai oracle: API key not set")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return NewOpenAIOracleWithClient(cfg, openai.NewClientWithConfig(clientCfg)), nil
}

// NewOpenAIOracleWithClient creates an oracle with a custom client, used
// primarily for testing.
func NewOpenAIOracleWithClient(cfg config.OracleConfig, client OpenAIClient) *OpenAIOracle {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIOracle{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

// Name returns the provider name
func (o *OpenAIOracle) Name() string {
	return "openai"
}

// Generate sends a single chat completion request and returns the text of
// the first choice. Requests are rate limited and bounded by the configured
// timeout.
func (o *OpenAIOracle) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("openai oracle: rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai oracle: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai oracle: empty response")
	}

	return resp.Choices[0].Message.Content, nil
}
