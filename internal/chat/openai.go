package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vampirenirmal/krishicore/internal/core"
)

// OpenAIClient implements Client over the OpenAI chat completions API.
type OpenAIClient struct {
	client      *openai.Client
	key         string
	model       string
	maxTokens   int
	temperature float32
	logger      *slog.Logger
}

type Option func(*OpenAIClient)

func WithModel(model string) Option {
	return func(c *OpenAIClient) {
		c.model = model
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(c *OpenAIClient) {
		c.maxTokens = maxTokens
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *OpenAIClient) {
		if baseURL == "" {
			return
		}
		config := openai.DefaultConfig(c.key)
		config.BaseURL = baseURL
		c.client = openai.NewClientWithConfig(config)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *OpenAIClient) {
		c.logger = logger
	}
}

// NewOpenAIClient creates a chat client for the given API key.
func NewOpenAIClient(apiKey string, opts ...Option) *OpenAIClient {
	c := &OpenAIClient{
		client:      openai.NewClient(apiKey),
		key:         apiKey,
		model:       openai.GPT4oMini,
		maxTokens:   1024,
		temperature: 0.4,
		logger:      slog.Default().With("component", "chat_client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	start := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    convertMessages(messages),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("chat completion failed",
			"model", c.model,
			"message_count", len(messages),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return "", fmt.Errorf("chat completion: %w", core.WrapBackendError("chat", err))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices in response")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Info("chat completion succeeded",
		"model", c.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_length", len(content))

	return content, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return converted
}
