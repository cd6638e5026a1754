package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// DefaultModel answers every classification prompt
const DefaultModel = "gpt-4o"

// OpenAIClient wraps the OpenAI API client
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    logger.Logger
}

// Config for OpenAI client
type Config struct {
	APIKey    string
	Model     string // default: gpt-4o
	BaseURL   string // optional, for OpenAI-compatible servers
	MaxTokens int    // 0 leaves the limit to the server
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg Config, log logger.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewConfigurationError("missing OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if log == nil {
		log = logger.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    log.With("component", "llm", "model", cfg.Model),
	}, nil
}

// ChatMessage represents a chat message
type ChatMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	Message      string `json:"message"`
	TokensUsed   int    `json:"tokens_used"`
	FinishReason string `json:"finish_reason"`
}

// Chat sends a chat completion request to OpenAI
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("openai chat failed", "error", err, "duration", duration)
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, domain.NewHTTPError(apiErr.HTTPStatusCode, "openai chat failed: "+apiErr.Message)
		}
		return nil, domain.NewNetworkError("openai chat failed", err)
	}

	if len(resp.Choices) == 0 {
		return nil, domain.NewValidationError("no response from openai", nil)
	}

	c.logger.Debug("openai chat completed",
		"messages", len(req.Messages),
		"tokens", resp.Usage.TotalTokens,
		"duration", duration)

	return &ChatResponse{
		Message:      resp.Choices[0].Message.Content,
		TokensUsed:   resp.Usage.TotalTokens,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

// Ask sends one system and one user message and returns the trimmed, lower-cased
// answer
func (c *OpenAIClient) Ask(ctx context.Context, system, user string, temperature float32) (string, error) {
	messages := []ChatMessage{}
	if system != "" {
		messages = append(messages, ChatMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, ChatMessage{Role: openai.ChatMessageRoleUser, Content: user})

	resp, err := c.Chat(ctx, ChatRequest{
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("ask: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(resp.Message)), nil
}
