package llm

import "context"

// LLMClient is the interface for chat-completion backends (OpenAI or any
// OpenAI-compatible server)
type LLMClient interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Ask(ctx context.Context, system, user string, temperature float32) (string, error)
}

// Ensure implementations satisfy the interface
var _ LLMClient = (*OpenAIClient)(nil)
