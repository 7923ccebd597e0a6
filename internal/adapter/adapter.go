// Package adapter provides a unified interface for LLM chat providers.
package adapter

import (
	"context"
	"fmt"
)

// Provider name constants.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
)

// Turn is one message of the conversation sent to a provider.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Usage is the provider-reported token accounting for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamChunk is a single piece of the response delivered during streaming.
// Usage, when non-nil, arrives on the final chunk.
type StreamChunk struct {
	Text  string
	Usage *Usage
	Error error
}

// ChatRequest holds the parameters for a chat completion call. Messages is
// the full conversation so far, oldest first, with the new user turn last.
type ChatRequest struct {
	System      string
	Messages    []Turn
	Model       string
	MaxTokens   int
	Temperature float64
	Stream      bool
}

// ModelInfo describes the capabilities of a model.
type ModelInfo struct {
	Name              string
	Provider          string
	MaxContextWindow  int
	SupportsStreaming bool
}

// ChatAdapter is the common interface all provider adapters implement.
type ChatAdapter interface {
	// Chat sends the conversation and streams the response. The returned
	// channel is closed when the response is complete.
	Chat(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error)

	// Info returns metadata about the adapter/model.
	Info() ModelInfo
}

// New constructs the ChatAdapter for the named provider. An empty apiKey
// falls back to the provider's environment variable.
func New(provider, apiKey string) (ChatAdapter, error) {
	switch provider {
	case ProviderClaude, "anthropic":
		return NewClaude(apiKey), nil
	case ProviderOpenAI:
		return NewOpenAI(apiKey), nil
	default:
		return nil, fmt.Errorf("adapter: unknown provider %q; valid providers: claude, openai", provider)
	}
}
