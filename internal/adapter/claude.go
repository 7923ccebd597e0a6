package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// claudeAdapter implements ChatAdapter for Anthropic Claude.
type claudeAdapter struct {
	client *anthropic.Client
}

// NewClaude creates a Claude adapter. If apiKey is empty, ANTHROPIC_API_KEY is used.
func NewClaude(apiKey string) ChatAdapter {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return &claudeAdapter{
		client: anthropic.NewClient(apiKey),
	}
}

func (c *claudeAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:              "claude-sonnet-4-6",
		Provider:          ProviderClaude,
		MaxContextWindow:  200000,
		SupportsStreaming: true,
	}
}

// claudeMessages converts the conversation to the Anthropic wire shape.
// The system prompt travels separately, so only user/assistant turns map.
func claudeMessages(turns []Turn) []anthropic.Message {
	messages := make([]anthropic.Message, 0, len(turns))
	for _, t := range turns {
		role := anthropic.RoleUser
		if t.Role == "assistant" {
			role = anthropic.RoleAssistant
		}
		messages = append(messages, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(t.Content)},
		})
	}
	return messages
}

func (c *claudeAdapter) Chat(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	model := req.Model
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	messages := claudeMessages(req.Messages)

	ch := make(chan StreamChunk, 64)

	if !req.Stream {
		go func() {
			defer close(ch)
			resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
				Model:     anthropic.Model(model),
				Messages:  messages,
				MaxTokens: maxTokens,
				System:    req.System,
			})
			if err != nil {
				ch <- StreamChunk{Error: fmt.Errorf("claude chat: %w", err)}
				return
			}
			chunk := StreamChunk{
				Usage: &Usage{
					PromptTokens:     resp.Usage.InputTokens,
					CompletionTokens: resp.Usage.OutputTokens,
					TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
				},
			}
			if len(resp.Content) > 0 {
				chunk.Text = resp.Content[0].GetText()
			}
			ch <- chunk
		}()
		return ch, nil
	}

	// Streaming: the library uses a callback-based API.
	go func() {
		defer close(ch)

		streamReq := anthropic.MessagesStreamRequest{
			MessagesRequest: anthropic.MessagesRequest{
				Model:     anthropic.Model(model),
				Messages:  messages,
				MaxTokens: maxTokens,
				System:    req.System,
			},
			OnContentBlockDelta: func(delta anthropic.MessagesEventContentBlockDeltaData) {
				if delta.Delta.Type == anthropic.MessagesContentTypeTextDelta {
					ch <- StreamChunk{Text: delta.Delta.GetText()}
				}
			},
		}

		resp, err := c.client.CreateMessagesStream(ctx, streamReq)
		if err != nil && !errors.Is(err, io.EOF) {
			ch <- StreamChunk{Error: fmt.Errorf("claude stream: %w", err)}
			return
		}
		ch <- StreamChunk{Usage: &Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}}
	}()

	return ch, nil
}
