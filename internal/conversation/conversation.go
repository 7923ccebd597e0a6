// Package conversation owns chat transcript persistence: a bounded in-memory
// conversation list backed by an index + per-record file store, with lazy
// hydration of message bodies on first access.
package conversation

import (
	"encoding/json"
	"strings"
	"time"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Usage holds token accounting reported by the provider for one turn.
type Usage struct {
	InputTokens  int `json:"inputTokens,omitempty"`
	OutputTokens int `json:"outputTokens,omitempty"`
}

// Message is a single turn in a conversation. ToolCalls carries
// provider-shaped tool metadata and is opaque to this package.
type Message struct {
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Usage     *Usage          `json:"usage,omitempty"`
	ToolCalls json.RawMessage `json:"toolCalls,omitempty"`
}

// Conversation is a full transcript record as persisted to its record file.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// ToolsHash fingerprints the last tool set sent for this conversation,
	// so unchanged tool declarations need not be retransmitted.
	ToolsHash string `json:"toolsHash,omitempty"`
}

// Meta is the index entry for one conversation.
type Meta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
}

func (c *Conversation) meta() Meta {
	return Meta{
		ID:           c.ID,
		Title:        c.Title,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		MessageCount: len(c.Messages),
	}
}

const (
	titleMaxChars     = 47
	placeholderPrefix = "Conversation "
)

// placeholderTitle is the default title for a conversation with no user turn yet.
func placeholderTitle(createdAt time.Time) string {
	return placeholderPrefix + createdAt.Format("Jan 2, 2006")
}

// isPlaceholderTitle reports whether the title still equals the generated
// default and may therefore be regenerated on the next update.
func isPlaceholderTitle(title string, createdAt time.Time) bool {
	return title == placeholderTitle(createdAt)
}

// deriveTitle builds a title from the first user turn, truncated to
// titleMaxChars plus an ellipsis, or the dated placeholder when no user turn
// exists yet.
func deriveTitle(messages []Message, createdAt time.Time) string {
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		text = strings.Join(strings.Fields(text), " ")
		if runes := []rune(text); len(runes) > titleMaxChars {
			return string(runes[:titleMaxChars]) + "..."
		}
		return text
	}
	return placeholderTitle(createdAt)
}
