// Package memory maintains the distilled-fact store that is automatically
// searched, scored, and injected into prompts, and automatically populated
// from new conversation turns.
package memory

import "time"

// EntryType classifies a stored memory entry.
type EntryType string

const (
	TypePreference          EntryType = "preference"
	TypeConversationContext EntryType = "conversation-context"
	TypeProjectKnowledge    EntryType = "project-knowledge"
	TypeCodeSnippet         EntryType = "code-snippet"
	TypeSolution            EntryType = "solution"
	TypeGeneral             EntryType = "general"
)

// ValidEntryType returns true if t is a recognised entry type.
func ValidEntryType(t EntryType) bool {
	switch t {
	case TypePreference, TypeConversationContext, TypeProjectKnowledge,
		TypeCodeSnippet, TypeSolution, TypeGeneral:
		return true
	}
	return false
}

// Entry is a single stored memory record: a distilled, reusable fact
// independent of any one conversation turn.
type Entry struct {
	ID             string    `json:"id"`
	Type           EntryType `json:"type"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Tags           []string  `json:"tags,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
	ProjectID      string    `json:"projectId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	AccessCount    int       `json:"accessCount"`
}

// Meta is the index entry for one memory record.
type Meta struct {
	ID        string    `json:"id"`
	Type      EntryType `json:"type"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Query filters a memory search. Every field is independently optional;
// a zero Query matches everything.
type Query struct {
	Text           string
	Type           EntryType
	ConversationID string
	ProjectID      string
	Limit          int
}

// Hit is a search result: an entry plus the store's base relevance estimate
// in [0,1].
type Hit struct {
	Entry
	BaseScore float64
}

// Ranked pairs an entry with its computed relevance score for the duration
// of one prompt-enhancement call.
type Ranked struct {
	Entry
	Relevance float64
}

// Candidate is a proposed, not-yet-persisted memory entry produced by an
// auto-save heuristic. It becomes an Entry only when its confidence clears
// the save threshold and its type is on the allow-list.
type Candidate struct {
	Type       EntryType
	Title      string
	Content    string
	Tags       []string
	Confidence float64
	Reason     string
}
