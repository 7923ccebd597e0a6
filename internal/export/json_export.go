package export

import (
	"encoding/json"
	"time"

	"github.com/NickPittas/littlellm-go/internal/memory"
)

// JSONExporter renders ExportData as structured JSON.
type JSONExporter struct{}

type jsonOutput struct {
	Conversation *jsonConversation       `json:"conversation,omitempty"`
	Memories     map[string][]jsonMemory `json:"memories"`
}

type jsonConversation struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"createdAt"`
	Messages  []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type jsonMemory struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

func (e *JSONExporter) Export(data ExportData) (string, error) {
	out := jsonOutput{
		Memories: groupMemoriesByType(data.Memories),
	}

	if conv := data.Conversation; conv != nil {
		jc := &jsonConversation{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
		}
		for _, m := range conv.Messages {
			jc.Messages = append(jc.Messages, jsonMessage{
				Role:      string(m.Role),
				Content:   m.Content,
				Timestamp: m.Timestamp,
			})
		}
		out.Conversation = jc
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func groupMemoriesByType(memories []memory.Entry) map[string][]jsonMemory {
	groups := make(map[string][]jsonMemory)
	for _, m := range memories {
		key := string(m.Type)
		groups[key] = append(groups[key], jsonMemory{
			ID:      m.ID,
			Title:   m.Title,
			Content: m.Content,
			Tags:    m.Tags,
		})
	}
	// Return nil map as empty object in JSON.
	if len(groups) == 0 {
		return map[string][]jsonMemory{}
	}
	return groups
}
