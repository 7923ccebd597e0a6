package export

import (
	"fmt"
	"strings"

	"github.com/NickPittas/littlellm-go/internal/memory"
)

// MarkdownExporter renders a transcript and memories as generic markdown.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(data ExportData) (string, error) {
	var b strings.Builder

	if conv := data.Conversation; conv != nil {
		fmt.Fprintf(&b, "# %s\n\n", conv.Title)
		fmt.Fprintf(&b, "Started %s, %d messages.\n\n", conv.CreatedAt.Format("2006-01-02 15:04"), len(conv.Messages))
		for _, m := range conv.Messages {
			fmt.Fprintf(&b, "**%s** (%s)\n\n%s\n\n", m.Role, m.Timestamp.Format("15:04"), m.Content)
		}
	}

	if len(data.Memories) > 0 {
		if data.Conversation != nil {
			b.WriteString("---\n\n")
		}
		b.WriteString("# Memories\n\n")
		for _, section := range []struct {
			heading string
			et      memory.EntryType
		}{
			{"Preferences", memory.TypePreference},
			{"Solutions", memory.TypeSolution},
			{"Project Knowledge", memory.TypeProjectKnowledge},
			{"Code Snippets", memory.TypeCodeSnippet},
			{"Conversation Context", memory.TypeConversationContext},
			{"General", memory.TypeGeneral},
		} {
			b.WriteString(memorySection(section.heading, section.et, data.Memories))
		}
	}

	return b.String(), nil
}
