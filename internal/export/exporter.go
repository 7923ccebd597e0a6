// Package export renders conversations and memories into portable formats.
package export

import (
	"fmt"

	"github.com/NickPittas/littlellm-go/internal/conversation"
	"github.com/NickPittas/littlellm-go/internal/memory"
)

// ExportData is passed to every Exporter. Conversation may be nil when only
// memories are exported, and Memories may be empty.
type ExportData struct {
	Conversation *conversation.Conversation
	Memories     []memory.Entry
}

// Exporter renders ExportData to a string in a specific format.
type Exporter interface {
	Export(data ExportData) (string, error)
}

// registry maps format names to Exporter implementations.
var registry = map[string]Exporter{
	"markdown": &MarkdownExporter{},
	"json":     &JSONExporter{},
}

// Get returns the Exporter registered under name, and whether it was found.
func Get(name string) (Exporter, bool) {
	e, ok := registry[name]
	return e, ok
}

// ValidFormats returns the list of supported export format names.
func ValidFormats() []string {
	formats := make([]string, 0, len(registry))
	for k := range registry {
		formats = append(formats, k)
	}
	return formats
}

// memorySection renders memories of the given type as a markdown list block.
func memorySection(heading string, entryType memory.EntryType, memories []memory.Entry) string {
	var items []memory.Entry
	for _, m := range memories {
		if m.Type == entryType {
			items = append(items, m)
		}
	}
	if len(items) == 0 {
		return ""
	}
	out := fmt.Sprintf("## %s\n\n", heading)
	for _, m := range items {
		out += fmt.Sprintf("- %s\n", m.Content)
	}
	out += "\n"
	return out
}
