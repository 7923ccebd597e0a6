package conversation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ToolSpec is the projection of a tool declaration that participates in the
// tools fingerprint. Parameters is the tool's JSON schema.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// HashTools returns a deterministic fingerprint of a tool set. Tools are
// projected to {name, description, parameters}, anonymous tools are
// excluded, and the projection is sorted by name, so the result is
// independent of input order. Any change to a name, description, or
// parameter schema changes the hash.
func HashTools(tools []ToolSpec) string {
	normalized := make([]ToolSpec, 0, len(tools))
	for _, t := range tools {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		normalized = append(normalized, t)
	}
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].Name < normalized[j].Name
	})

	var sb strings.Builder
	for _, t := range normalized {
		sb.WriteString(t.Name)
		sb.WriteByte('|')
		sb.WriteString(t.Description)
		sb.WriteByte('|')
		// json.Marshal emits map keys in sorted order, so the schema part
		// of the projection is deterministic too.
		params, _ := json.Marshal(t.Parameters)
		sb.Write(params)
		sb.WriteByte('\n')
	}

	return fmt.Sprintf("%08x", rollingHash(sb.String()))
}

// rollingHash is a simple 32-bit rolling hash over the canonical projection.
func rollingHash(s string) uint32 {
	var h int32
	for _, b := range []byte(s) {
		h = h*31 + int32(b)
	}
	return uint32(h)
}
