package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NickPittas/littlellm-go/internal/memory"
)

func (s *Server) handleMemorySave(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}

	typeStr := req.GetString("type", "")
	entryType := memory.EntryType(typeStr)
	if typeStr == "" {
		entryType = memory.TypeGeneral
	} else if !memory.ValidEntryType(entryType) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid type %q (valid: preference, conversation-context, project-knowledge, code-snippet, solution, general)", typeStr)), nil
	}

	title := req.GetString("title", "")
	if title == "" {
		title = excerpt(content, 60)
	}

	saved, saveErr := s.store.Save(memory.Entry{
		Type:      entryType,
		Title:     title,
		Content:   content,
		ProjectID: req.GetString("project_id", ""),
	})
	if saveErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save memory: %v", saveErr)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved as %s (id: %s)", saved.Type, saved.ID)), nil
}

func (s *Server) handleMemorySearch(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := req.GetInt("limit", 10)

	hits, searchErr := s.store.Search(memory.Query{
		Text:  query,
		Type:  memory.EntryType(req.GetString("type", "")),
		Limit: limit,
	})
	if searchErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", searchErr)), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("No results found."), nil
	}

	var sb strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&sb, "[%s] %s (id: %s, score: %.2f)\n  %s\n\n",
			h.Type, h.Title, h.ID, h.BaseScore, excerpt(h.Content, 200))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleMemoryList(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeStr := req.GetString("type", "")

	entries, err := s.store.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list memories: %v", err)), nil
	}

	var sb strings.Builder
	for _, e := range entries {
		if typeStr != "" && string(e.Type) != typeStr {
			continue
		}
		fmt.Fprintf(&sb, "[%s] %s\n  id: %s | created: %s\n\n",
			e.Type, e.Title, e.ID, e.CreatedAt.Format("2006-01-02 15:04"))
	}
	if sb.Len() == 0 {
		return mcp.NewToolResultText("No memories stored."), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleMemoryForget(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	if delErr := s.store.Delete(id); delErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete memory: %v", delErr)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Memory %s deleted.", id)), nil
}

func (s *Server) handleHistoryList(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.conversations == nil {
		return mcp.NewToolResultError("conversation history is not available"), nil
	}
	limit := req.GetInt("limit", 10)

	convs := s.conversations.All()
	if len(convs) == 0 {
		return mcp.NewToolResultText("No conversations recorded."), nil
	}
	if limit > 0 && len(convs) > limit {
		convs = convs[:limit]
	}

	var sb strings.Builder
	for _, c := range convs {
		fmt.Fprintf(&sb, "[%s] %s\n  id: %s\n\n",
			c.UpdatedAt.Format("2006-01-02 15:04"), c.Title, c.ID)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// excerpt shortens s to at most max runes on a single line.
func excerpt(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
