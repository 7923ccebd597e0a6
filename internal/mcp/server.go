// Package mcp exposes the memory store and conversation history as MCP
// tools over stdio, so external assistants can read and write the same
// memories the chat client uses.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NickPittas/littlellm-go/internal/conversation"
	"github.com/NickPittas/littlellm-go/internal/memory"
)

// Server wires tool handlers to the stores they operate on.
type Server struct {
	store         memory.Store
	conversations *conversation.Service
	version       string
}

// NewServer creates an MCP server over the given stores. conversations may
// be nil, in which case the history tools report an error.
func NewServer(store memory.Store, conversations *conversation.Service, version string) *Server {
	return &Server{store: store, conversations: conversations, version: version}
}

// Serve registers all tools and serves MCP over stdio until the client
// disconnects.
func (s *Server) Serve() error {
	srv := server.NewMCPServer("littlellm", s.version,
		server.WithToolCapabilities(false),
	)

	srv.AddTool(mcp.NewTool("memory_save",
		mcp.WithDescription("Save a memory entry (a distilled, reusable fact) to the shared memory store."),
		mcp.WithString("content", mcp.Required(), mcp.Description("The fact to remember")),
		mcp.WithString("title", mcp.Description("Short title; derived from content when omitted")),
		mcp.WithString("type", mcp.Description("Entry type: preference, conversation-context, project-knowledge, code-snippet, solution, general")),
		mcp.WithString("project_id", mcp.Description("Project to attach the memory to")),
	), s.handleMemorySave)

	srv.AddTool(mcp.NewTool("memory_search",
		mcp.WithDescription("Search stored memories by free text and optional type filter."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free text query")),
		mcp.WithString("type", mcp.Description("Restrict to one entry type")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
	), s.handleMemorySearch)

	srv.AddTool(mcp.NewTool("memory_list",
		mcp.WithDescription("List stored memories, newest first."),
		mcp.WithString("type", mcp.Description("Restrict to one entry type")),
	), s.handleMemoryList)

	srv.AddTool(mcp.NewTool("memory_forget",
		mcp.WithDescription("Delete a memory entry by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	), s.handleMemoryForget)

	srv.AddTool(mcp.NewTool("history_list",
		mcp.WithDescription("List recent conversations, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum conversations (default 10)")),
	), s.handleHistoryList)

	return server.ServeStdio(srv)
}
