package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NickPittas/littlellm-go/internal/memory"
	"github.com/NickPittas/littlellm-go/internal/store"
)

func newTestServer(t *testing.T) (*Server, memory.Store) {
	t.Helper()
	st, err := store.NewFileStore[memory.Meta, memory.Entry](t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	backend := memory.NewFileBackend(st)
	return NewServer(backend, nil, "test"), backend
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestMemorySaveAndList(t *testing.T) {
	srv, backend := newTestServer(t)

	res, err := srv.handleMemorySave(context.Background(), callReq(map[string]any{
		"content": "User prefers dark mode",
		"type":    "preference",
	}))
	if err != nil {
		t.Fatalf("handleMemorySave: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), "preference") {
		t.Fatalf("result %q should mention the type", resultText(t, res))
	}

	entries, err := backend.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != memory.TypePreference {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	res, err = srv.handleMemoryList(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("handleMemoryList: %v", err)
	}
	if !strings.Contains(resultText(t, res), "User prefers dark mode") {
		t.Fatalf("list result %q missing saved entry", resultText(t, res))
	}
}

func TestMemorySaveRejectsInvalidType(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := srv.handleMemorySave(context.Background(), callReq(map[string]any{
		"content": "anything",
		"type":    "bogus",
	}))
	if err != nil {
		t.Fatalf("handleMemorySave: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result for invalid type")
	}
}

func TestMemorySaveRequiresContent(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := srv.handleMemorySave(context.Background(), callReq(map[string]any{}))
	if err != nil {
		t.Fatalf("handleMemorySave: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result for missing content")
	}
}

func TestMemorySearch(t *testing.T) {
	srv, backend := newTestServer(t)
	if _, err := backend.Save(memory.Entry{Title: "docker notes", Content: "compose file layout"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	res, err := srv.handleMemorySearch(context.Background(), callReq(map[string]any{
		"query": "docker",
	}))
	if err != nil {
		t.Fatalf("handleMemorySearch: %v", err)
	}
	if !strings.Contains(resultText(t, res), "docker notes") {
		t.Fatalf("search result %q missing hit", resultText(t, res))
	}

	res, err = srv.handleMemorySearch(context.Background(), callReq(map[string]any{
		"query": "kubernetes",
	}))
	if err != nil {
		t.Fatalf("handleMemorySearch: %v", err)
	}
	if got := resultText(t, res); got != "No results found." {
		t.Fatalf("expected no results, got %q", got)
	}
}

func TestMemoryForget(t *testing.T) {
	srv, backend := newTestServer(t)
	saved, err := backend.Save(memory.Entry{Title: "temp", Content: "temp"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	res, err := srv.handleMemoryForget(context.Background(), callReq(map[string]any{
		"id": saved.ID,
	}))
	if err != nil {
		t.Fatalf("handleMemoryForget: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	_, ok, err := backend.Get(saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("entry should be deleted")
	}
}

func TestHistoryListWithoutService(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := srv.handleHistoryList(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("handleHistoryList: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result without a conversation service")
	}
}

func TestExcerpt(t *testing.T) {
	if got := excerpt("short  text\nhere", 60); got != "short text here" {
		t.Errorf("excerpt = %q", got)
	}
	long := strings.Repeat("word ", 40)
	got := excerpt(long, 20)
	if len([]rune(got)) != 23 || !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt = %q", got)
	}
}
