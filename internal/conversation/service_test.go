package conversation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NickPittas/littlellm-go/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.FileStore[Meta, Conversation]) {
	t.Helper()
	st, err := store.NewFileStore[Meta, Conversation](filepath.Join(t.TempDir(), "conversations"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	svc := NewService(st, Options{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
	t.Cleanup(svc.Close)
	return svc, st
}

func userMsg(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

func assistantMsg(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

func TestInitialize_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Initialize()
	id := svc.Create([]Message{userMsg("hello")})
	svc.Initialize() // must not reset in-memory state

	all := svc.All()
	if len(all) != 1 || all[0].ID != id {
		t.Fatalf("second Initialize changed state: %+v", all)
	}
}

func TestCreate_IndexAndRecordConsistent(t *testing.T) {
	svc, st := newTestService(t)
	msgs := []Message{userMsg("hi"), assistantMsg("hello there")}
	id := svc.Create(msgs)

	all := svc.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(all))
	}
	metas, err := st.LoadIndex()
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	if len(metas) != 1 || metas[0].MessageCount != 2 {
		t.Fatalf("index mismatch: %+v", metas)
	}
	got := svc.Get(id)
	if got == nil || len(got.Messages) != 2 {
		t.Fatalf("record mismatch: %+v", got)
	}
}

func TestGet_LazyHydrationThenCacheHit(t *testing.T) {
	svc, st := newTestService(t)
	id := svc.Create([]Message{userMsg("remember me"), assistantMsg("ok")})
	svc.Close()

	// Fresh service over the same store: only the index is in memory.
	svc2 := NewService(st, Options{Logger: svc.log})
	t.Cleanup(svc2.Close)

	all := svc2.All()
	if len(all) != 1 || len(all[0].Messages) != 0 {
		t.Fatalf("expected index-only listing, got %+v", all)
	}

	got := svc2.Get(id)
	if got == nil || len(got.Messages) != 2 {
		t.Fatalf("first Get should hydrate, got %+v", got)
	}

	// Remove the record file; a cache hit must not touch the store again.
	if err := st.DeleteRecord(id); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	got = svc2.Get(id)
	if got == nil || len(got.Messages) != 2 {
		t.Fatalf("second Get should be a cache hit, got %+v", got)
	}
}

func TestGet_MissingRecordStaysVisibleButEmpty(t *testing.T) {
	svc, st := newTestService(t)
	id := svc.Create([]Message{userMsg("doomed")})
	if err := st.DeleteRecord(id); err != nil {
		t.Fatalf("delete record: %v", err)
	}

	svc2 := NewService(st, Options{Logger: svc.log})
	t.Cleanup(svc2.Close)
	got := svc2.Get(id)
	if got == nil {
		t.Fatal("conversation should stay visible")
	}
	if len(got.Messages) != 0 {
		t.Fatalf("expected empty messages, got %d", len(got.Messages))
	}
	svc.Close()
}

func TestCreate_BoundedCacheDropsOldest(t *testing.T) {
	svc, _ := newTestService(t)
	var first string
	for i := 0; i < 60; i++ {
		id := svc.Create([]Message{userMsg(fmt.Sprintf("message %d", i))})
		if i == 0 {
			first = id
		}
	}
	all := svc.All()
	if len(all) != 50 {
		t.Fatalf("expected 50 conversations, got %d", len(all))
	}
	for _, c := range all {
		if c.ID == first {
			t.Error("oldest conversation should have been dropped first")
		}
	}
}

func TestUpdate_RegeneratesPlaceholderTitleOnly(t *testing.T) {
	svc, _ := newTestService(t)

	// Assistant-only start yields the dated placeholder.
	id := svc.Create([]Message{assistantMsg("welcome")})
	created := svc.Get(id)
	if !isPlaceholderTitle(created.Title, created.CreatedAt) {
		t.Fatalf("expected placeholder title, got %q", created.Title)
	}
	svc.Update(id, []Message{assistantMsg("welcome"), userMsg("set up my editor")})
	if title := svc.Get(id).Title; title != "set up my editor" {
		t.Fatalf("placeholder should regenerate, got %q", title)
	}

	// A real title must not be regenerated.
	svc.Update(id, []Message{userMsg("something entirely different")})
	if title := svc.Get(id).Title; title != "set up my editor" {
		t.Fatalf("custom title should stick, got %q", title)
	}
}

func TestUpdate_UnknownIDIsNoOp(t *testing.T) {
	svc, st := newTestService(t)
	svc.Update("1234567", []Message{userMsg("ghost")})
	metas, err := st.LoadIndex()
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("no-op update should not persist anything, index has %d", len(metas))
	}
}

func TestDeleteAndClearAll(t *testing.T) {
	svc, st := newTestService(t)
	a := svc.Create([]Message{userMsg("a")})
	b := svc.Create([]Message{userMsg("b")})

	svc.Delete(a)
	if svc.Get(a) != nil {
		t.Error("deleted conversation still retrievable")
	}
	if _, ok, _ := st.LoadRecord(a); ok {
		t.Error("deleted record still on disk")
	}
	if svc.Get(b) == nil {
		t.Error("unrelated conversation was removed")
	}

	svc.ClearAll()
	if len(svc.All()) != 0 {
		t.Error("ClearAll left conversations in memory")
	}
	metas, _ := st.LoadIndex()
	if len(metas) != 0 {
		t.Error("ClearAll left index entries")
	}
}

func TestCleanup_NeverPersistsTruncation(t *testing.T) {
	svc, st := newTestService(t)

	msgs := make([]Message, 0, 250)
	for i := 0; i < 250; i++ {
		msgs = append(msgs, userMsg(fmt.Sprintf("turn %d", i)))
	}
	id := svc.Create(msgs)

	svc.cleanup()

	// The cached body is dropped, not truncated, so the next Get
	// re-hydrates all 250 messages from disk.
	got := svc.Get(id)
	if len(got.Messages) != 250 {
		t.Fatalf("expected full re-hydration after cleanup, got %d messages", len(got.Messages))
	}

	// And a subsequent update persists exactly what the caller passes.
	svc.Update(id, got.Messages)
	rec, ok, err := st.LoadRecord(id)
	if err != nil || !ok {
		t.Fatalf("load record: ok=%v err=%v", ok, err)
	}
	if len(rec.Messages) != 250 {
		t.Fatalf("persisted message list truncated to %d", len(rec.Messages))
	}
}

func TestInitialize_CorruptIndexStartsEmpty(t *testing.T) {
	st, err := store.NewFileStore[Meta, Conversation](filepath.Join(t.TempDir(), "conversations"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := os.WriteFile(st.IndexPath(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt index: %v", err)
	}
	svc := NewService(st, Options{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))})
	t.Cleanup(svc.Close)

	if got := svc.All(); len(got) != 0 {
		t.Errorf("corrupt index should degrade to empty list, got %d", len(got))
	}
}

func TestInitialize_MigratesLegacyBlob(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewFileStore[Meta, Conversation](filepath.Join(dir, "conversations"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	legacy := filepath.Join(dir, "history.json")
	blob := `[{"id":"100","title":"old one","messages":[{"role":"user","content":"hi"}]}]`
	if err := os.WriteFile(legacy, []byte(blob), 0o644); err != nil {
		t.Fatalf("write legacy blob: %v", err)
	}

	svc := NewService(st, Options{
		LegacyBlobPath: legacy,
		Logger:         slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
	t.Cleanup(svc.Close)

	all := svc.All()
	if len(all) != 1 || all[0].Title != "old one" {
		t.Fatalf("legacy conversation not migrated: %+v", all)
	}
	got := svc.Get("100")
	if got == nil || len(got.Messages) != 1 {
		t.Fatalf("legacy messages not migrated: %+v", got)
	}
}

func TestSetToolsHashAndToolsChanged(t *testing.T) {
	svc, _ := newTestService(t)
	id := svc.Create([]Message{userMsg("hello")})

	tools := []ToolSpec{{Name: "search", Description: "web search"}}
	if !svc.ToolsChanged(id, tools) {
		t.Fatal("fresh conversation should report tools changed")
	}
	svc.SetToolsHash(id, HashTools(tools))
	if svc.ToolsChanged(id, tools) {
		t.Error("unchanged tool set should not report changed")
	}
	tools[0].Description = "different"
	if !svc.ToolsChanged(id, tools) {
		t.Error("changed description should report changed")
	}
}
