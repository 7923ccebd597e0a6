package memory

import (
	"context"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) (*Manager, *FileBackend) {
	t.Helper()
	b := newTestBackend(t)
	return NewManager(b, DefaultConfig(), nil), b
}

func TestManagerEnhancePromptInjectsMemories(t *testing.T) {
	m, b := newTestManager(t)
	mustSave(t, b, Entry{
		Type:    TypePreference,
		Title:   "User Preference: dark mode",
		Content: "User prefers dark mode in the editor",
		Tags:    []string{"preference", "editor"},
	})

	prompt := "You are a helpful assistant."
	enhanced, memCtx := m.EnhancePrompt(context.Background(), prompt, "Open the editor settings", "", "", nil)
	if len(memCtx.Relevant) == 0 {
		t.Fatal("expected relevant memories")
	}
	if !strings.Contains(enhanced, "dark mode") {
		t.Fatalf("enhanced prompt missing memory content:\n%s", enhanced)
	}
}

func TestManagerEnhancePromptDisabled(t *testing.T) {
	m, b := newTestManager(t)
	mustSave(t, b, Entry{Type: TypePreference, Title: "Theme", Content: "dark mode"})

	cfg := m.Config()
	cfg.EnableAutoSearch = false
	m.UpdateConfig(cfg)

	prompt := "You are a helpful assistant."
	enhanced, memCtx := m.EnhancePrompt(context.Background(), prompt, "dark mode theme please", "", "", nil)
	if enhanced != prompt {
		t.Fatalf("disabled auto-search must leave the prompt unchanged:\n%s", enhanced)
	}
	if len(memCtx.Relevant) != 0 {
		t.Fatalf("disabled auto-search should return no memories, got %d", len(memCtx.Relevant))
	}
}

func TestManagerAutoSavePersistsHighConfidence(t *testing.T) {
	m, b := newTestManager(t)

	saved, err := m.AutoSave(context.Background(), "I prefer dark mode in the editor.", "Noted.", "conv-1", "")
	if err != nil {
		t.Fatalf("AutoSave: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved entry, got %d", len(saved))
	}
	e := saved[0]
	if e.Type != TypePreference {
		t.Fatalf("type = %q, want %q", e.Type, TypePreference)
	}
	if !containsString(e.Tags, "auto-saved") {
		t.Fatalf("tags %v missing auto-saved", e.Tags)
	}
	if e.ConversationID != "conv-1" {
		t.Fatalf("conversation id = %q", e.ConversationID)
	}

	got, ok, err := b.Get(e.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Title != e.Title {
		t.Fatalf("persisted title %q != returned %q", got.Title, e.Title)
	}
}

func TestManagerAutoSaveThresholdGating(t *testing.T) {
	m, _ := newTestManager(t)

	// Snippet confidence is 0.6, below the default 0.7 threshold.
	resp := "```go\n// clamp bounds v to [lo, hi].\nfunc clamp(v, lo, hi int) int {\n\tif v < lo {\n\t\treturn lo\n\t}\n\treturn v\n}\n```"
	saved, err := m.AutoSave(context.Background(), "thanks", resp, "", "")
	if err != nil {
		t.Fatalf("AutoSave: %v", err)
	}
	if len(saved) != 0 {
		t.Fatalf("snippet below threshold should not be saved, got %d entries", len(saved))
	}

	cfg := m.Config()
	cfg.SaveThreshold = 0.5
	m.UpdateConfig(cfg)

	saved, err = m.AutoSave(context.Background(), "thanks", resp, "", "")
	if err != nil {
		t.Fatalf("AutoSave: %v", err)
	}
	if len(saved) != 1 || saved[0].Type != TypeCodeSnippet {
		t.Fatalf("lowered threshold should save the snippet, got %+v", saved)
	}
}

func TestManagerAutoSaveTypeAllowList(t *testing.T) {
	m, _ := newTestManager(t)

	cfg := m.Config()
	cfg.AutoSaveTypes = []EntryType{TypeSolution}
	m.UpdateConfig(cfg)

	saved, err := m.AutoSave(context.Background(), "I prefer dark mode.", "Noted.", "", "")
	if err != nil {
		t.Fatalf("AutoSave: %v", err)
	}
	if len(saved) != 0 {
		t.Fatalf("preference is off the allow-list, got %d entries", len(saved))
	}
}

func TestManagerAutoSaveDisabled(t *testing.T) {
	m, _ := newTestManager(t)
	m.SetEnabled(false)

	saved, err := m.AutoSave(context.Background(), "I prefer dark mode.", "Noted.", "", "")
	if err != nil {
		t.Fatalf("AutoSave: %v", err)
	}
	if saved != nil {
		t.Fatalf("disabled auto-save should return nil, got %+v", saved)
	}
}

func TestManagerConfigCopyIsolation(t *testing.T) {
	m, _ := newTestManager(t)

	cfg := m.Config()
	cfg.AutoSaveTypes[0] = TypeGeneral
	if m.Config().AutoSaveTypes[0] == TypeGeneral {
		t.Fatal("mutating a returned config must not affect the manager")
	}
}
