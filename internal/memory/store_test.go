package memory

import (
	"testing"

	"github.com/NickPittas/littlellm-go/internal/store"
)

func newTestBackend(t *testing.T) *FileBackend {
	t.Helper()
	st, err := store.NewFileStore[Meta, Entry](t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewFileBackend(st)
}

func TestFileBackendSaveAssignsIdentity(t *testing.T) {
	b := newTestBackend(t)

	e, err := b.Save(Entry{Title: "Dark mode", Content: "User prefers dark mode"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e.ID == "" {
		t.Fatal("expected generated id")
	}
	if e.Type != TypeGeneral {
		t.Fatalf("expected default type %q, got %q", TypeGeneral, e.Type)
	}
	if e.CreatedAt.IsZero() || e.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	got, ok, err := b.Get(e.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Title != "Dark mode" {
		t.Fatalf("unexpected title %q", got.Title)
	}
}

func TestFileBackendSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewFileStore[Meta, Entry](dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	b := NewFileBackend(st)
	saved, err := b.Save(Entry{Type: TypePreference, Title: "Editor", Content: "Uses vim keybindings"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	st2, err := store.NewFileStore[Meta, Entry](dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	b2 := NewFileBackend(st2)
	got, ok, err := b2.Get(saved.ID)
	if err != nil || !ok {
		t.Fatalf("Get after reopen: ok=%v err=%v", ok, err)
	}
	if got.Content != "Uses vim keybindings" {
		t.Fatalf("unexpected content %q", got.Content)
	}
}

func TestFileBackendDeleteUnknownIsNoop(t *testing.T) {
	b := newTestBackend(t)
	if err := b.Delete("nope"); err != nil {
		t.Fatalf("Delete unknown: %v", err)
	}
}

func TestFileBackendSearchFilters(t *testing.T) {
	b := newTestBackend(t)
	mustSave(t, b, Entry{Type: TypePreference, Title: "Theme", Content: "dark mode everywhere", ConversationID: "c1"})
	mustSave(t, b, Entry{Type: TypeSolution, Title: "Port clash", Content: "kill the stale process", ConversationID: "c2"})
	mustSave(t, b, Entry{Type: TypePreference, Title: "Tabs", Content: "tabs over spaces", ProjectID: "p1"})

	hits, err := b.Search(Query{Type: TypePreference})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 preference hits, got %d", len(hits))
	}
	for _, h := range hits {
		if h.BaseScore != 0.5 {
			t.Fatalf("filter-only search should score 0.5, got %v", h.BaseScore)
		}
	}

	hits, err = b.Search(Query{ConversationID: "c2"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Title != "Port clash" {
		t.Fatalf("unexpected conversation hits: %+v", hits)
	}

	hits, err = b.Search(Query{Text: "dark mode"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Title != "Theme" {
		t.Fatalf("unexpected text hits: %+v", hits)
	}
}

func TestFileBackendSearchRanksTitleAboveContent(t *testing.T) {
	b := newTestBackend(t)
	mustSave(t, b, Entry{Title: "docker compose setup", Content: "nothing"})
	mustSave(t, b, Entry{Title: "misc", Content: "mentions docker in passing"})

	hits, err := b.Search(Query{Text: "docker"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Title != "docker compose setup" {
		t.Fatalf("expected title match ranked first, got %q", hits[0].Title)
	}
	if hits[0].BaseScore <= hits[1].BaseScore {
		t.Fatalf("title match should outscore content match: %v vs %v", hits[0].BaseScore, hits[1].BaseScore)
	}
}

func TestFileBackendIncrementAccessPersists(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewFileStore[Meta, Entry](dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	b := NewFileBackend(st)
	saved := mustSave(t, b, Entry{Title: "Counted", Content: "body"})

	for i := 0; i < 3; i++ {
		if err := b.IncrementAccess(saved.ID); err != nil {
			t.Fatalf("IncrementAccess: %v", err)
		}
	}
	if err := b.IncrementAccess("unknown"); err != nil {
		t.Fatalf("IncrementAccess unknown: %v", err)
	}

	st2, err := store.NewFileStore[Meta, Entry](dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	got, ok, err := NewFileBackend(st2).Get(saved.ID)
	if err != nil || !ok {
		t.Fatalf("Get after reopen: ok=%v err=%v", ok, err)
	}
	if got.AccessCount != 3 {
		t.Fatalf("expected access count 3, got %d", got.AccessCount)
	}
}

func TestSearchTermsDropsShortWords(t *testing.T) {
	terms := searchTerms("Go is my DB of choice!")
	want := map[string]bool{"choice": true}
	if len(terms) != 1 || !want[terms[0]] {
		t.Fatalf("unexpected terms: %v", terms)
	}
}

func mustSave(t *testing.T, s Store, e Entry) Entry {
	t.Helper()
	saved, err := s.Save(e)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	return saved
}
