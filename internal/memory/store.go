package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NickPittas/littlellm-go/internal/store"
)

// Store is the per-entry memory persistence backend consumed by the
// analyzer and the automatic manager. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save persists an entry, assigning an id and timestamps when absent,
	// and returns the stored value.
	Save(e Entry) (Entry, error)

	// Get returns one entry by id.
	Get(id string) (Entry, bool, error)

	// Delete removes an entry. Unknown id is a no-op.
	Delete(id string) error

	// List returns every entry, newest first.
	List() ([]Entry, error)

	// Search returns entries matching the query with a base relevance
	// estimate in [0,1]. An empty query matches everything at base 0.5.
	Search(q Query) ([]Hit, error)

	// IncrementAccess bumps an entry's access counter, which feeds back
	// into future relevance scoring.
	IncrementAccess(id string) error
}

// FileBackend keeps every entry in memory and writes through to an index +
// per-record file store. Memory entries are small distilled facts, so
// loading the whole family eagerly is cheap; installs that outgrow this use
// the SQLite backend instead.
type FileBackend struct {
	store *store.FileStore[Meta, Entry]

	mu      sync.RWMutex
	entries map[string]Entry
	loaded  bool
}

// NewFileBackend creates a file-backed memory store over st.
func NewFileBackend(st *store.FileStore[Meta, Entry]) *FileBackend {
	return &FileBackend{store: st, entries: make(map[string]Entry)}
}

// load hydrates the in-memory set from disk once. Records listed in the
// index whose files are missing are skipped, not fatal.
func (b *FileBackend) load() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		return nil
	}
	metas, err := b.store.LoadIndex()
	if err != nil {
		return fmt.Errorf("memory: load index: %w", err)
	}
	for _, m := range metas {
		e, ok, err := b.store.LoadRecord(m.ID)
		if err != nil || !ok {
			continue
		}
		b.entries[e.ID] = e
	}
	b.loaded = true
	return nil
}

func (b *FileBackend) Save(e Entry) (Entry, error) {
	if err := b.load(); err != nil {
		return Entry{}, err
	}
	now := time.Now()
	if e.ID == "" {
		e.ID = uuid.NewString()
		e.CreatedAt = now
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	if e.Type == "" {
		e.Type = TypeGeneral
	}

	b.mu.Lock()
	b.entries[e.ID] = e
	metas := b.metasLocked()
	b.mu.Unlock()

	if err := b.store.SaveRecord(e.ID, e); err != nil {
		return e, fmt.Errorf("memory: save entry: %w", err)
	}
	if err := b.store.SaveIndex(metas); err != nil {
		return e, fmt.Errorf("memory: save index: %w", err)
	}
	return e, nil
}

func (b *FileBackend) Get(id string) (Entry, bool, error) {
	if err := b.load(); err != nil {
		return Entry{}, false, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[id]
	return e, ok, nil
}

func (b *FileBackend) Delete(id string) error {
	if err := b.load(); err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.entries, id)
	metas := b.metasLocked()
	b.mu.Unlock()

	if err := b.store.DeleteRecord(id); err != nil {
		return fmt.Errorf("memory: delete entry: %w", err)
	}
	if err := b.store.SaveIndex(metas); err != nil {
		return fmt.Errorf("memory: save index: %w", err)
	}
	return nil
}

func (b *FileBackend) List() ([]Entry, error) {
	if err := b.load(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (b *FileBackend) Search(q Query) ([]Hit, error) {
	if err := b.load(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	var hits []Hit
	for _, e := range b.entries {
		if q.Type != "" && e.Type != q.Type {
			continue
		}
		if q.ConversationID != "" && e.ConversationID != q.ConversationID {
			continue
		}
		if q.ProjectID != "" && e.ProjectID != q.ProjectID {
			continue
		}
		base := baseScore(e, q.Text)
		if base <= 0 {
			continue
		}
		hits = append(hits, Hit{Entry: e, BaseScore: base})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].BaseScore > hits[j].BaseScore })
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return hits, nil
}

func (b *FileBackend) IncrementAccess(id string) error {
	if err := b.load(); err != nil {
		return err
	}
	b.mu.Lock()
	e, ok := b.entries[id]
	if !ok {
		b.mu.Unlock()
		return nil
	}
	e.AccessCount++
	b.entries[id] = e
	b.mu.Unlock()

	if err := b.store.SaveRecord(id, e); err != nil {
		return fmt.Errorf("memory: save access count: %w", err)
	}
	return nil
}

func (b *FileBackend) metasLocked() []Meta {
	metas := make([]Meta, 0, len(b.entries))
	for _, e := range b.entries {
		metas = append(metas, Meta{
			ID:        e.ID,
			Type:      e.Type,
			Title:     e.Title,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		})
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].CreatedAt.After(metas[j].CreatedAt) })
	return metas
}

// baseScore estimates how well an entry matches free text: each query term
// found in the title, content, or tags contributes, clamped to [0,1]. With
// no free text every filter-matched entry scores a neutral 0.5.
func baseScore(e Entry, text string) float64 {
	terms := searchTerms(text)
	if len(terms) == 0 {
		return 0.5
	}
	title := strings.ToLower(e.Title)
	content := strings.ToLower(e.Content)
	tags := strings.ToLower(strings.Join(e.Tags, " "))

	var score float64
	for _, term := range terms {
		switch {
		case strings.Contains(title, term):
			score += 0.3
		case strings.Contains(tags, term):
			score += 0.25
		case strings.Contains(content, term):
			score += 0.2
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}

// searchTerms lowercases and splits free text, dropping terms too short to
// be meaningful.
func searchTerms(text string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,;:!?\"'()[]{}")
		if len(f) > 2 {
			terms = append(terms, f)
		}
	}
	return terms
}
