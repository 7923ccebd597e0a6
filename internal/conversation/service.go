package conversation

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/NickPittas/littlellm-go/internal/store"
)

// Defaults for the in-memory working set.
const (
	DefaultMaxConversations  = 50
	DefaultMaxCachedMessages = 200
	DefaultCleanupInterval   = 5 * time.Minute
)

// Options tunes a Service. Zero values take the defaults above.
type Options struct {
	MaxConversations  int
	MaxCachedMessages int
	CleanupInterval   time.Duration
	// LegacyBlobPath points at the pre-split single-file history blob.
	// Empty means "history.json next to the family directory".
	LegacyBlobPath string
	Logger         *slog.Logger
}

// entry is one cached conversation. count mirrors the persisted message
// count so the index can be regenerated without hydrating every record;
// hydrated distinguishes a loaded body from an index-only shell.
type entry struct {
	conv     Conversation
	count    int
	hydrated bool
}

// Service owns the conversation list. It is safe for concurrent use, with
// one documented exception: overlapping Update calls for the same id are
// last-write-wins; callers are expected to serialize updates per
// conversation themselves.
type Service struct {
	store *store.FileStore[Meta, Conversation]
	log   *slog.Logger

	maxConversations  int
	maxCachedMessages int
	cleanupInterval   time.Duration
	legacyPath        string

	mu          sync.RWMutex
	entries     []*entry // newest first
	initialized bool
	lastID      int64

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// NewService creates a Service over the given record store. Call Initialize
// before use; it is also called lazily by every operation.
func NewService(st *store.FileStore[Meta, Conversation], opts Options) *Service {
	if opts.MaxConversations <= 0 {
		opts.MaxConversations = DefaultMaxConversations
	}
	if opts.MaxCachedMessages <= 0 {
		opts.MaxCachedMessages = DefaultMaxCachedMessages
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}
	if opts.LegacyBlobPath == "" {
		opts.LegacyBlobPath = filepath.Join(filepath.Dir(st.Dir()), "history.json")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		store:             st,
		log:               opts.Logger,
		maxConversations:  opts.MaxConversations,
		maxCachedMessages: opts.MaxCachedMessages,
		cleanupInterval:   opts.CleanupInterval,
		legacyPath:        opts.LegacyBlobPath,
		stopCleanup:       make(chan struct{}),
	}
}

// Initialize runs the one-time legacy migration, loads the index into the
// in-memory list, and starts the background cleanup loop. Idempotent; a
// failed load degrades to an empty list rather than an error.
func (s *Service) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return
	}
	s.initialized = true

	idOf := func(c Conversation) string { return c.ID }
	metaOf := func(c Conversation) Meta { return c.meta() }
	if n, err := s.store.MigrateLegacyBlob(s.legacyPath, idOf, metaOf, nil); err != nil {
		s.log.Warn("legacy history migration failed", "error", err)
	} else if n > 0 {
		s.log.Info("migrated legacy history blob", "conversations", n)
	}

	metas, err := s.store.LoadIndex()
	if err != nil {
		s.log.Warn("conversation index unreadable, starting empty", "error", err)
		metas = nil
	}

	s.entries = s.entries[:0]
	for _, m := range metas {
		s.entries = append(s.entries, &entry{
			conv: Conversation{
				ID:        m.ID,
				Title:     m.Title,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			count: m.MessageCount,
		})
		if id, err := strconv.ParseInt(m.ID, 10, 64); err == nil && id > s.lastID {
			s.lastID = id
		}
	}
	s.sortNewestFirstLocked()
	if len(s.entries) > s.maxConversations {
		s.entries = s.entries[:s.maxConversations]
	}

	go s.cleanupLoop()
}

// Close stops the background cleanup loop.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.stopCleanup) })
}

func (s *Service) ensureInitialized() {
	s.mu.RLock()
	ok := s.initialized
	s.mu.RUnlock()
	if !ok {
		s.Initialize()
	}
}

// nextID returns a monotonically increasing millisecond id. Two creations in
// the same millisecond bump rather than collide, so the id doubles as an
// order key. Caller holds s.mu.
func (s *Service) nextID() string {
	now := time.Now().UnixMilli()
	if now <= s.lastID {
		now = s.lastID + 1
	}
	s.lastID = now
	return strconv.FormatInt(now, 10)
}

// Create stores a new conversation and returns its id. The title is derived
// from the first user turn, or a dated placeholder when there is none yet.
func (s *Service) Create(messages []Message) string {
	s.ensureInitialized()
	s.mu.Lock()

	now := time.Now()
	e := &entry{
		conv: Conversation{
			ID:        s.nextID(),
			Messages:  messages,
			CreatedAt: now,
			UpdatedAt: now,
		},
		count:    len(messages),
		hydrated: true,
	}
	e.conv.Title = deriveTitle(messages, now)

	s.entries = append([]*entry{e}, s.entries...)
	if len(s.entries) > s.maxConversations {
		s.entries = s.entries[:s.maxConversations]
	}

	record := e.conv
	metas := s.metasLocked()
	s.mu.Unlock()

	s.persist(record, metas)
	return record.ID
}

// Update replaces the message list of an existing conversation and persists
// it. The title is regenerated only while it is still the dated placeholder.
// An unknown id is a silent no-op.
func (s *Service) Update(id string, messages []Message) {
	s.ensureInitialized()
	s.mu.Lock()

	e := s.findLocked(id)
	if e == nil {
		s.mu.Unlock()
		return
	}
	e.conv.Messages = messages
	e.conv.UpdatedAt = time.Now()
	e.count = len(messages)
	e.hydrated = true
	if isPlaceholderTitle(e.conv.Title, e.conv.CreatedAt) {
		e.conv.Title = deriveTitle(messages, e.conv.CreatedAt)
	}

	record := e.conv
	metas := s.metasLocked()
	s.mu.Unlock()

	s.persist(record, metas)
}

// All returns index-level metadata for every conversation in the working
// set, newest first. Messages are always empty; call Get to hydrate one.
func (s *Service) All() []Conversation {
	s.ensureInitialized()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Conversation, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, Conversation{
			ID:        e.conv.ID,
			Title:     e.conv.Title,
			CreatedAt: e.conv.CreatedAt,
			UpdatedAt: e.conv.UpdatedAt,
			ToolsHash: e.conv.ToolsHash,
		})
	}
	return out
}

// Get returns the full conversation, hydrating the message body from the
// record store on first access; the second access is a cache hit. A
// conversation whose record file is missing (partial write) stays visible
// but empty. Unknown id returns nil.
func (s *Service) Get(id string) *Conversation {
	s.ensureInitialized()
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.findLocked(id)
	if e == nil {
		return nil
	}
	if !e.hydrated {
		rec, ok, err := s.store.LoadRecord(id)
		if err != nil {
			s.log.Warn("conversation record unreadable", "id", id, "error", err)
		} else if ok {
			e.conv.Messages = rec.Messages
			e.conv.ToolsHash = rec.ToolsHash
			e.count = len(rec.Messages)
			e.hydrated = true
		} else {
			// Index entry without a record file: tolerate, stay visible
			// but empty, and keep trying on later accesses.
			e.conv.Messages = nil
		}
	}
	out := e.conv
	return &out
}

// Delete removes one conversation from memory and disk.
func (s *Service) Delete(id string) {
	s.ensureInitialized()
	s.mu.Lock()
	for i, e := range s.entries {
		if e.conv.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	metas := s.metasLocked()
	s.mu.Unlock()

	if err := s.store.DeleteRecord(id); err != nil {
		s.log.Warn("delete conversation record failed", "id", id, "error", err)
	}
	if err := s.store.SaveIndex(metas); err != nil {
		s.log.Warn("save conversation index failed", "error", err)
	}
}

// ClearAll removes every conversation from memory and disk.
func (s *Service) ClearAll() {
	s.ensureInitialized()
	s.mu.Lock()
	ids := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		ids = append(ids, e.conv.ID)
	}
	s.entries = nil
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.store.DeleteRecord(id); err != nil {
			s.log.Warn("delete conversation record failed", "id", id, "error", err)
		}
	}
	if err := s.store.SaveIndex(nil); err != nil {
		s.log.Warn("save conversation index failed", "error", err)
	}
}

// SetToolsHash records the fingerprint of the tool set last sent for this
// conversation. Unknown id is a silent no-op.
func (s *Service) SetToolsHash(id, hash string) {
	s.ensureInitialized()
	s.mu.Lock()
	e := s.findLocked(id)
	if e == nil || e.conv.ToolsHash == hash {
		s.mu.Unlock()
		return
	}
	if !e.hydrated {
		// Persisting an index-only shell would clobber the stored messages.
		if rec, ok, err := s.store.LoadRecord(id); err == nil && ok {
			e.conv.Messages = rec.Messages
			e.count = len(rec.Messages)
			e.hydrated = true
		}
	}
	e.conv.ToolsHash = hash
	e.conv.UpdatedAt = time.Now()
	record := e.conv
	metas := s.metasLocked()
	s.mu.Unlock()

	s.persist(record, metas)
}

// ToolsChanged reports whether the given tool set differs from the one last
// sent for this conversation.
func (s *Service) ToolsChanged(id string, tools []ToolSpec) bool {
	s.ensureInitialized()
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.findLocked(id)
	if e == nil {
		return true
	}
	return e.conv.ToolsHash != HashTools(tools)
}

// RefreshFromDisk reloads the index, replacing in-memory metadata while
// keeping hydrated message bodies whose records did not change. Wired to the
// store's index watcher so a second window over the same data directory
// stays current.
func (s *Service) RefreshFromDisk() {
	s.ensureInitialized()
	metas, err := s.store.LoadIndex()
	if err != nil {
		s.log.Warn("refresh: conversation index unreadable", "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := make(map[string]*entry, len(s.entries))
	for _, e := range s.entries {
		prev[e.conv.ID] = e
	}
	s.entries = s.entries[:0]
	for _, m := range metas {
		e := &entry{
			conv:  Conversation{ID: m.ID, Title: m.Title, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
			count: m.MessageCount,
		}
		if old, ok := prev[m.ID]; ok && old.hydrated && old.conv.UpdatedAt.Equal(m.UpdatedAt) {
			e.conv.Messages = old.conv.Messages
			e.conv.ToolsHash = old.conv.ToolsHash
			e.count = old.count
			e.hydrated = true
		}
		s.entries = append(s.entries, e)
	}
	s.sortNewestFirstLocked()
	if len(s.entries) > s.maxConversations {
		s.entries = s.entries[:s.maxConversations]
	}
}

// persist writes the record file then the regenerated index. Failures are
// logged, never fatal: the in-memory state stays the source of truth and the
// next mutation retries the write.
func (s *Service) persist(record Conversation, metas []Meta) {
	if err := s.store.SaveRecord(record.ID, record); err != nil {
		s.log.Warn("save conversation record failed", "id", record.ID, "error", err)
	}
	if err := s.store.SaveIndex(metas); err != nil {
		s.log.Warn("save conversation index failed", "error", err)
	}
}

// cleanupLoop bounds the in-memory working set on a timer. It caps the list
// and drops oversized cached message bodies back to index-only state. It
// never writes to disk, and because Update persists exactly what the caller
// passes, the bound cannot leak truncated history into a record file.
func (s *Service) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Service) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) > s.maxConversations {
		s.entries = s.entries[:s.maxConversations]
	}
	for _, e := range s.entries {
		if len(e.conv.Messages) > s.maxCachedMessages {
			// Drop the whole body, not the tail: the next Get re-hydrates
			// the full list from disk, so nothing is lost.
			e.conv.Messages = nil
			e.hydrated = false
		}
	}
}

func (s *Service) findLocked(id string) *entry {
	for _, e := range s.entries {
		if e.conv.ID == id {
			return e
		}
	}
	return nil
}

func (s *Service) metasLocked() []Meta {
	metas := make([]Meta, 0, len(s.entries))
	for _, e := range s.entries {
		m := e.conv.meta()
		m.MessageCount = e.count
		metas = append(metas, m)
	}
	return metas
}

func (s *Service) sortNewestFirstLocked() {
	sort.Slice(s.entries, func(i, j int) bool {
		a, _ := strconv.ParseInt(s.entries[i].conv.ID, 10, 64)
		b, _ := strconv.ParseInt(s.entries[j].conv.ID, 10, 64)
		return a > b
	})
}
