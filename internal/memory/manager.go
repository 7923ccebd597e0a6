package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Config tunes the automatic memory manager. All fields can be changed at
// runtime through UpdateConfig.
type Config struct {
	EnableAutoSearch   bool
	EnableAutoSave     bool
	SearchThreshold    float64
	SaveThreshold      float64
	MaxContextMemories int
	AutoSaveTypes      []EntryType
}

// DefaultConfig returns the stock manager configuration.
func DefaultConfig() Config {
	return Config{
		EnableAutoSearch:   true,
		EnableAutoSave:     true,
		SearchThreshold:    minRelevance,
		SaveThreshold:      0.7,
		MaxContextMemories: maxContextMemories,
		AutoSaveTypes: []EntryType{
			TypePreference, TypeSolution, TypeCodeSnippet, TypeProjectKnowledge,
		},
	}
}

// Manager drives automatic memory search before each prompt and automatic
// memory capture after each completed turn. Safe for concurrent use.
type Manager struct {
	mu          sync.RWMutex
	cfg         Config
	tokenizer   *Tokenizer
	tokenBudget int
	analyzer    *Analyzer
	store       Store
	logger      *slog.Logger
}

// NewManager creates a Manager over the given store. A nil logger falls
// back to slog.Default.
func NewManager(store Store, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxContextMemories <= 0 {
		cfg.MaxContextMemories = maxContextMemories
	}
	return &Manager{
		cfg:      cfg,
		analyzer: NewAnalyzer(store),
		store:    store,
		logger:   logger,
	}
}

// Config returns a copy of the current configuration.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.cfg
	cfg.AutoSaveTypes = append([]EntryType(nil), m.cfg.AutoSaveTypes...)
	return cfg
}

// UpdateConfig replaces the configuration.
func (m *Manager) UpdateConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cfg.MaxContextMemories <= 0 {
		cfg.MaxContextMemories = maxContextMemories
	}
	m.cfg = cfg
}

// SetTokenBudget caps the injected context block at budget tokens, counted
// with tok. A nil tokenizer or non-positive budget disables the cap.
func (m *Manager) SetTokenBudget(tok *Tokenizer, budget int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenizer = tok
	m.tokenBudget = budget
}

// SetEnabled toggles both automatic search and automatic save at once.
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.EnableAutoSearch = enabled
	m.cfg.EnableAutoSave = enabled
}

// EnhancePrompt searches memory for the user message and splices the
// relevant entries into prompt. With auto-search disabled, or when nothing
// relevant is found, the prompt comes back unchanged.
func (m *Manager) EnhancePrompt(ctx context.Context, prompt, userMessage, conversationID, projectID string, history []string) (string, MemoryContext) {
	m.mu.RLock()
	cfg := m.cfg
	tok, budget := m.tokenizer, m.tokenBudget
	m.mu.RUnlock()

	if !cfg.EnableAutoSearch {
		return prompt, MemoryContext{}
	}

	memCtx := m.analyzer.Context(ctx, userMessage, conversationID, projectID, history)
	memCtx.Relevant = applyConfig(memCtx.Relevant, cfg)
	if len(memCtx.Relevant) == 0 {
		return prompt, memCtx
	}

	m.logger.Debug("injecting memory context",
		"memories", len(memCtx.Relevant),
		"conversation", conversationID,
	)
	return InjectContext(prompt, FormatContextBlock(memCtx.Relevant, tok, budget)), memCtx
}

// applyConfig re-filters ranked memories against the live thresholds, which
// may be stricter than the analyzer defaults.
func applyConfig(ranked []Ranked, cfg Config) []Ranked {
	out := ranked[:0]
	for _, r := range ranked {
		if r.Relevance >= cfg.SearchThreshold {
			out = append(out, r)
		}
	}
	if len(out) > cfg.MaxContextMemories {
		out = out[:cfg.MaxContextMemories]
	}
	return out
}

// AutoSave runs the capture heuristics over a completed turn and persists
// every candidate that clears the save threshold and whose type is in the
// allow-list. Returns the entries actually saved.
func (m *Manager) AutoSave(ctx context.Context, userMessage, aiResponse, conversationID, projectID string) ([]Entry, error) {
	m.mu.RLock()
	cfg := m.cfg
	m.mu.RUnlock()

	if !cfg.EnableAutoSave {
		return nil, nil
	}

	var saved []Entry
	for _, c := range ExtractCandidates(userMessage, aiResponse, projectID) {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if c.Confidence < cfg.SaveThreshold || !typeAllowed(c.Type, cfg.AutoSaveTypes) {
			m.logger.Debug("skipping memory candidate",
				"type", c.Type,
				"confidence", c.Confidence,
				"reason", c.Reason,
			)
			continue
		}
		e, err := m.store.Save(Entry{
			Type:           c.Type,
			Title:          c.Title,
			Content:        c.Content,
			Tags:           withAutoSavedTag(c.Tags),
			ConversationID: conversationID,
			ProjectID:      projectID,
		})
		if err != nil {
			return saved, fmt.Errorf("manager: auto-save %s: %w", c.Type, err)
		}
		m.logger.Info("auto-saved memory",
			"id", e.ID,
			"type", e.Type,
			"confidence", c.Confidence,
		)
		saved = append(saved, e)
	}
	return saved, nil
}

func typeAllowed(t EntryType, allowed []EntryType) bool {
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

func withAutoSavedTag(tags []string) []string {
	for _, t := range tags {
		if t == "auto-saved" {
			return tags
		}
	}
	return append(append([]string(nil), tags...), "auto-saved")
}
