package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"
)

// Intent classifies what the user is trying to do in one message.
type Intent string

const (
	IntentPreference      Intent = "preference"
	IntentQuestion        Intent = "question"
	IntentCreation        Intent = "creation"
	IntentTroubleshooting Intent = "troubleshooting"
	IntentGeneral         Intent = "general"
)

// Analysis is the result of analyzing one user message against its recent
// history.
type Analysis struct {
	Topics             []string
	Intent             Intent
	Entities           []string
	Triggers           []string
	ShouldCreateMemory bool
	SuggestedType      EntryType
}

// MemoryContext is the ranked, prompt-injectable result of one search pass.
type MemoryContext struct {
	Relevant []Ranked
	Summary  string
	Total    int
}

// Analyzer extracts topics, intent, and entities from messages, searches
// the memory store, and ranks candidate memories for prompt injection.
type Analyzer struct {
	store Store
}

// NewAnalyzer creates an Analyzer over the given memory store.
func NewAnalyzer(store Store) *Analyzer {
	return &Analyzer{store: store}
}

// topicVocabulary is the fixed technology/action keyword list matched
// against messages. Matching is whole-word, case-insensitive.
var topicVocabulary = []string{
	"javascript", "typescript", "python", "golang", "rust", "java", "sql",
	"react", "vue", "svelte", "node", "docker", "kubernetes", "linux",
	"database", "api", "frontend", "backend", "terminal", "editor",
	"testing", "deployment", "git", "debugging", "security", "performance",
	"debug", "refactor", "install", "configure", "optimize", "design",
	"build", "deploy", "review",
}

// Analysis cue lists. First matching intent rule wins, in this order.
var (
	preferenceCues = []string{"prefer", "i like", "i love", "i hate", "always use", "never use", "rather", "favorite"}
	questionCues   = []string{"how ", "what ", "why ", "when ", "where ", "which ", "can i", "should i"}
	creationCues   = []string{"create", "build", "make", "generate", "write", "implement", "add a", "set up"}
	troubleCues    = []string{"error", "bug", "fix", "issue", "problem", "fail", "broken", "crash", "not working", "doesn't work"}

	rememberCues = []string{"remember", "don't forget", "important", "note that", "keep in mind"}
	solvedCues   = []string{"worked", "solved", "fixed it", "that did it", "resolved", "works now"}
)

// AnalyzeMessage extracts topics, intent, entities and memory triggers from
// a user message. recentHistory is the last few turns (plain content,
// oldest first) and is only consulted for the troubleshooting-resolved cue.
func (a *Analyzer) AnalyzeMessage(message string, recentHistory []string) Analysis {
	lower := strings.ToLower(message)

	an := Analysis{
		Topics:   matchTopics(lower),
		Intent:   classifyIntent(lower),
		Entities: extractEntities(message),
	}

	// Memory triggers: cues that suggest this turn is worth remembering.
	for _, cue := range preferenceCues {
		if strings.Contains(lower, cue) {
			an.Triggers = append(an.Triggers, "preference:"+cue)
		}
	}
	for _, cue := range rememberCues {
		if strings.Contains(lower, cue) {
			an.Triggers = append(an.Triggers, "remember:"+cue)
		}
	}
	for _, cue := range solvedCues {
		if strings.Contains(lower, cue) {
			an.Triggers = append(an.Triggers, "solution:"+cue)
		}
	}

	historySolved := false
	for _, h := range recentHistory {
		hl := strings.ToLower(h)
		for _, cue := range solvedCues {
			if strings.Contains(hl, cue) {
				historySolved = true
				break
			}
		}
	}

	switch {
	case an.Intent == IntentPreference:
		an.ShouldCreateMemory = true
		an.SuggestedType = TypePreference
	case an.Intent == IntentTroubleshooting && historySolved:
		an.ShouldCreateMemory = true
		an.SuggestedType = TypeSolution
	case hasRememberCue(lower):
		an.ShouldCreateMemory = true
		an.SuggestedType = TypeGeneral
	}

	return an
}

// Search tuning for one prompt-enhancement pass.
const (
	minRelevance       = 0.3
	maxContextMemories = 5
	perQueryLimit      = 10
)

// Context searches the memory store for entries relevant to the current
// message. Up to five independent queries (topics, entities, project,
// conversation, preference type) fan out concurrently; results are merged,
// deduplicated by id, scored, filtered at minRelevance, and capped at
// maxContextMemories. Store failures degrade to an empty context.
func (a *Analyzer) Context(ctx context.Context, message, conversationID, projectID string, history []string) MemoryContext {
	an := a.AnalyzeMessage(message, history)

	var queries []Query
	if len(an.Topics) > 0 {
		queries = append(queries, Query{Text: strings.Join(an.Topics, " "), Limit: perQueryLimit})
	}
	if len(an.Entities) > 0 {
		queries = append(queries, Query{Text: strings.Join(an.Entities, " "), Limit: perQueryLimit})
	}
	if projectID != "" {
		queries = append(queries, Query{ProjectID: projectID, Limit: perQueryLimit})
	}
	if conversationID != "" {
		queries = append(queries, Query{ConversationID: conversationID, Limit: perQueryLimit})
	}
	if an.Intent == IntentPreference || len(an.Triggers) > 0 {
		queries = append(queries, Query{Type: TypePreference, Limit: perQueryLimit})
	}
	if len(queries) == 0 {
		queries = append(queries, Query{Text: message, Limit: perQueryLimit})
	}

	// The queries have no data dependencies on one another; run them
	// concurrently and merge. A failed query contributes nothing.
	var (
		mu     sync.Mutex
		merged = make(map[string]Hit)
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, q := range queries {
		q := q
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			hits, err := a.store.Search(q)
			if err != nil {
				return nil
			}
			mu.Lock()
			for _, h := range hits {
				if prev, ok := merged[h.ID]; !ok || h.BaseScore > prev.BaseScore {
					merged[h.ID] = h
				}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	now := time.Now()
	var ranked []Ranked
	for _, h := range merged {
		score := scoreHit(h, an.Topics, an.Entities, now)
		if score < minRelevance {
			continue
		}
		ranked = append(ranked, Ranked{Entry: h.Entry, Relevance: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Relevance != ranked[j].Relevance {
			return ranked[i].Relevance > ranked[j].Relevance
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > maxContextMemories {
		ranked = ranked[:maxContextMemories]
	}

	// Reads feed back into future scoring.
	for _, r := range ranked {
		_ = a.store.IncrementAccess(r.ID)
	}

	return MemoryContext{
		Relevant: ranked,
		Summary:  summarize(ranked),
		Total:    len(merged),
	}
}

// CreateFromConversation synthesizes and stores an entry for a turn whose
// analysis says it is worth remembering. Returns false when the analysis
// does not call for a memory.
func (a *Analyzer) CreateFromConversation(an Analysis, userMessage, conversationID, projectID string) (Entry, bool, error) {
	if !an.ShouldCreateMemory {
		return Entry{}, false, nil
	}
	t := an.SuggestedType
	if t == "" {
		t = TypeGeneral
	}

	entry := Entry{
		Type:           t,
		Title:          titleForType(t, userMessage),
		Content:        strings.TrimSpace(userMessage),
		Tags:           append([]string{string(an.Intent)}, an.Topics...),
		ConversationID: conversationID,
		ProjectID:      projectID,
	}
	saved, err := a.store.Save(entry)
	if err != nil {
		return Entry{}, false, fmt.Errorf("analyzer: create memory: %w", err)
	}
	return saved, true, nil
}

func titleForType(t EntryType, message string) string {
	excerpt := truncate(strings.TrimSpace(message), 40)
	switch t {
	case TypePreference:
		return "User Preference: " + excerpt
	case TypeSolution:
		return "Solution: " + excerpt
	case TypeProjectKnowledge:
		return "Project Knowledge: " + excerpt
	case TypeCodeSnippet:
		return "Code Snippet: " + excerpt
	case TypeConversationContext:
		return "Context: " + excerpt
	default:
		return "Note: " + excerpt
	}
}

func summarize(ranked []Ranked) string {
	if len(ranked) == 0 {
		return "no relevant memories"
	}
	counts := make(map[EntryType]int)
	for _, r := range ranked {
		counts[r.Type]++
	}
	parts := make([]string, 0, len(counts))
	for _, t := range []EntryType{TypePreference, TypeSolution, TypeProjectKnowledge, TypeCodeSnippet, TypeConversationContext, TypeGeneral} {
		if n := counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, t))
		}
	}
	return fmt.Sprintf("%d relevant memories (%s)", len(ranked), strings.Join(parts, ", "))
}

func matchTopics(lower string) []string {
	words := make(map[string]bool)
	for _, f := range strings.Fields(lower) {
		words[strings.Trim(f, ".,;:!?\"'()[]{}")] = true
	}
	var topics []string
	for _, t := range topicVocabulary {
		if words[t] {
			topics = append(topics, t)
		}
	}
	return topics
}

func classifyIntent(lower string) Intent {
	for _, cue := range preferenceCues {
		if strings.Contains(lower, cue) {
			return IntentPreference
		}
	}
	if strings.Contains(lower, "?") {
		return IntentQuestion
	}
	for _, cue := range questionCues {
		if strings.Contains(lower, cue) {
			return IntentQuestion
		}
	}
	for _, cue := range creationCues {
		if strings.Contains(lower, cue) {
			return IntentCreation
		}
	}
	for _, cue := range troubleCues {
		if strings.Contains(lower, cue) {
			return IntentTroubleshooting
		}
	}
	return IntentGeneral
}

// extractEntities collects capitalized tokens: first rune upper, remainder
// lower, longer than two runes. Deliberately naive but good enough to pick up
// product and project names in chat.
func extractEntities(message string) []string {
	seen := make(map[string]bool)
	var entities []string
	for _, f := range strings.Fields(message) {
		f = strings.Trim(f, ".,;:!?\"'()[]{}")
		runes := []rune(f)
		if len(runes) <= 2 || !unicode.IsUpper(runes[0]) {
			continue
		}
		rest := string(runes[1:])
		if rest != strings.ToLower(rest) {
			continue
		}
		if !seen[f] {
			seen[f] = true
			entities = append(entities, f)
		}
	}
	return entities
}

func hasRememberCue(lower string) bool {
	for _, cue := range rememberCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
