package memory

import (
	"strings"
)

// Heuristic confidences. Candidates below the manager's save threshold are
// proposed but never persisted.
const (
	preferenceConfidence = 0.8
	identityConfidence   = 0.9
	solutionConfidence   = 0.7
	snippetConfidence    = 0.6
	knowledgeConfidence  = 0.5
)

// Auto-save cue lists.
var (
	identityCues = []string{"my name is", "call me", "i am a", "i'm a", "i work"}
	likingCues   = []string{"i prefer", "i like", "i love", "i hate", "i always", "i never", "i usually", "my favorite"}

	problemCues  = []string{"error", "bug", "help", "issue", "problem", "broken", "fail", "crash", "doesn't work", "not working"}
	solutionCues = []string{"here's how", "try this", "you can fix", "the solution", "to solve", "to fix", "follow these steps", "this should work"}

	knowledgeCues = []string{"architecture", "design pattern", "requirement", "specification", "tech stack", "schema", "dependency", "workflow", "convention"}
)

// shortMessageLimit: a message this short is memorable as a whole when no
// single sentence matched a cue.
const shortMessageLimit = 200

// ExtractCandidates runs the four auto-save heuristics over one completed
// turn and concatenates their proposals. The heuristics are independent and
// order-insensitive; a heuristic that finds nothing contributes nothing.
func ExtractCandidates(userMessage, aiResponse, projectID string) []Candidate {
	var out []Candidate
	out = append(out, extractPreferences(userMessage)...)
	if c := extractSolution(userMessage, aiResponse); c != nil {
		out = append(out, *c)
	}
	if c := extractCodeSnippet(aiResponse); c != nil {
		out = append(out, *c)
	}
	if c := extractProjectKnowledge(userMessage, aiResponse, projectID); c != nil {
		out = append(out, *c)
	}
	return out
}

// extractPreferences proposes a preference or identity candidate from
// first-person statements in the user message. Matching sentences are
// extracted; a short message with cue but no matched sentence is kept whole.
func extractPreferences(userMessage string) []Candidate {
	lower := strings.ToLower(userMessage)

	identity := containsAny(lower, identityCues)
	liking := containsAny(lower, likingCues)
	if !identity && !liking {
		return nil
	}

	cues := likingCues
	confidence := preferenceConfidence
	titlePrefix := "User Preference: "
	reason := "first-person preference statement"
	if identity {
		cues = append(identityCues, likingCues...)
		confidence = identityConfidence
		titlePrefix = "User Identity: "
		reason = "first-person identity statement"
	}

	content := strings.Join(matchingSentences(userMessage, cues), " ")
	if content == "" {
		if len(userMessage) > shortMessageLimit {
			return nil
		}
		content = strings.TrimSpace(userMessage)
	}

	return []Candidate{{
		Type:       TypePreference,
		Title:      titlePrefix + truncate(content, 40),
		Content:    content,
		Tags:       []string{"preference"},
		Confidence: confidence,
		Reason:     reason,
	}}
}

// extractSolution proposes a solution candidate when the user described a
// problem and the response reads like a fix.
func extractSolution(userMessage, aiResponse string) *Candidate {
	if !containsAny(strings.ToLower(userMessage), problemCues) {
		return nil
	}
	if !containsAny(strings.ToLower(aiResponse), solutionCues) {
		return nil
	}
	problem := truncate(strings.TrimSpace(userMessage), 120)
	return &Candidate{
		Type:       TypeSolution,
		Title:      "Solution: " + truncate(problem, 40),
		Content:    "Problem: " + problem + "\n\nSolution: " + truncate(strings.TrimSpace(aiResponse), 800),
		Tags:       []string{"solution", "troubleshooting"},
		Confidence: solutionConfidence,
		Reason:     "problem in user message answered with a fix",
	}
}

// extractCodeSnippet proposes one code-snippet candidate for the first
// fenced block in the response longer than three lines and one hundred
// characters, regardless of accompanying prose.
func extractCodeSnippet(aiResponse string) *Candidate {
	for _, block := range fencedBlocks(aiResponse) {
		if len(block.code) <= 100 || strings.Count(block.code, "\n") < 3 {
			continue
		}
		lang := block.lang
		if lang == "" {
			lang = "code"
		}
		return &Candidate{
			Type:       TypeCodeSnippet,
			Title:      "Code Snippet (" + lang + ")",
			Content:    block.code,
			Tags:       []string{"code", lang},
			Confidence: snippetConfidence,
			Reason:     "substantial fenced code block in response",
		}
	}
	return nil
}

// extractProjectKnowledge proposes a project-knowledge candidate when the
// turn discusses architecture-level topics. Requires a project id; without
// one the knowledge has nowhere to attach.
func extractProjectKnowledge(userMessage, aiResponse, projectID string) *Candidate {
	if projectID == "" {
		return nil
	}
	combined := strings.ToLower(userMessage + " " + aiResponse)
	matched := ""
	for _, cue := range knowledgeCues {
		if strings.Contains(combined, cue) {
			matched = cue
			break
		}
	}
	if matched == "" {
		return nil
	}
	return &Candidate{
		Type:       TypeProjectKnowledge,
		Title:      "Project Knowledge: " + truncate(strings.TrimSpace(userMessage), 40),
		Content:    truncate(strings.TrimSpace(userMessage), 300) + "\n\n" + truncate(strings.TrimSpace(aiResponse), 800),
		Tags:       []string{"project", matched},
		Confidence: knowledgeConfidence,
		Reason:     "architecture discussion with project id",
	}
}

func containsAny(haystack string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(haystack, cue) {
			return true
		}
	}
	return false
}

// matchingSentences returns the sentences of text containing any cue.
func matchingSentences(text string, cues []string) []string {
	var out []string
	for _, sentence := range splitSentences(text) {
		lower := strings.ToLower(sentence)
		if containsAny(lower, cues) {
			out = append(out, strings.TrimSpace(sentence))
		}
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(text[start:i]); s != "" {
				out = append(out, s+string(r))
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

type fenced struct {
	lang string
	code string
}

// fencedBlocks extracts ``` blocks from markdown text.
func fencedBlocks(text string) []fenced {
	var out []fenced
	for {
		open := strings.Index(text, "```")
		if open < 0 {
			return out
		}
		rest := text[open+3:]
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return out
		}
		lang := strings.TrimSpace(rest[:nl])
		body := rest[nl+1:]
		closeIdx := strings.Index(body, "```")
		if closeIdx < 0 {
			return out
		}
		out = append(out, fenced{lang: lang, code: strings.TrimRight(body[:closeIdx], "\n")})
		text = body[closeIdx+3:]
	}
}
