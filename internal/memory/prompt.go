package memory

import (
	"fmt"
	"strings"
)

// contextHeader delimits the injected block so it reads as background
// material rather than part of the user's request.
const contextHeader = "--- Relevant context from previous conversations ---"
const contextFooter = "--- End of context ---"

// toolSectionMarkers are phrases that open a tool-instruction section in a
// prompt. Injected context is spliced immediately before the first marker
// found, so tool declarations stay last, where providers expect them.
var toolSectionMarkers = []string{
	"You have access to the following tools",
	"Available tools:",
	"# Tools",
	"TOOL USE",
}

// FormatContextBlock renders ranked memories as the delimited bullet list
// injected into prompts. tokenizer and budget are optional: with a nil
// tokenizer or non-positive budget every memory is included; otherwise
// memories that would overflow the budget are dropped, lowest relevance
// first (the slice is already sorted descending).
func FormatContextBlock(ranked []Ranked, tokenizer *Tokenizer, budget int) string {
	if len(ranked) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	b.WriteString("\n")
	used := 0
	if tokenizer != nil && budget > 0 {
		used = tokenizer.Count(contextHeader + "\n" + contextFooter + "\n")
	}
	wrote := 0
	for _, r := range ranked {
		line := fmt.Sprintf("- %s\n", strings.TrimSpace(r.Content))
		if tokenizer != nil && budget > 0 {
			cost := tokenizer.Count(line)
			if used+cost > budget {
				continue
			}
			used += cost
		}
		b.WriteString(line)
		wrote++
	}
	if wrote == 0 {
		return ""
	}
	b.WriteString(contextFooter)
	b.WriteString("\n")
	b.WriteString("Use this context naturally when it is relevant. Do not mention the memory system or that you were given stored context.\n")
	return b.String()
}

// InjectContext splices a context block into a prompt: immediately before
// the first tool-instruction marker when one exists, appended to the end
// otherwise. An empty block returns the prompt unchanged.
func InjectContext(prompt, block string) string {
	if block == "" {
		return prompt
	}
	for _, marker := range toolSectionMarkers {
		if idx := strings.Index(prompt, marker); idx >= 0 {
			return prompt[:idx] + block + "\n" + prompt[idx:]
		}
	}
	if prompt == "" {
		return block
	}
	return strings.TrimRight(prompt, "\n") + "\n\n" + block
}

// EnhancedPrompt appends the ranked memories from one context pass to the
// original prompt.
func (a *Analyzer) EnhancedPrompt(original string, memCtx MemoryContext) string {
	return InjectContext(original, FormatContextBlock(memCtx.Relevant, nil, 0))
}
