package memory

import (
	"strings"
	"time"
)

// Scoring weights. A hit's final relevance starts from the store's base
// estimate and is boosted by analysis matches, then clamped to [0,1].
const (
	topicWeight    = 0.2
	entityWeight   = 0.3
	recencyBoost   = 0.1
	frequencyBoost = 0.1
	recencyWindow  = 7 * 24 * time.Hour
	frequentAccess = 5
)

// scoreHit computes the relevance of one search hit against the analysis of
// the current message. Adding a matched topic can only raise the score, and
// the result never exceeds 1.
func scoreHit(h Hit, topics, entities []string, now time.Time) float64 {
	haystack := strings.ToLower(h.Title + " " + h.Content + " " + strings.Join(h.Tags, " "))

	score := h.BaseScore
	for _, topic := range topics {
		if strings.Contains(haystack, strings.ToLower(topic)) {
			score += topicWeight
		}
	}
	for _, entity := range entities {
		if strings.Contains(haystack, strings.ToLower(entity)) {
			score += entityWeight
		}
	}
	if now.Sub(h.CreatedAt) < recencyWindow {
		score += recencyBoost
	}
	if h.AccessCount > frequentAccess {
		score += frequencyBoost
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
