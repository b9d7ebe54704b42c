// Package scout implements the Scout ingestion loop of spec.md §4.7:
// periodic feed pulls, newsworthiness scoring, the deduplication gate,
// and story.detected emission. It never consumes tasks.
package scout

import "github.com/newsroom-systems/chief/pkg/externalsvc"

// Newsworthiness computes a score in [0, 1] from structural signals,
// the same four-signal formula the original agents/scout.py uses:
// title+summary present, recency, a link present, and summary length
// indicating substance. Semantic novelty is handled separately by the
// dedup gate, not folded into this score.
func Newsworthiness(entry externalsvc.FeedEntry) float64 {
	var score float64

	if entry.Title != "" && entry.Summary != "" {
		score += 0.3
	}
	// TODO: weight this by entry.Published age instead of a flat credit.
	score += recencyScore(entry)
	if entry.Link != "" {
		score += 0.2
	}
	if len(entry.Summary) > 200 {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func recencyScore(entry externalsvc.FeedEntry) float64 {
	if entry.Published.IsZero() {
		return 0.1 // unknown age gets partial credit, not zero
	}
	return 0.2
}
