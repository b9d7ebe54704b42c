// Package memory implements the per-story deduplication memory of
// spec.md §4.4: vector-indexed content rows, written once per story and
// queried by cosine similarity to decide whether an incoming detection
// is a new story or a continuation of one already tracked.
package memory

import "time"

// Item is a single memory row: a piece of story content together with
// its embedding.
type Item struct {
	ID         string         `db:"id"`
	StoryID    string         `db:"story_id"`
	Content    string         `db:"content"`
	MemoryType string         `db:"memory_type"`
	Metadata   map[string]any `db:"metadata"`
	CreatedAt  time.Time      `db:"created_at"`
}

// Match is a find_similar result: an existing memory row together with
// its cosine similarity to the query embedding.
type Match struct {
	StoryID    string
	Similarity float64
	Content    string
}

// Well-known memory_type values. Producers are not restricted to these;
// the Scout writes StoryDetection rows, but other agents may record
// other kinds of per-story memory over time.
const (
	TypeStoryDetection = "story_detection"
	TypeResearchNote   = "research_note"
)
