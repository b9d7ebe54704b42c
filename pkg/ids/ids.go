// Package ids generates the opaque identifiers used across the pipeline:
// story ids (stable 128-bit values per spec.md §3), task ids, agent ids,
// and memory item ids.
package ids

import "github.com/google/uuid"

// NewStoryID mints a new opaque story identifier.
func NewStoryID() string { return uuid.New().String() }

// NewTaskID mints a new task identifier.
func NewTaskID() string { return uuid.New().String() }

// NewAgentID mints a new agent identifier.
func NewAgentID() string { return uuid.New().String() }

// NewMemoryID mints a new memory-row identifier.
func NewMemoryID() string { return uuid.New().String() }

// NewArticleID mints a new article identifier.
func NewArticleID() string { return uuid.New().String() }

// NewPromptID mints a new human-prompt identifier.
func NewPromptID() string { return uuid.New().String() }

// NewSourceID mints a new human-source identifier.
func NewSourceID() string { return uuid.New().String() }

// Valid reports whether s parses as a UUID, used to validate story ids
// supplied across process boundaries (e.g. CLI flags, HTTP-free callers).
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
