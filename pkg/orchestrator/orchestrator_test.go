package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeStringsPreservesFirstOccurrenceOrder(t *testing.T) {
	in := []string{"a", "b", "a", "c", "b"}
	assert.Equal(t, []string{"a", "b", "c"}, dedupeStrings(in))
}

func TestDedupeStringsEmpty(t *testing.T) {
	assert.Empty(t, dedupeStrings(nil))
}

func TestDefaultConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.6, cfg.MinNewsworthinessScore)
	assert.Equal(t, 3, cfg.MaxRevisions)
	assert.Equal(t, 3, cfg.PersistentStallResets)
}
