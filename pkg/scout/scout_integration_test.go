//go:build integration

package scout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-systems/chief/internal/testdb"
	"github.com/newsroom-systems/chief/pkg/eventlog"
	"github.com/newsroom-systems/chief/pkg/externalsvc"
	"github.com/newsroom-systems/chief/pkg/memory"
)

const dim = 8

// fakeReader serves a fixed set of entries regardless of feed URL.
type fakeReader struct {
	entries []externalsvc.FeedEntry
}

func (f *fakeReader) Fetch(ctx context.Context, feedURL string) ([]externalsvc.FeedEntry, error) {
	return f.entries, nil
}

// fakeEmbedder returns embeddings keyed by exact text match, so tests
// can control similarity deterministically.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, dim), nil
}

func longSummary(lead byte) string {
	b := make([]byte, 250)
	for i := range b {
		b[i] = lead
	}
	return string(b)
}

func TestScoutEmitsNewStoryOnFirstSighting(t *testing.T) {
	st := testdb.New(t)
	mem := memory.New(st, dim)
	events := eventlog.New(st)

	entry := externalsvc.FeedEntry{
		Title:     "City council approves new budget",
		Summary:   longSummary('a'),
		Link:      "https://example.org/budget",
		Published: time.Now(),
	}
	content := entry.Title + ". " + entry.Summary
	vec := make([]float32, dim)
	vec[0] = 1

	reader := &fakeReader{entries: []externalsvc.FeedEntry{entry}}
	embedder := &fakeEmbedder{vectors: map[string][]float32{content: vec}}

	s := New(st, reader, embedder, mem, Config{
		Feeds:          []string{"https://example.org/feed.xml"},
		ScanInterval:   time.Hour,
		ScoreThreshold: 0.5,
		DedupThreshold: 0.85,
	})

	require.NoError(t, s.scanFeed(context.Background(), "https://example.org/feed.xml"))

	recent, err := events.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, eventlog.TypeStoryDetected, recent[0].EventType)
	assert.Equal(t, false, recent[0].Payload["is_duplicate"])
}

func TestScoutMarksDuplicateOnSecondSighting(t *testing.T) {
	st := testdb.New(t)
	mem := memory.New(st, dim)
	events := eventlog.New(st)

	vec := make([]float32, dim)
	vec[0] = 1

	firstEntry := externalsvc.FeedEntry{
		Title:     "Council approves new transit budget",
		Summary:   longSummary('a'),
		Link:      "https://example.org/a",
		Published: time.Now(),
	}
	secondEntry := externalsvc.FeedEntry{
		Title:     "Council approves new transit budget, again",
		Summary:   longSummary('a'),
		Link:      "https://example.org/a-update",
		Published: time.Now(),
	}
	firstContent := firstEntry.Title + ". " + firstEntry.Summary
	secondContent := secondEntry.Title + ". " + secondEntry.Summary

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		firstContent:  vec,
		secondContent: vec, // identical embedding forces a dedup match
	}}

	cfg := Config{
		Feeds:          []string{"https://example.org/feed.xml"},
		ScanInterval:   time.Hour,
		ScoreThreshold: 0.5,
		DedupThreshold: 0.85,
	}

	s1 := New(st, &fakeReader{entries: []externalsvc.FeedEntry{firstEntry}}, embedder, mem, cfg)
	require.NoError(t, s1.scanFeed(context.Background(), "https://example.org/feed.xml"))

	s2 := New(st, &fakeReader{entries: []externalsvc.FeedEntry{secondEntry}}, embedder, mem, cfg)
	require.NoError(t, s2.scanFeed(context.Background(), "https://example.org/feed.xml"))

	recent, err := events.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// ListRecent is newest first; the second scan's event is index 0.
	assert.Equal(t, true, recent[0].Payload["is_duplicate"])
	assert.Equal(t, recent[0].StoryID, recent[1].StoryID)
}

func TestScoutDiscardsEntriesBelowScoreThreshold(t *testing.T) {
	st := testdb.New(t)
	mem := memory.New(st, dim)
	events := eventlog.New(st)

	weak := externalsvc.FeedEntry{Title: "short blurb"}

	s := New(st, &fakeReader{entries: []externalsvc.FeedEntry{weak}}, &fakeEmbedder{}, mem, Config{
		Feeds:          []string{"https://example.org/feed.xml"},
		ScoreThreshold: 0.9,
	})

	require.NoError(t, s.scanFeed(context.Background(), "https://example.org/feed.xml"))

	recent, err := events.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
