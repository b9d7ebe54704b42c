package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-systems/chief/pkg/externalsvc"
	"github.com/newsroom-systems/chief/pkg/human"
	"github.com/newsroom-systems/chief/pkg/taskqueue"
)

type fakeChat struct {
	response string
	err      error
	calls    int
}

func (f *fakeChat) Generate(ctx context.Context, system string, messages []externalsvc.ChatMessage, maxTokens int, temperature float64) (string, error) {
	f.calls++
	return f.response, f.err
}

type fakeSearcher struct {
	results []externalsvc.SearchResult
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]externalsvc.SearchResult, error) {
	return f.results, f.err
}

func TestReporterResearchFlagsSingleSourceUnverified(t *testing.T) {
	chat := &fakeChat{}
	search := &fakeSearcher{}
	r := NewReporter(chat, search, human.New(nil))

	task := &taskqueue.Task{
		StoryID: "s1",
		Stage:   taskqueue.StageResearch,
		Input: map[string]any{
			"detection_data": map[string]any{"title": "City council votes", "summary": "A vote happened", "url": "http://orig"},
		},
	}

	out, err := r.Handle(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, false, out["verified"])
}

func TestReporterResearchVerifiesWithCorroboratingSource(t *testing.T) {
	chat := &fakeChat{}
	search := &fakeSearcher{results: []externalsvc.SearchResult{
		{Title: "Other outlet", URL: "http://other", Snippet: "confirms the vote"},
	}}
	r := NewReporter(chat, search, human.New(nil))

	task := &taskqueue.Task{
		StoryID: "s1",
		Stage:   taskqueue.StageResearch,
		Input: map[string]any{
			"detection_data": map[string]any{"title": "City council votes", "summary": "A vote happened", "url": "http://orig"},
		},
	}

	out, err := r.Handle(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, true, out["verified"])
	sources, ok := out["sources"].([]any)
	require.True(t, ok)
	assert.Len(t, sources, 2)
}

func TestReporterDraftProducesHeadlineAndWordCount(t *testing.T) {
	chat := &fakeChat{response: "Council Votes Yes\n\nThe council approved the measure in a close vote."}
	r := NewReporter(chat, &fakeSearcher{}, human.New(nil))

	task := &taskqueue.Task{
		StoryID: "s1",
		Stage:   taskqueue.StageDraft,
		Input: map[string]any{
			"detection_data": map[string]any{"title": "Council Votes Yes"},
			"research_data":  map[string]any{"verified": true, "sources": []any{}, "facts": []any{}},
		},
	}

	out, err := r.Handle(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "Council Votes Yes", out["headline"])
	assert.Equal(t, false, out["is_revision"])
	assert.Greater(t, out["word_count"], float64(0))
}

func TestReporterEditMarksIsRevision(t *testing.T) {
	chat := &fakeChat{response: "Revised headline\n\nRevised body text."}
	r := NewReporter(chat, &fakeSearcher{}, human.New(nil))

	task := &taskqueue.Task{
		StoryID: "s1",
		Stage:   taskqueue.StageEdit,
		Input: map[string]any{
			"detection_data": map[string]any{"title": "X"},
			"feedback":       "tighten the lede",
		},
	}

	out, err := r.Handle(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, true, out["is_revision"])
	assert.Equal(t, 1, chat.calls)
}

func TestReporterRejectsUnknownStage(t *testing.T) {
	r := NewReporter(&fakeChat{}, &fakeSearcher{}, human.New(nil))
	_, err := r.Handle(context.Background(), &taskqueue.Task{Stage: taskqueue.StagePublish})
	assert.Error(t, err)
}
