package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-systems/chief/pkg/externalsvc"
	"github.com/newsroom-systems/chief/pkg/taskqueue"
	"github.com/newsroom-systems/chief/pkg/worker"
)

func TestEditorApprovesHighScoringDraft(t *testing.T) {
	chat := &sequencedChat{responses: []string{
		`{"claims": ["the vote passed"], "tone": "Objective", "style_issues": [], "grammar_issues": [], "score": 0.9}`,
		`{"supported": true, "reason": "corroborated by search"}`,
	}}
	search := &fakeSearcher{results: []externalsvc.SearchResult{{Snippet: "the vote did pass"}}}
	e := NewEditor(chat, search)

	task := &taskqueue.Task{
		StoryID: "s1",
		Stage:   taskqueue.StageReview,
		Input:   map[string]any{"draft": map[string]any{"article": "The council voted yes today."}},
	}

	out, err := e.Handle(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, worker.DecisionApprove, out["decision"])
}

func TestEditorRejectsLowStyleScore(t *testing.T) {
	chat := &sequencedChat{responses: []string{
		`{"claims": [], "tone": "Sensationalist", "style_issues": ["too many adjectives"], "grammar_issues": [], "score": 0.2}`,
	}}
	e := NewEditor(chat, &fakeSearcher{})

	task := &taskqueue.Task{
		StoryID: "s1",
		Stage:   taskqueue.StageReview,
		Input:   map[string]any{"draft": map[string]any{"article": "SHOCKING news!!!"}},
	}

	out, err := e.Handle(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, worker.DecisionReject, out["decision"])
}

func TestEditorRejectsUnsupportedClaims(t *testing.T) {
	chat := &sequencedChat{responses: []string{
		`{"claims": ["aliens landed"], "tone": "Objective", "style_issues": [], "grammar_issues": [], "score": 0.9}`,
		`{"supported": false, "reason": "no corroborating coverage found"}`,
	}}
	e := NewEditor(chat, &fakeSearcher{})

	task := &taskqueue.Task{
		StoryID: "s1",
		Stage:   taskqueue.StageReview,
		Input:   map[string]any{"draft": map[string]any{"article": "Aliens landed downtown."}},
	}

	out, err := e.Handle(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, worker.DecisionReject, out["decision"])
	assert.Contains(t, out["feedback"], "aliens landed")
}

func TestEditorRequiresDraftArticleText(t *testing.T) {
	e := NewEditor(&fakeChat{}, &fakeSearcher{})
	task := &taskqueue.Task{Stage: taskqueue.StageReview, Input: map[string]any{}}
	_, err := e.Handle(context.Background(), task)
	assert.Error(t, err)
}

func TestEditorRejectsUnknownStage(t *testing.T) {
	e := NewEditor(&fakeChat{}, &fakeSearcher{})
	_, err := e.Handle(context.Background(), &taskqueue.Task{Stage: taskqueue.StageDraft})
	assert.Error(t, err)
}

func TestExtractJSONHandlesPreamble(t *testing.T) {
	got := extractJSON(`Here is my analysis: {"score": 0.5} -- hope that helps`)
	assert.Equal(t, `{"score": 0.5}`, got)
}

func TestExtractJSONNoBracesReturnsEmptyObject(t *testing.T) {
	assert.Equal(t, "{}", extractJSON("no json here"))
}

// sequencedChat returns responses in order, one per call, for tests
// that need analysis then verification to return distinct payloads.
type sequencedChat struct {
	responses []string
	i         int
}

func (s *sequencedChat) Generate(ctx context.Context, system string, messages []externalsvc.ChatMessage, maxTokens int, temperature float64) (string, error) {
	if s.i >= len(s.responses) {
		return "{}", nil
	}
	r := s.responses[s.i]
	s.i++
	return r, nil
}
