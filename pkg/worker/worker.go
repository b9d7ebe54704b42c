// Package worker defines the pluggable worker contract of spec.md §6:
// the in-process boundary between the agent runtime and whatever code
// actually performs research, drafting, editing, review, and
// publishing. This package holds no concrete workers — the reference
// implementations live in pkg/agents — only the shapes their output
// must honor and the Handler interface the agent runtime calls through.
package worker

import (
	"context"

	"github.com/newsroom-systems/chief/pkg/taskqueue"
)

// Handler executes one claimed task and returns its output map. An
// error puts the task into the failed path; a nil error commits
// Output as the task's persisted result.
type Handler interface {
	Handle(ctx context.Context, task *taskqueue.Task) (Output, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, task *taskqueue.Task) (Output, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, task *taskqueue.Task) (Output, error) {
	return f(ctx, task)
}

// Output is the JSONB-serializable result of one task execution.
type Output = map[string]any

// Source is one research citation, per spec.md §6's research output
// shape.
type Source struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Type    string `json:"type"`
}

// ResearchOutput is the minimum required shape of a research task's
// output.
type ResearchOutput struct {
	Facts    []string       `json:"facts"`
	Sources  []Source       `json:"sources"`
	Entities map[string]any `json:"entities"`
	Verified bool           `json:"verified"`
}

// DraftOutput is the minimum required shape of a draft task's output.
// An edit task's output uses the same shape with IsRevision set.
type DraftOutput struct {
	Article    string `json:"article"`
	Headline   string `json:"headline"`
	WordCount  int    `json:"word_count"`
	IsRevision bool   `json:"is_revision"`
}

// Review decisions, per spec.md §4.6's "Review decision payload".
const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)

// ReviewOutput is the minimum required shape of a review task's output.
// Interpretation of the numeric scores is opaque to the orchestrator;
// only Decision drives stage-advancement routing.
type ReviewOutput struct {
	Decision          string  `json:"decision"`
	Score             float64 `json:"score"`
	VerificationScore float64 `json:"verification_score"`
	StyleScore        float64 `json:"style_score"`
	Feedback          string  `json:"feedback"`
}

// ChannelResult is one publish channel's outcome.
type ChannelResult struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
}

// PublishOutput is the minimum required shape of a publish task's
// output.
type PublishOutput struct {
	ArticleID    string                   `json:"article_id"`
	Channels     []string                 `json:"channels"`
	Results      map[string]ChannelResult `json:"results"`
	SuccessCount int                      `json:"success_count"`
}
