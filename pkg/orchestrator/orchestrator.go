// Package orchestrator implements Chief, the periodic sweep of
// spec.md §4.6: services pending human prompts, admits scouted
// detections into the pipeline, advances stories through research →
// draft → review → publish (and the review → edit revision loop), and
// recovers stalled tasks. Chief never aborts a sweep on a per-story
// error; it logs and proceeds, per spec.md §7's propagation principle.
package orchestrator

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/newsroom-systems/chief/pkg/article"
	"github.com/newsroom-systems/chief/pkg/eventlog"
	"github.com/newsroom-systems/chief/pkg/human"
	"github.com/newsroom-systems/chief/pkg/metrics"
	"github.com/newsroom-systems/chief/pkg/store"
	"github.com/newsroom-systems/chief/pkg/taskqueue"
)

// Config carries the policy thresholds of spec.md §6's recognized keys
// that bear on sweep decisions.
type Config struct {
	MinNewsworthinessScore float64
	MaxRevisions           int
	StalledLease           time.Duration
	DefaultChannels        []string
	// PersistentStallResets is how many times the recovery sweep may
	// find the same task stalled: the first PersistentStallResets-1
	// times it is reset, and the next time Chief fails it outright with
	// reason "persistent_stall", per spec.md §4.6's
	// implementation-discretion clause. Zero disables the behavior
	// (tasks are reset forever).
	PersistentStallResets int
}

// DefaultConfig returns spec.md §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		MinNewsworthinessScore: 0.6,
		MaxRevisions:           3,
		StalledLease:           30 * time.Minute,
		DefaultChannels:        []string{"rss"},
		PersistentStallResets:  3,
	}
}

// Chief is the orchestrator role. A single logical instance is assumed
// (multiple instances are tolerated, per spec.md §4.6, but unnecessary);
// every decision it makes is derived from durable events and task rows,
// so two instances sweeping concurrently only duplicate work, never
// corrupt it.
type Chief struct {
	st       *store.Store
	queue    *taskqueue.Queue
	events   *eventlog.Log
	humans   *human.Store
	articles *article.Store
	cfg      Config
	log      *slog.Logger

	mu          sync.Mutex
	stallResets map[string]int
}

// New builds a Chief over st.
func New(st *store.Store, cfg Config) *Chief {
	return &Chief{
		st:          st,
		queue:       taskqueue.New(st),
		events:      eventlog.New(st),
		humans:      human.New(st),
		articles:    article.New(st),
		cfg:         cfg,
		log:         slog.With("component", "orchestrator"),
		stallResets: make(map[string]int),
	}
}

// Sweep runs one full pass: human prompts, admission, stage advancement,
// then stalled-task recovery, in that order. Each phase logs and
// continues past per-story errors rather than aborting the sweep.
func (c *Chief) Sweep(ctx context.Context) error {
	start := time.Now()
	c.processHumanPrompts(ctx)
	c.admitDetections(ctx)
	c.advanceStories(ctx)
	c.recoverStalled(ctx)
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	c.log.Debug("sweep complete", "duration", time.Since(start))
	return nil
}

// Run drives Sweep on interval until ctx is cancelled.
func (c *Chief) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Sweep(ctx)
		}
	}
}

// processHumanPrompts implements spec.md §4.8: every pending prompt
// gets a dedicated, high-priority research task and moves to processing.
func (c *Chief) processHumanPrompts(ctx context.Context) {
	prompts, err := c.humans.PendingPrompts(ctx)
	if err != nil {
		c.log.Error("listing pending prompts failed", "error", err)
		return
	}

	for _, p := range prompts {
		detected, err := c.events.LatestOfType(ctx, p.StoryID, eventlog.TypeStoryDetected)
		if err != nil {
			c.log.Error("reading latest detection failed", "story_id", p.StoryID, "error", err)
			continue
		}
		var detectionData map[string]any
		if detected != nil {
			detectionData = detected.Payload
		}

		input := map[string]any{
			"detection_data":    detectionData,
			"human_prompt_id":   p.ID,
			"human_prompt_text": p.Text,
		}
		if _, err := c.queue.Create(ctx, p.StoryID, taskqueue.StageResearch, humanPromptPriority, input, nil); err != nil {
			c.log.Error("creating prompt research task failed", "story_id", p.StoryID, "prompt_id", p.ID, "error", err)
			continue
		}
		if err := c.humans.MarkProcessing(ctx, p.ID); err != nil {
			c.log.Error("marking prompt processing failed", "prompt_id", p.ID, "error", err)
		}
	}
}

const humanPromptPriority = 10

// admitDetections implements spec.md §4.6's admission rule: every story
// with a story.detected event but no story.created event is scored
// against MinNewsworthinessScore and either rejected or promoted to a
// research task.
func (c *Chief) admitDetections(ctx context.Context) {
	storyIDs, err := c.storiesWithEventNotOther(ctx, eventlog.TypeStoryDetected, eventlog.TypeStoryCreated)
	if err != nil {
		c.log.Error("listing undetected-admitted stories failed", "error", err)
		return
	}

	for _, storyID := range storyIDs {
		detected, err := c.events.LatestOfType(ctx, storyID, eventlog.TypeStoryDetected)
		if err != nil || detected == nil {
			c.log.Error("reading latest detection failed", "story_id", storyID, "error", err)
			continue
		}

		score, _ := detected.Payload["score"].(float64)
		title, _ := detected.Payload["title"].(string)

		if score < c.cfg.MinNewsworthinessScore {
			if _, err := c.events.Append(ctx, storyID, eventlog.TypeStoryRejected,
				map[string]any{"reason": "low_score", "score": score}, nil); err != nil {
				c.log.Error("appending story.rejected failed", "story_id", storyID, "error", err)
			}
			continue
		}

		if _, err := c.events.Append(ctx, storyID, eventlog.TypeStoryCreated,
			map[string]any{"score": score, "title": title}, nil); err != nil {
			c.log.Error("appending story.created failed", "story_id", storyID, "error", err)
			continue
		}

		priority := int(math.Round(score * 10))
		input := map[string]any{"detection_data": detected.Payload}
		if _, err := c.queue.Create(ctx, storyID, taskqueue.StageResearch, priority, input, nil); err != nil {
			c.log.Error("creating research task failed", "story_id", storyID, "error", err)
		}
	}
}

// advanceStories runs the full stage-advancement table of spec.md §4.6
// against every story currently in flight.
func (c *Chief) advanceStories(ctx context.Context) {
	c.advanceResearchToDraft(ctx)
	c.advanceDraftToReview(ctx)
	c.advanceReviewDecisions(ctx)
}

// advanceResearchToDraft: task.completed.research with no draft task yet
// for the story creates one.
func (c *Chief) advanceResearchToDraft(ctx context.Context) {
	storyIDs, err := c.storiesWithEvent(ctx, eventlog.CompletedEventType(taskqueue.StageResearch))
	if err != nil {
		c.log.Error("listing research-completed stories failed", "error", err)
		return
	}

	for _, storyID := range storyIDs {
		n, err := c.queue.CountAtStage(ctx, storyID, taskqueue.StageDraft)
		if err != nil {
			c.log.Error("counting draft tasks failed", "story_id", storyID, "error", err)
			continue
		}
		if n > 0 {
			continue
		}

		research, err := c.events.LatestOfType(ctx, storyID, eventlog.CompletedEventType(taskqueue.StageResearch))
		if err != nil || research == nil {
			continue
		}
		detected, err := c.events.LatestOfType(ctx, storyID, eventlog.TypeStoryDetected)
		if err != nil {
			c.log.Error("reading latest detection failed", "story_id", storyID, "error", err)
			continue
		}
		var detectionData map[string]any
		if detected != nil {
			detectionData = detected.Payload
		}

		input := map[string]any{
			"detection_data": detectionData,
			"research_data":  research.Payload["output"],
		}
		if _, err := c.queue.Create(ctx, storyID, taskqueue.StageDraft, 5, input, nil); err != nil {
			c.log.Error("creating draft task failed", "story_id", storyID, "error", err)
		}
	}
}

// advanceDraftToReview: the most recently completed draft or edit
// (revision) round gets a review task once, tracked by comparing the
// count of completed draft+edit rounds against the count of review
// tasks ever created for the story — counting by event sequence rather
// than wall-clock timestamp, per the clock-skew caution in spec.md §9.
func (c *Chief) advanceDraftToReview(ctx context.Context) {
	draftIDs, err := c.storiesWithEvent(ctx, eventlog.CompletedEventType(taskqueue.StageDraft))
	if err != nil {
		c.log.Error("listing draft-completed stories failed", "error", err)
		return
	}
	editIDs, err := c.storiesWithEvent(ctx, eventlog.CompletedEventType(taskqueue.StageEdit))
	if err != nil {
		c.log.Error("listing edit-completed stories failed", "error", err)
		return
	}
	storyIDs := dedupeStrings(append(draftIDs, editIDs...))

	for _, storyID := range storyIDs {
		events, err := c.events.ListByStory(ctx, storyID)
		if err != nil {
			c.log.Error("listing story events failed", "story_id", storyID, "error", err)
			continue
		}

		var latestRound *eventlog.Event
		roundsCompleted := 0
		for i := range events {
			e := &events[i]
			if e.EventType == eventlog.CompletedEventType(taskqueue.StageDraft) || e.EventType == eventlog.CompletedEventType(taskqueue.StageEdit) {
				roundsCompleted++
				latestRound = e
			}
		}
		if latestRound == nil {
			continue
		}

		reviewTasksCreated, err := c.queue.CountAtStage(ctx, storyID, taskqueue.StageReview)
		if err != nil {
			c.log.Error("counting review tasks failed", "story_id", storyID, "error", err)
			continue
		}
		if reviewTasksCreated >= roundsCompleted {
			continue
		}

		hasActive, err := c.queue.HasOpenTask(ctx, storyID, taskqueue.StageReview)
		if err != nil {
			c.log.Error("checking open review task failed", "story_id", storyID, "error", err)
			continue
		}
		if hasActive {
			continue
		}

		input := map[string]any{"draft": latestRound.Payload["output"]}
		if _, err := c.queue.Create(ctx, storyID, taskqueue.StageReview, 6, input, nil); err != nil {
			c.log.Error("creating review task failed", "story_id", storyID, "error", err)
		}
	}
}

// advanceReviewDecisions handles the three review outcomes: APPROVE →
// persist + publish, REJECT under the revision cap → edit, REJECT at
// the cap → kill.
func (c *Chief) advanceReviewDecisions(ctx context.Context) {
	storyIDs, err := c.storiesWithEvent(ctx, eventlog.CompletedEventType(taskqueue.StageReview))
	if err != nil {
		c.log.Error("listing review-completed stories failed", "error", err)
		return
	}

	for _, storyID := range storyIDs {
		latest, err := c.events.LatestOfType(ctx, storyID, eventlog.CompletedEventType(taskqueue.StageReview))
		if err != nil || latest == nil {
			continue
		}
		output, _ := latest.Payload["output"].(map[string]any)
		decision, _ := output["decision"].(string)
		draft, err := c.latestDraftOrEditOutput(ctx, storyID)
		if err != nil {
			c.log.Error("reading latest draft content failed", "story_id", storyID, "error", err)
			continue
		}

		switch decision {
		case "APPROVE":
			c.handleApprove(ctx, storyID, draft)
		case "REJECT":
			c.handleReject(ctx, storyID, draft, output)
		}
	}
}

// latestDraftOrEditOutput returns the output payload of the most
// recently completed draft or edit (revision) round for storyID — the
// article content a review decision was made against, per spec.md §4.6
// (review task input carries "draft: latest_draft_output", not the
// review's own output).
func (c *Chief) latestDraftOrEditOutput(ctx context.Context, storyID string) (map[string]any, error) {
	events, err := c.events.ListByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	var latest *eventlog.Event
	for i := range events {
		e := &events[i]
		if e.EventType == eventlog.CompletedEventType(taskqueue.StageDraft) || e.EventType == eventlog.CompletedEventType(taskqueue.StageEdit) {
			latest = e
		}
	}
	if latest == nil {
		return nil, nil
	}
	output, _ := latest.Payload["output"].(map[string]any)
	return output, nil
}

func (c *Chief) handleApprove(ctx context.Context, storyID string, draft map[string]any) {
	n, err := c.queue.CountAtStage(ctx, storyID, taskqueue.StagePublish)
	if err != nil {
		c.log.Error("counting publish tasks failed", "story_id", storyID, "error", err)
		return
	}
	if n > 0 {
		return
	}

	headline, _ := draft["headline"].(string)
	body, _ := draft["article"].(string)

	articleID, err := c.articles.Create(ctx, storyID, headline, body, nil, nil, nil, nil, nil, nil)
	if err != nil {
		c.log.Error("persisting article failed", "story_id", storyID, "error", err)
		return
	}

	input := map[string]any{
		"article_id": articleID,
		"channels":   c.cfg.DefaultChannels,
	}
	if _, err := c.queue.Create(ctx, storyID, taskqueue.StagePublish, 8, input, nil); err != nil {
		c.log.Error("creating publish task failed", "story_id", storyID, "article_id", articleID, "error", err)
	}
}

func (c *Chief) handleReject(ctx context.Context, storyID string, draft, reviewOutput map[string]any) {
	killed, err := c.events.Exists(ctx, storyID, eventlog.TypeStoryKilled)
	if err != nil {
		c.log.Error("checking story.killed failed", "story_id", storyID, "error", err)
		return
	}
	if killed {
		return
	}

	rejectRounds, err := c.countReviewRejections(ctx, storyID)
	if err != nil {
		c.log.Error("counting review rejections failed", "story_id", storyID, "error", err)
		return
	}

	editCount, err := c.queue.CountAtStage(ctx, storyID, taskqueue.StageEdit)
	if err != nil {
		c.log.Error("counting edit tasks failed", "story_id", storyID, "error", err)
		return
	}

	feedback, _ := reviewOutput["feedback"].(string)

	if editCount >= c.cfg.MaxRevisions {
		if _, err := c.events.Append(ctx, storyID, eventlog.TypeStoryKilled,
			map[string]any{"reason": "too_many_revisions", "last_feedback": feedback}, nil); err != nil {
			c.log.Error("appending story.killed failed", "story_id", storyID, "error", err)
		}
		return
	}

	if editCount >= rejectRounds {
		// Already created an edit task for every rejection observed so
		// far; nothing new to do this sweep.
		return
	}

	input := map[string]any{
		"draft":           draft,
		"feedback":        feedback,
		"revision_number": editCount + 1,
	}
	if _, err := c.queue.Create(ctx, storyID, taskqueue.StageEdit, 7, input, nil); err != nil {
		c.log.Error("creating edit task failed", "story_id", storyID, "error", err)
	}
}

// countReviewRejections counts task.completed.review events whose
// output.decision is REJECT, across the story's full timeline.
func (c *Chief) countReviewRejections(ctx context.Context, storyID string) (int, error) {
	events, err := c.events.ListByStory(ctx, storyID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range events {
		if e.EventType != eventlog.CompletedEventType(taskqueue.StageReview) {
			continue
		}
		output, _ := e.Payload["output"].(map[string]any)
		if decision, _ := output["decision"].(string); decision == "REJECT" {
			n++
		}
	}
	return n, nil
}

// recoverStalled implements spec.md §4.6's recovery sweep: any active
// task whose lease has expired is reset to pending. The
// PersistentStallResets-th time this process finds the same task
// stalled, it is instead failed with reason "persistent_stall" — the implementation-discretion
// behavior named in spec.md §4.6; the counter is process-local, so it
// does not survive a Chief restart.
func (c *Chief) recoverStalled(ctx context.Context) {
	stalled, err := c.queue.Stalled(ctx, c.cfg.StalledLease)
	if err != nil {
		c.log.Error("listing stalled tasks failed", "error", err)
		return
	}

	for _, t := range stalled {
		if c.cfg.PersistentStallResets > 0 && c.noteStallReset(t.TaskID) >= c.cfg.PersistentStallResets {
			if err := c.queue.Fail(ctx, t.TaskID, "persistent_stall"); err != nil {
				c.log.Error("failing persistently stalled task failed", "task_id", t.TaskID, "error", err)
				continue
			}
			if _, err := c.events.Append(ctx, t.StoryID, eventlog.FailedEventType(t.Stage),
				map[string]any{"task_id": t.TaskID, "error": "persistent_stall"}, nil); err != nil {
				c.log.Error("appending task.failed event failed", "task_id", t.TaskID, "error", err)
			}
			continue
		}

		if err := c.queue.Recover(ctx, t.TaskID); err != nil {
			c.log.Error("recovering stalled task failed", "task_id", t.TaskID, "error", err)
			continue
		}
		metrics.StalledTasksRecoveredTotal.Inc()
	}
}

func (c *Chief) noteStallReset(taskID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stallResets[taskID]++
	return c.stallResets[taskID]
}

type storyIDRow struct {
	StoryID string `db:"story_id"`
}

// storiesWithEvent returns every distinct story id carrying at least
// one event of eventType.
func (c *Chief) storiesWithEvent(ctx context.Context, eventType string) ([]string, error) {
	rows, err := store.FetchMany[storyIDRow](ctx, c.st.Pool(),
		`SELECT DISTINCT story_id FROM events WHERE event_type = $1`, eventType)
	if err != nil {
		return nil, err
	}
	return toStoryIDs(rows), nil
}

// storiesWithEventNotOther returns every distinct story id carrying at
// least one event of eventType but no event of otherType — the shape
// the admission rule needs.
func (c *Chief) storiesWithEventNotOther(ctx context.Context, eventType, otherType string) ([]string, error) {
	rows, err := store.FetchMany[storyIDRow](ctx, c.st.Pool(),
		`SELECT DISTINCT e.story_id FROM events e
		 WHERE e.event_type = $1
		   AND NOT EXISTS (
		     SELECT 1 FROM events o WHERE o.story_id = e.story_id AND o.event_type = $2
		   )`,
		eventType, otherType)
	if err != nil {
		return nil, err
	}
	return toStoryIDs(rows), nil
}

func toStoryIDs(rows []storyIDRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.StoryID
	}
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
