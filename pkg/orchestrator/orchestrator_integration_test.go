//go:build integration

package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-systems/chief/internal/testdb"
	"github.com/newsroom-systems/chief/pkg/eventlog"
	"github.com/newsroom-systems/chief/pkg/ids"
	"github.com/newsroom-systems/chief/pkg/taskqueue"
)

// S1 — happy path approval (admission half): a detection scoring 0.85
// is admitted with a research task at priority round(0.85*10) = 9.
func TestSweepAdmitsHighScoringDetection(t *testing.T) {
	st := testdb.New(t)
	chief := New(st, DefaultConfig())
	events := eventlog.New(st)
	queue := taskqueue.New(st)
	ctx := context.Background()

	storyID := ids.NewStoryID()
	_, err := events.Append(ctx, storyID, eventlog.TypeStoryDetected,
		map[string]any{"score": 0.85, "title": "X", "url": "http://x", "summary": "…"}, nil)
	require.NoError(t, err)

	require.NoError(t, chief.Sweep(ctx))

	created, err := events.LatestOfType(ctx, storyID, eventlog.TypeStoryCreated)
	require.NoError(t, err)
	require.NotNil(t, created)

	tasks, err := queue.ListByStory(ctx, storyID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, taskqueue.StageResearch, tasks[0].Stage)
	assert.Equal(t, 9, tasks[0].Priority)
	assert.Equal(t, taskqueue.StatusPending, tasks[0].Status)
}

// S2 — low-score rejection: no task is created, and a story.rejected
// event records why.
func TestSweepRejectsLowScoringDetection(t *testing.T) {
	st := testdb.New(t)
	chief := New(st, DefaultConfig())
	events := eventlog.New(st)
	queue := taskqueue.New(st)
	ctx := context.Background()

	storyID := ids.NewStoryID()
	_, err := events.Append(ctx, storyID, eventlog.TypeStoryDetected,
		map[string]any{"score": 0.4, "title": "Y"}, nil)
	require.NoError(t, err)

	require.NoError(t, chief.Sweep(ctx))

	rejected, err := events.LatestOfType(ctx, storyID, eventlog.TypeStoryRejected)
	require.NoError(t, err)
	require.NotNil(t, rejected)
	assert.Equal(t, "low_score", rejected.Payload["reason"])

	tasks, err := queue.ListByStory(ctx, storyID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

// S5 — stall recovery: an active task whose lease has expired becomes
// pending again with its assignment cleared. A zero lease stands in for
// elapsed wall-clock time, since the test has no clock to advance.
func TestSweepRecoversStalledTask(t *testing.T) {
	st := testdb.New(t)
	queue := taskqueue.New(st)
	ctx := context.Background()

	storyID := ids.NewStoryID()
	taskID, err := queue.Create(ctx, storyID, taskqueue.StageResearch, 5, nil, nil)
	require.NoError(t, err)

	claimed, err := queue.Claim(ctx, "agent-1", taskqueue.RoleReporter)
	require.NoError(t, err)
	require.Equal(t, taskID, claimed.TaskID)

	time.Sleep(10 * time.Millisecond)

	cfg := DefaultConfig()
	cfg.StalledLease = 0
	chief := New(st, cfg)
	require.NoError(t, chief.Sweep(ctx))

	refreshed, err := queue.Get(ctx, taskID)
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.Equal(t, taskqueue.StatusPending, refreshed.Status)
	assert.Nil(t, refreshed.AssignedAgent)
	assert.Nil(t, refreshed.StartedAt)
}

// Exercises the persistent-stall path: after PersistentStallResets
// sweeps over the same still-stalled task, Chief fails it instead of
// resetting it again.
func TestSweepFailsPersistentlyStalledTask(t *testing.T) {
	st := testdb.New(t)
	queue := taskqueue.New(st)
	events := eventlog.New(st)
	ctx := context.Background()

	storyID := ids.NewStoryID()
	taskID, err := queue.Create(ctx, storyID, taskqueue.StageResearch, 5, nil, nil)
	require.NoError(t, err)
	_, err = queue.Claim(ctx, "agent-1", taskqueue.RoleReporter)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.StalledLease = 0
	cfg.PersistentStallResets = 2
	chief := New(st, cfg)

	// The first sweep resets; claim again so the second sweep finds the
	// same task stalled a second time.
	require.NoError(t, chief.Sweep(ctx))
	_, err = queue.Claim(ctx, "agent-1", taskqueue.RoleReporter)
	require.NoError(t, err)

	require.NoError(t, chief.Sweep(ctx))

	refreshed, err := queue.Get(ctx, taskID)
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.Equal(t, taskqueue.StatusFailed, refreshed.Status)

	failed, err := events.LatestOfType(ctx, storyID, eventlog.FailedEventType(taskqueue.StageResearch))
	require.NoError(t, err)
	require.NotNil(t, failed)
	assert.Equal(t, "persistent_stall", failed.Payload["error"])
}

// S6 — revision loop cap: a story with three prior edit tasks that
// receives a REJECT decision is killed instead of looping again.
func TestSweepKillsStoryAtRevisionCap(t *testing.T) {
	st := testdb.New(t)
	chief := New(st, DefaultConfig())
	events := eventlog.New(st)
	queue := taskqueue.New(st)
	ctx := context.Background()

	storyID := ids.NewStoryID()
	for i := 0; i < 3; i++ {
		_, err := queue.Create(ctx, storyID, taskqueue.StageEdit, 7, nil, nil)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := events.Append(ctx, storyID, eventlog.CompletedEventType(taskqueue.StageReview),
			map[string]any{"output": map[string]any{"decision": "REJECT", "feedback": "needs work"}}, nil)
		require.NoError(t, err)
	}
	// The fourth rejection that should trigger the kill.
	_, err := events.Append(ctx, storyID, eventlog.CompletedEventType(taskqueue.StageReview),
		map[string]any{"output": map[string]any{"decision": "REJECT", "feedback": "still not there"}}, nil)
	require.NoError(t, err)

	require.NoError(t, chief.Sweep(ctx))

	killed, err := events.LatestOfType(ctx, storyID, eventlog.TypeStoryKilled)
	require.NoError(t, err)
	require.NotNil(t, killed)
	assert.Equal(t, "too_many_revisions", killed.Payload["reason"])

	n, err := queue.CountAtStage(ctx, storyID, taskqueue.StageEdit)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// Approval path: a review APPROVE with no existing publish task
// persists an article and enqueues publication.
func TestSweepPublishesApprovedReview(t *testing.T) {
	st := testdb.New(t)
	chief := New(st, DefaultConfig())
	events := eventlog.New(st)
	queue := taskqueue.New(st)
	ctx := context.Background()

	storyID := ids.NewStoryID()
	_, err := events.Append(ctx, storyID, eventlog.CompletedEventType(taskqueue.StageDraft),
		map[string]any{"output": map[string]any{"headline": "Council approves budget", "article": "Full story text.", "word_count": 3}}, nil)
	require.NoError(t, err)
	// A review task already exists for this draft round, so the
	// draft→review rule below has nothing left to do.
	_, err = queue.Create(ctx, storyID, taskqueue.StageReview, 6, nil, nil)
	require.NoError(t, err)
	_, err = events.Append(ctx, storyID, eventlog.CompletedEventType(taskqueue.StageReview),
		map[string]any{"output": map[string]any{"decision": "APPROVE"}}, nil)
	require.NoError(t, err)

	require.NoError(t, chief.Sweep(ctx))

	publishTasks, err := tasksAtStage(ctx, queue, storyID, taskqueue.StagePublish)
	require.NoError(t, err)
	require.Len(t, publishTasks, 1)
	assert.NotEmpty(t, publishTasks[0].Input["article_id"])

	// Idempotent: a second sweep must not create a second publish task.
	require.NoError(t, chief.Sweep(ctx))
	publishTasks, err = tasksAtStage(ctx, queue, storyID, taskqueue.StagePublish)
	require.NoError(t, err)
	assert.Len(t, publishTasks, 1)
}

func tasksAtStage(ctx context.Context, queue *taskqueue.Queue, storyID, stage string) ([]taskqueue.Task, error) {
	all, err := queue.ListByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	var out []taskqueue.Task
	for _, t := range all {
		if t.Stage == stage {
			out = append(out, t)
		}
	}
	return out, nil
}
