package taskqueue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/newsroom-systems/chief/pkg/chieferrors"
	"github.com/newsroom-systems/chief/pkg/ids"
	"github.com/newsroom-systems/chief/pkg/store"
)

const taskColumns = `task_id, story_id, stage, status, priority, assigned_agent, input, output, created_at, started_at, completed_at, deadline`

// Queue is the role-partitioned task queue, backed by the durable store.
type Queue struct {
	st  *store.Store
	log *slog.Logger
}

// New creates a Queue over st.
func New(st *store.Store) *Queue {
	return &Queue{st: st, log: slog.With("component", "taskqueue")}
}

// Create inserts a pending task at stage for story. Per invariant 2,
// callers (the orchestrator) are responsible for checking that no
// pending/active task already exists at (story_id, stage) before
// calling Create — the queue itself does not enforce that globally
// because duplicate-avoidance is a stage-advancement policy decision,
// not a queue invariant the store can check cheaply without a unique
// partial index the orchestrator's event-driven idempotency already
// makes redundant.
func (q *Queue) Create(ctx context.Context, storyID, stage string, priority int, input map[string]any, deadline *time.Time) (string, error) {
	if input == nil {
		input = map[string]any{}
	}
	taskID := ids.NewTaskID()

	_, err := store.Execute(ctx, q.st.Pool(),
		`INSERT INTO tasks (task_id, story_id, stage, status, priority, input, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		taskID, storyID, stage, StatusPending, priority, input, deadline,
	)
	if err != nil {
		return "", err
	}

	q.log.Info("task created", "task_id", taskID, "story_id", storyID, "stage", stage, "priority", priority)
	return taskID, nil
}

// Claim atomically selects the highest-priority pending task eligible
// for role, whose created_at is oldest among equal priorities, and
// transitions it to active. This is the authoritative algorithm of
// spec.md §4.3: SELECT ... FOR UPDATE SKIP LOCKED inside one
// transaction, ordered by priority DESC, created_at ASC, task_id ASC —
// the task_id tiebreaker is load-bearing, preventing starvation on
// saturated priorities.
func (q *Queue) Claim(ctx context.Context, agentID, role string) (*Task, error) {
	stages := StagesForRole(role)
	if len(stages) == 0 {
		return nil, ErrNoTaskAvailable
	}

	tx, err := q.st.Pool().Begin(ctx)
	if err != nil {
		return nil, chieferrors.New(chieferrors.Unavailable, "taskqueue.Claim", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	candidate, err := store.FetchOne[Task](ctx, tx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE status = $1 AND stage = ANY($2)
		 ORDER BY priority DESC, created_at ASC, task_id ASC
		 LIMIT 1
		 FOR UPDATE SKIP LOCKED`,
		StatusPending, stages,
	)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, ErrNoTaskAvailable
	}

	now := time.Now()
	claimed, err := store.FetchOne[Task](ctx, tx,
		`UPDATE tasks SET status = $1, assigned_agent = $2, started_at = $3
		 WHERE task_id = $4
		 RETURNING `+taskColumns,
		StatusActive, agentID, now, candidate.TaskID,
	)
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		// Lost the race between the select and the update (shouldn't
		// happen under SKIP LOCKED, but guard defensively).
		return nil, ErrNoTaskAvailable
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, chieferrors.New(chieferrors.Unavailable, "taskqueue.Claim", err)
	}

	q.log.Info("task claimed", "task_id", claimed.TaskID, "story_id", claimed.StoryID, "stage", claimed.Stage, "agent_id", agentID)
	return claimed, nil
}

// Complete transitions an active task to completed, persisting output.
// Requires status = active; idempotent re-call on an already-completed
// task is a no-op. Calling on a pending or failed task is INVALID_STATE.
func (q *Queue) Complete(ctx context.Context, taskID string, output map[string]any) error {
	if output == nil {
		output = map[string]any{}
	}

	task, err := q.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return chieferrors.New(chieferrors.InvalidState, "taskqueue.Complete", errors.New("task not found"))
	}
	if task.Status == StatusCompleted {
		return nil
	}
	if task.Status != StatusActive {
		return chieferrors.New(chieferrors.InvalidState, "taskqueue.Complete",
			errors.New("task is "+task.Status+", not active"))
	}

	n, err := store.Execute(ctx, q.st.Pool(),
		`UPDATE tasks SET status = $1, output = $2, completed_at = $3
		 WHERE task_id = $4 AND status = $5`,
		StatusCompleted, output, time.Now(), taskID, StatusActive,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		// Lost a race with a concurrent recovery/complete — treat as the
		// idempotent no-op if it ended up completed, else surface the race.
		refreshed, ferr := q.Get(ctx, taskID)
		if ferr == nil && refreshed != nil && refreshed.Status == StatusCompleted {
			return nil
		}
		return chieferrors.New(chieferrors.InvalidState, "taskqueue.Complete", errors.New("concurrent status change"))
	}

	q.log.Info("task completed", "task_id", taskID)
	return nil
}

// Fail transitions an active task to failed, persisting {error: message}
// as output. Same preconditions as Complete.
func (q *Queue) Fail(ctx context.Context, taskID string, errMessage string) error {
	task, err := q.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return chieferrors.New(chieferrors.InvalidState, "taskqueue.Fail", errors.New("task not found"))
	}
	if task.Status != StatusActive {
		return chieferrors.New(chieferrors.InvalidState, "taskqueue.Fail",
			errors.New("task is "+task.Status+", not active"))
	}

	_, err = store.Execute(ctx, q.st.Pool(),
		`UPDATE tasks SET status = $1, output = $2, completed_at = $3
		 WHERE task_id = $4 AND status = $5`,
		StatusFailed, map[string]any{"error": errMessage}, time.Now(), taskID, StatusActive,
	)
	if err != nil {
		return err
	}

	q.log.Warn("task failed", "task_id", taskID, "error", errMessage)
	return nil
}

// Get fetches a single task by id, or nil if it does not exist.
func (q *Queue) Get(ctx context.Context, taskID string) (*Task, error) {
	return store.FetchOne[Task](ctx, q.st.Pool(),
		`SELECT `+taskColumns+` FROM tasks WHERE task_id = $1`, taskID)
}

// ListByStory returns every task for story in creation order.
func (q *Queue) ListByStory(ctx context.Context, storyID string) ([]Task, error) {
	return store.FetchMany[Task](ctx, q.st.Pool(),
		`SELECT `+taskColumns+` FROM tasks WHERE story_id = $1 ORDER BY created_at ASC`,
		storyID,
	)
}

// HasOpenTask reports whether story has a pending or active task at
// stage — the idempotency check the orchestrator makes before creating
// a review task.
func (q *Queue) HasOpenTask(ctx context.Context, storyID, stage string) (bool, error) {
	n, err := store.FetchValue[int64](ctx, q.st.Pool(),
		`SELECT count(*) FROM tasks
		 WHERE story_id = $1 AND stage = $2 AND status IN ($3, $4)`,
		storyID, stage, StatusPending, StatusActive,
	)
	return n > 0, err
}

// CountAtStage returns how many tasks (of any status) exist for story at
// stage — used for the revision-count check (count of edit tasks).
func (q *Queue) CountAtStage(ctx context.Context, storyID, stage string) (int, error) {
	n, err := store.FetchValue[int64](ctx, q.st.Pool(),
		`SELECT count(*) FROM tasks WHERE story_id = $1 AND stage = $2`,
		storyID, stage,
	)
	return int(n), err
}

// Stalled returns every active task whose started_at is older than
// lease, per spec.md §4.3's stalled-task definition.
func (q *Queue) Stalled(ctx context.Context, lease time.Duration) ([]Task, error) {
	cutoff := time.Now().Add(-lease)
	return store.FetchMany[Task](ctx, q.st.Pool(),
		`SELECT `+taskColumns+` FROM tasks
		 WHERE status = $1 AND started_at IS NOT NULL AND started_at < $2`,
		StatusActive, cutoff,
	)
}

// Recover resets a stalled task to pending, clearing assigned_agent and
// started_at, so it becomes re-claimable. No event is emitted — the
// task may yet succeed on re-claim by another agent (spec.md §4.6).
func (q *Queue) Recover(ctx context.Context, taskID string) error {
	n, err := store.Execute(ctx, q.st.Pool(),
		`UPDATE tasks SET status = $1, assigned_agent = NULL, started_at = NULL
		 WHERE task_id = $2 AND status = $3`,
		StatusPending, taskID, StatusActive,
	)
	if err != nil {
		return err
	}
	if n > 0 {
		q.log.Warn("stalled task recovered", "task_id", taskID)
	}
	return nil
}
