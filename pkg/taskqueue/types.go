// Package taskqueue implements the role-partitioned task queue of
// spec.md §4.3: create/claim/complete/fail with exactly-once claiming,
// priority ordering, and lease-style stalled-task recovery.
package taskqueue

import (
	"errors"
	"time"
)

// Task statuses, per spec.md §3.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Task is a mutable work item at a specific stage for a specific story.
type Task struct {
	TaskID        string         `db:"task_id"`
	StoryID       string         `db:"story_id"`
	Stage         string         `db:"stage"`
	Status        string         `db:"status"`
	Priority      int            `db:"priority"`
	AssignedAgent *string        `db:"assigned_agent"`
	Input         map[string]any `db:"input"`
	Output        map[string]any `db:"output"`
	CreatedAt     time.Time      `db:"created_at"`
	StartedAt     *time.Time     `db:"started_at"`
	CompletedAt   *time.Time     `db:"completed_at"`
	Deadline      *time.Time     `db:"deadline"`
}

// Sentinel errors for queue operations, mirroring the teacher's
// pkg/queue/types.go shape (ErrNoSessionsAvailable / ErrAtCapacity).
var (
	// ErrNoTaskAvailable indicates no pending task is eligible for the
	// claiming role right now.
	ErrNoTaskAvailable = errors.New("no task available")
)
