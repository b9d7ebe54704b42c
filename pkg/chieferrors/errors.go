// Package chieferrors defines the error taxonomy shared across the
// coordination substrate (store, event log, task queue, orchestrator,
// agent runtime).
package chieferrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way the pipeline needs to react to it.
type Kind string

// Error kinds, per the error-handling design.
const (
	// Transient errors are retried at the operation level with bounded
	// backoff; if retries are exhausted inside a task they become TaskFailure.
	Transient Kind = "TRANSIENT"
	// TaskFailure is a worker-level failure: logged as task.failed.<stage>,
	// the task row moves to failed.
	TaskFailure Kind = "TASK_FAILURE"
	// InvalidState indicates a precondition violation (e.g. completing a
	// non-active task) — a bug or a lost race. Never retried.
	InvalidState Kind = "INVALID_STATE"
	// Conflict is an expected race loss (unique-key violation, claim race).
	Conflict Kind = "CONFLICT"
	// Unavailable indicates the backend is unreachable.
	Unavailable Kind = "UNAVAILABLE"
	// PolicyReject is a terminal-but-not-an-error outcome (low newsworthiness,
	// max revisions reached).
	PolicyReject Kind = "POLICY_REJECT"
	// Invalid indicates malformed input at the boundary of an operation
	// (e.g. an empty event type).
	Invalid Kind = "INVALID"
)

// Error wraps a cause with the kind and operation that produced it.
type Error struct {
	Kind  Kind
	Op    string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a tagged error for op, wrapping cause.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or "" if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
