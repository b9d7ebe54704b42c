package eventlog

import (
	"context"
	"log/slog"

	"github.com/newsroom-systems/chief/pkg/chieferrors"
	"github.com/newsroom-systems/chief/pkg/store"
)

// Log is the append-only event log, backed by the durable store.
type Log struct {
	st  *store.Store
	log *slog.Logger
}

// New creates an event log over st.
func New(st *store.Store) *Log {
	return &Log{st: st, log: slog.With("component", "eventlog")}
}

// Append writes a new event for storyID and returns its backend-assigned
// sequence number. Sequence numbers are monotonic per backend assignment,
// not per story — see spec.md §4.2; ordering within a story is the
// sequence of created_at broken by event_seq, which list_by_story honors.
func (l *Log) Append(ctx context.Context, storyID, eventType string, payload map[string]any, agentID *string) (int64, error) {
	if eventType == "" {
		return 0, chieferrors.New(chieferrors.Invalid, "eventlog.Append", nil)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	seq, err := store.FetchValue[int64](ctx, l.st.Pool(),
		`INSERT INTO events (story_id, agent_id, event_type, payload)
		 VALUES ($1, $2, $3, $4)
		 RETURNING event_seq`,
		storyID, agentID, eventType, payload,
	)
	if err != nil {
		return 0, err
	}

	l.log.Debug("event appended", "story_id", storyID, "event_type", eventType, "event_seq", seq)
	return seq, nil
}

// ListByStory returns every event for storyID in chronological order.
func (l *Log) ListByStory(ctx context.Context, storyID string) ([]Event, error) {
	return store.FetchMany[Event](ctx, l.st.Pool(),
		`SELECT event_seq, story_id, agent_id, event_type, payload, created_at
		 FROM events
		 WHERE story_id = $1
		 ORDER BY created_at ASC, event_seq ASC`,
		storyID,
	)
}

// ListRecent returns the most recently appended events across all
// stories, most-recent first.
func (l *Log) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return store.FetchMany[Event](ctx, l.st.Pool(),
		`SELECT event_seq, story_id, agent_id, event_type, payload, created_at
		 FROM events
		 ORDER BY created_at DESC, event_seq DESC
		 LIMIT $1`,
		limit,
	)
}

// LatestOfType returns the most recent event of eventType for storyID,
// or nil if none exists. Used by the orchestrator to read e.g. the
// latest story.detected payload without folding the whole timeline.
func (l *Log) LatestOfType(ctx context.Context, storyID, eventType string) (*Event, error) {
	return store.FetchOne[Event](ctx, l.st.Pool(),
		`SELECT event_seq, story_id, agent_id, event_type, payload, created_at
		 FROM events
		 WHERE story_id = $1 AND event_type = $2
		 ORDER BY created_at DESC, event_seq DESC
		 LIMIT 1`,
		storyID, eventType,
	)
}

// Exists reports whether any event of eventType exists for storyID.
func (l *Log) Exists(ctx context.Context, storyID, eventType string) (bool, error) {
	n, err := store.FetchValue[int64](ctx, l.st.Pool(),
		`SELECT count(*) FROM events WHERE story_id = $1 AND event_type = $2`,
		storyID, eventType,
	)
	return n > 0, err
}
