// Package human implements the human oversight store of spec.md §4.8:
// two append-or-update tables, human prompts and human sources, that
// are interfaces for data, not logic — Chief consumes them by status,
// never interprets their content.
package human

import (
	"context"
	"log/slog"
	"time"

	"github.com/newsroom-systems/chief/pkg/chieferrors"
	"github.com/newsroom-systems/chief/pkg/ids"
	"github.com/newsroom-systems/chief/pkg/store"
)

// Prompt statuses, per spec.md §4.8's lifecycle.
const (
	PromptStatusPending    = "pending"
	PromptStatusProcessing = "processing"
	PromptStatusAnswered   = "answered"
)

// Prompt is a human question or instruction attached to a story.
type Prompt struct {
	ID        string         `db:"id"`
	StoryID   string         `db:"story_id"`
	Text      string         `db:"text"`
	Context   map[string]any `db:"context"`
	CreatedBy *string        `db:"created_by"`
	Status    string         `db:"status"`
	Response  *string        `db:"response"`
	CreatedAt time.Time      `db:"created_at"`
}

// Source is a human-provided piece of research material attached to a
// story.
type Source struct {
	ID         string         `db:"id"`
	StoryID    string         `db:"story_id"`
	SourceType string         `db:"source_type"`
	URL        *string        `db:"url"`
	Content    *string        `db:"content"`
	Metadata   map[string]any `db:"metadata"`
	Processed  bool           `db:"processed"`
	AddedAt    time.Time      `db:"added_at"`
}

// Store is the human oversight store, backed by the durable store.
type Store struct {
	st  *store.Store
	log *slog.Logger
}

// New creates a human oversight Store over st.
func New(st *store.Store) *Store {
	return &Store{st: st, log: slog.With("component", "human")}
}

// SubmitPrompt records a new pending prompt for storyID. This is the
// programmatic entry point a (currently out-of-scope) HTTP layer would
// call.
func (s *Store) SubmitPrompt(ctx context.Context, storyID, text string, createdBy *string, context map[string]any) (string, error) {
	if context == nil {
		context = map[string]any{}
	}
	id := ids.NewPromptID()
	_, err := store.Execute(ctx, s.st.Pool(),
		`INSERT INTO human_prompts (id, story_id, text, context, created_by, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, storyID, text, context, createdBy, PromptStatusPending,
	)
	if err != nil {
		return "", err
	}
	s.log.Info("human prompt submitted", "id", id, "story_id", storyID)
	return id, nil
}

// PendingPrompts returns every prompt awaiting orchestrator action.
func (s *Store) PendingPrompts(ctx context.Context) ([]Prompt, error) {
	return store.FetchMany[Prompt](ctx, s.st.Pool(),
		`SELECT id, story_id, text, context, created_by, status, response, created_at
		 FROM human_prompts WHERE status = $1 ORDER BY created_at ASC`,
		PromptStatusPending,
	)
}

// MarkProcessing transitions a prompt from pending to processing, the
// step Chief takes once it has enqueued the dedicated research task
// per spec.md §4.8.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	n, err := store.Execute(ctx, s.st.Pool(),
		`UPDATE human_prompts SET status = $1 WHERE id = $2 AND status = $3`,
		PromptStatusProcessing, id, PromptStatusPending,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return chieferrors.New(chieferrors.InvalidState, "human.MarkProcessing", nil)
	}
	return nil
}

// Answer records the research worker's response and marks the prompt
// answered.
func (s *Store) Answer(ctx context.Context, id, response string) error {
	_, err := store.Execute(ctx, s.st.Pool(),
		`UPDATE human_prompts SET status = $1, response = $2 WHERE id = $3`,
		PromptStatusAnswered, response, id,
	)
	return err
}

// AttachSource records a human-provided source for storyID.
func (s *Store) AttachSource(ctx context.Context, storyID, sourceType string, url, content *string, metadata map[string]any) (string, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	id := ids.NewSourceID()
	_, err := store.Execute(ctx, s.st.Pool(),
		`INSERT INTO human_sources (id, story_id, source_type, url, content, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, storyID, sourceType, url, content, metadata,
	)
	if err != nil {
		return "", err
	}
	s.log.Info("human source attached", "id", id, "story_id", storyID, "source_type", sourceType)
	return id, nil
}

// UnprocessedSources returns sources for storyID not yet ingested into
// a research context.
func (s *Store) UnprocessedSources(ctx context.Context, storyID string) ([]Source, error) {
	return store.FetchMany[Source](ctx, s.st.Pool(),
		`SELECT id, story_id, source_type, url, content, metadata, processed, added_at
		 FROM human_sources WHERE story_id = $1 AND processed = false ORDER BY added_at ASC`,
		storyID,
	)
}

// MarkProcessed sets a source's processed flag, called by the research
// worker after ingesting it.
func (s *Store) MarkProcessed(ctx context.Context, id string) error {
	_, err := store.Execute(ctx, s.st.Pool(),
		`UPDATE human_sources SET processed = true WHERE id = $1`, id)
	return err
}
