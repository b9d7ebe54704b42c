// Package article implements the immutable article record of spec.md
// §3: the durable result of a successful review → publish transition.
package article

import (
	"context"
	"log/slog"
	"time"

	"github.com/newsroom-systems/chief/pkg/ids"
	"github.com/newsroom-systems/chief/pkg/store"
)

const articleColumns = `article_id, story_id, headline, body, byline, summary, sources, entities, tags, metadata, created_at, updated_at`

// Article is an immutable (once created) published record.
type Article struct {
	ArticleID string         `db:"article_id"`
	StoryID   string         `db:"story_id"`
	Headline  string         `db:"headline"`
	Body      string         `db:"body"`
	Byline    *string        `db:"byline"`
	Summary   *string        `db:"summary"`
	Sources   []any          `db:"sources"`
	Entities  []any          `db:"entities"`
	Tags      []any          `db:"tags"`
	Metadata  map[string]any `db:"metadata"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// Store is the article store, backed by the durable store.
type Store struct {
	st  *store.Store
	log *slog.Logger
}

// New creates an article Store over st.
func New(st *store.Store) *Store {
	return &Store{st: st, log: slog.With("component", "article")}
}

// Create persists a new article from a draft's content and returns its
// id. Called by the orchestrator on a review APPROVE decision, per
// spec.md §4.6's stage-advancement table.
func (s *Store) Create(ctx context.Context, storyID, headline, body string, byline, summary *string, sources, entities, tags []any, metadata map[string]any) (string, error) {
	if sources == nil {
		sources = []any{}
	}
	if entities == nil {
		entities = []any{}
	}
	if tags == nil {
		tags = []any{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	id := ids.NewArticleID()
	_, err := store.Execute(ctx, s.st.Pool(),
		`INSERT INTO articles (article_id, story_id, headline, body, byline, summary, sources, entities, tags, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, storyID, headline, body, byline, summary, sources, entities, tags, metadata,
	)
	if err != nil {
		return "", err
	}

	s.log.Info("article created", "article_id", id, "story_id", storyID)
	return id, nil
}

// Get fetches an article by id, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, articleID string) (*Article, error) {
	return store.FetchOne[Article](ctx, s.st.Pool(),
		`SELECT `+articleColumns+` FROM articles WHERE article_id = $1`, articleID)
}

// GetByStory fetches the article for storyID, or nil if none has been
// published yet.
func (s *Store) GetByStory(ctx context.Context, storyID string) (*Article, error) {
	return store.FetchOne[Article](ctx, s.st.Pool(),
		`SELECT `+articleColumns+` FROM articles WHERE story_id = $1 ORDER BY created_at DESC LIMIT 1`, storyID)
}
