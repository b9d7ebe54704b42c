package memory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pgvector/pgvector-go"

	"github.com/newsroom-systems/chief/pkg/chieferrors"
	"github.com/newsroom-systems/chief/pkg/ids"
	"github.com/newsroom-systems/chief/pkg/store"
)

// Memory is the deduplication memory: per-story content rows with dense
// vector embeddings, queried by cosine similarity.
type Memory struct {
	st  *store.Store
	dim int
	log *slog.Logger
}

// New creates a Memory over st. dim is the fixed embedding dimension
// bound at bootstrap (spec.md §4.4): Add rejects embeddings of any other
// length before they ever reach the database, since a dimension
// mismatch there is a configuration bug, not a transient condition.
func New(st *store.Store, dim int) *Memory {
	return &Memory{st: st, dim: dim, log: slog.With("component", "memory")}
}

// Add unconditionally inserts a new memory row and returns its id.
func (m *Memory) Add(ctx context.Context, storyID, content string, embedding []float32, memoryType string, metadata map[string]any) (string, error) {
	if err := m.checkDim(embedding); err != nil {
		return "", err
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	id := ids.NewMemoryID()
	_, err := store.Execute(ctx, m.st.Pool(),
		`INSERT INTO memory_items (id, story_id, content, embedding, memory_type, metadata)
		 VALUES ($1, $2, $3, $4::vector, $5, $6)`,
		id, storyID, content, pgvector.NewVector(embedding).String(), memoryType, metadata,
	)
	if err != nil {
		return "", err
	}

	m.log.Debug("memory item added", "id", id, "story_id", storyID, "memory_type", memoryType)
	return id, nil
}

// FindSimilar returns memory rows whose cosine similarity to embedding
// is ≥ threshold, sorted by descending similarity, up to limit. Distance
// metric is cosine: similarity = 1 − cosine_distance, matching the
// `<=>` operator pgvector's vector_cosine_ops index class provides.
func (m *Memory) FindSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]Match, error) {
	if err := m.checkDim(embedding); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1
	}
	v := pgvector.NewVector(embedding).String()

	type row struct {
		StoryID    string  `db:"story_id"`
		Similarity float64 `db:"similarity"`
		Content    string  `db:"content"`
	}
	rows, err := store.FetchMany[row](ctx, m.st.Pool(),
		`SELECT story_id, 1 - (embedding <=> $1::vector) AS similarity, content
		 FROM memory_items
		 WHERE 1 - (embedding <=> $1::vector) >= $2
		 ORDER BY embedding <=> $1::vector ASC
		 LIMIT $3`,
		v, threshold, limit,
	)
	if err != nil {
		return nil, err
	}

	out := make([]Match, 0, len(rows))
	for _, r := range rows {
		out = append(out, Match{StoryID: r.StoryID, Similarity: r.Similarity, Content: r.Content})
	}
	return out, nil
}

// FindDuplicate is the dedup gate of spec.md §4.7 step 4–5: the single
// best match at or above threshold, if any. Returns (nil, nil) when the
// incoming detection is not a duplicate of anything on file.
func (m *Memory) FindDuplicate(ctx context.Context, embedding []float32, threshold float64) (*Match, error) {
	matches, err := m.FindSimilar(ctx, embedding, threshold, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

func (m *Memory) checkDim(embedding []float32) error {
	if m.dim > 0 && len(embedding) != m.dim {
		return chieferrors.New(chieferrors.Invalid, "memory",
			fmt.Errorf("embedding has dimension %d, store is bound to %d", len(embedding), m.dim))
	}
	return nil
}
