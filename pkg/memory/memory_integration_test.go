//go:build integration

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-systems/chief/internal/testdb"
)

// dim must match internal/testdb's bootstrap dimension.
const dim = 8

func vec(lead float32) []float32 {
	v := make([]float32, dim)
	v[0] = lead
	for i := 1; i < dim; i++ {
		v[i] = 0.01
	}
	return v
}

// TestFindDuplicateAboveThreshold is spec.md §8 scenario S3: an entry
// whose embedding is highly similar to one already on file is reported
// as a duplicate of the existing story, and Add is never called for it.
func TestFindDuplicateAboveThreshold(t *testing.T) {
	st := testdb.New(t)
	ctx := context.Background()
	m := New(st, dim)

	_, err := m.Add(ctx, "story-S3a", "a plane crashed near the coast", vec(1.0), TypeStoryDetection, nil)
	require.NoError(t, err)

	match, err := m.FindDuplicate(ctx, vec(0.999), 0.85)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "story-S3a", match.StoryID)
	assert.GreaterOrEqual(t, match.Similarity, 0.85)
}

func TestFindDuplicateBelowThresholdIsNil(t *testing.T) {
	st := testdb.New(t)
	ctx := context.Background()
	m := New(st, dim)

	_, err := m.Add(ctx, "story-unrelated", "a city council meeting", vec(1.0), TypeStoryDetection, nil)
	require.NoError(t, err)

	opposite := vec(1.0)
	for i := range opposite {
		opposite[i] = -opposite[i]
	}

	match, err := m.FindDuplicate(ctx, opposite, 0.85)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestAddIsUnconditional(t *testing.T) {
	st := testdb.New(t)
	ctx := context.Background()
	m := New(st, dim)

	id1, err := m.Add(ctx, "story-a", "content one", vec(1.0), TypeStoryDetection, nil)
	require.NoError(t, err)
	id2, err := m.Add(ctx, "story-b", "content two", vec(1.0), TypeStoryDetection, nil)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}
