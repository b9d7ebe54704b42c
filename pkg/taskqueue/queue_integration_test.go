//go:build integration

package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-systems/chief/internal/testdb"
)

// TestForUpdateSkipLockedClaiming exercises the atomic claim path: a
// pending task transitions to active exactly once, and a second claim
// attempt against the now-empty queue reports ErrNoTaskAvailable.
func TestForUpdateSkipLockedClaiming(t *testing.T) {
	st := testdb.New(t)
	ctx := context.Background()
	q := New(st)

	taskID, err := q.Create(ctx, "story-1", StageResearch, 5, nil, nil)
	require.NoError(t, err)

	claimed, err := q.Claim(ctx, "agent-1", RoleReporter)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, taskID, claimed.TaskID)
	assert.Equal(t, StatusActive, claimed.Status)
	require.NotNil(t, claimed.AssignedAgent)
	assert.Equal(t, "agent-1", *claimed.AssignedAgent)

	_, err = q.Claim(ctx, "agent-2", RoleReporter)
	assert.ErrorIs(t, err, ErrNoTaskAvailable)
}

// TestConcurrentClaimsDoNotDoubleAssign is the exactly-once claiming
// property (spec.md §8 scenario S4): N concurrent claimers against N
// pending tasks each end up with a distinct task, none left unclaimed,
// none claimed twice.
func TestConcurrentClaimsDoNotDoubleAssign(t *testing.T) {
	st := testdb.New(t)
	ctx := context.Background()
	q := New(st)

	const n = 8
	taskIDs := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id, err := q.Create(ctx, fmt.Sprintf("story-%d", i), StageDraft, 1, nil, nil)
		require.NoError(t, err)
		taskIDs[id] = struct{}{}
	}

	var mu sync.Mutex
	claimedIDs := make(map[string]struct{}, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(agent int) {
			defer wg.Done()
			claimed, err := q.Claim(ctx, fmt.Sprintf("agent-%d", agent), RoleReporter)
			if err != nil {
				return
			}
			mu.Lock()
			claimedIDs[claimed.TaskID] = struct{}{}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, claimedIDs, n, "every task should be claimed exactly once")
	for id := range claimedIDs {
		_, known := taskIDs[id]
		assert.True(t, known, "claimed task %s was not one we created", id)
	}

	_, err := q.Claim(ctx, "agent-late", RoleReporter)
	assert.ErrorIs(t, err, ErrNoTaskAvailable)
}

// TestStalledTaskRecovery is scenario S5: a task whose lease has expired
// becomes re-claimable after Recover resets it to pending.
func TestStalledTaskRecovery(t *testing.T) {
	st := testdb.New(t)
	ctx := context.Background()
	q := New(st)

	taskID, err := q.Create(ctx, "story-stall", StageReview, 1, nil, nil)
	require.NoError(t, err)

	claimed, err := q.Claim(ctx, "agent-slow", RoleEditor)
	require.NoError(t, err)
	require.Equal(t, taskID, claimed.TaskID)

	// Force the task to look stalled relative to an effectively-zero lease.
	stalled, err := q.Stalled(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stalled, 1)
	require.Equal(t, taskID, stalled[0].TaskID)

	require.NoError(t, q.Recover(ctx, taskID))

	task, err := q.Get(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, task.Status)
	assert.Nil(t, task.AssignedAgent)

	reclaimed, err := q.Claim(ctx, "agent-fast", RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, taskID, reclaimed.TaskID)
}

// TestCompleteIsIdempotent covers re-calling Complete on an
// already-completed task and rejecting it on a pending one.
func TestCompleteIsIdempotent(t *testing.T) {
	st := testdb.New(t)
	ctx := context.Background()
	q := New(st)

	taskID, err := q.Create(ctx, "story-complete", StagePublish, 1, nil, nil)
	require.NoError(t, err)

	_, err = q.Claim(ctx, "agent-1", RolePublisher)
	require.NoError(t, err)

	require.NoError(t, q.Complete(ctx, taskID, map[string]any{"published_url": "https://example.test/a"}))
	require.NoError(t, q.Complete(ctx, taskID, map[string]any{"published_url": "https://example.test/a"}))

	pendingID, err := q.Create(ctx, "story-complete-2", StagePublish, 1, nil, nil)
	require.NoError(t, err)
	err = q.Complete(ctx, pendingID, nil)
	assert.Error(t, err)
}
