package rank

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triagehq/triage/internal/storage"
	"github.com/triagehq/triage/internal/types"
)

func newRanker(t *testing.T) (*Ranker, storage.Storage) {
	t.Helper()
	store, err := storage.NewStorage(context.Background(), &storage.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ranker, err := New(store)
	require.NoError(t, err)
	return ranker, store
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestTopIssuesTieBrokenByCreatedAt(t *testing.T) {
	ranker, store := newRanker(t)
	ctx := context.Background()

	// A: freq=10 sev=2 -> 20, created first
	a := &types.Issue{Title: "A", Source: types.SourceChat, Frequency: 10, Severity: 2}
	require.NoError(t, store.CreateIssue(ctx, a))

	time.Sleep(10 * time.Millisecond)

	// B: freq=4 sev=5 -> 20, created after A
	b := &types.Issue{Title: "B", Source: types.SourceChat, Frequency: 4, Severity: 5}
	require.NoError(t, store.CreateIssue(ctx, b))

	top, err := ranker.TopIssues(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Title, "equal scores: most recent created_at first")
	assert.Equal(t, "A", top[1].Title)
}

func TestTopIssuesNonPositiveLimit(t *testing.T) {
	ranker, store := newRanker(t)
	ctx := context.Background()

	issue := &types.Issue{Title: "Present", Source: types.SourceChat, Frequency: 1, Severity: 1}
	require.NoError(t, store.CreateIssue(ctx, issue))

	top, err := ranker.TopIssues(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, top)

	top, err = ranker.TopIssues(ctx, -1)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestTopIssuesNotCached(t *testing.T) {
	ranker, store := newRanker(t)
	ctx := context.Background()

	low := &types.Issue{Title: "Low", Source: types.SourceChat, Frequency: 1, Severity: 1}
	require.NoError(t, store.CreateIssue(ctx, low))

	top, err := ranker.TopIssues(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Low", top[0].Title)

	// A later write must be visible on the next call
	high := &types.Issue{Title: "High", Source: types.SourceChat, Frequency: 10, Severity: 5}
	require.NoError(t, store.CreateIssue(ctx, high))

	top, err = ranker.TopIssues(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "High", top[0].Title)
}

func TestStats(t *testing.T) {
	issues := []*types.Issue{
		{Severity: 5, Status: types.StatusOpen},
		{Severity: 4, Status: types.StatusClosed},
		{Severity: 2, Status: types.StatusOpen},
		{Severity: 1, Status: types.StatusOpen},
	}

	stats := Stats(issues)
	assert.Equal(t, 4, stats.TotalIssues)
	assert.Equal(t, 2, stats.CriticalIssues)
	assert.Equal(t, 3, stats.OpenIssues)
	assert.InDelta(t, 3.0, stats.MeanSeverity, 0.001)
}

func TestStatsEmpty(t *testing.T) {
	stats := Stats(nil)
	assert.Equal(t, 0, stats.TotalIssues)
	assert.Equal(t, 0.0, stats.MeanSeverity)
}
