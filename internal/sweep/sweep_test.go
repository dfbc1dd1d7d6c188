package sweep

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triagehq/triage/internal/linkage"
	"github.com/triagehq/triage/internal/sources"
	"github.com/triagehq/triage/internal/storage"
	"github.com/triagehq/triage/internal/types"
)

type failingAdapter struct{}

func (a *failingAdapter) Name() string         { return "down" }
func (a *failingAdapter) Source() types.Source { return types.SourceTicket }
func (a *failingAdapter) Fetch(ctx context.Context) ([]types.RawObservation, error) {
	return nil, fmt.Errorf("connection refused")
}

func newTestStore(t *testing.T) storage.Storage {
	t.Helper()
	store, err := storage.NewStorage(context.Background(), &storage.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunEndToEnd(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	adapters := []sources.Adapter{
		sources.NewStaticAdapter("chat", types.SourceChat, []types.RawObservation{
			{SourceID: "C1", Title: "App crashes on iOS 17", Severity: 4, Frequency: 15},
		}),
		&failingAdapter{},
	}

	resolver := linkage.NewStaticResolver(map[string]linkage.Entry{
		"App crashes on iOS 17": {Key: "PROJ-123", Status: "In Progress"},
	})
	enricher, err := linkage.NewEnricher(store, resolver, 2)
	require.NoError(t, err)

	runner, err := New(store, adapters, enricher)
	require.NoError(t, err)

	report, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Fetched)
	assert.Len(t, report.FailedSources, 1, "failing adapter is isolated")
	require.Len(t, report.Reconcile.Created, 1)
	require.NotNil(t, report.Enrichment)
	assert.Equal(t, 1, report.Enrichment.Linked)

	issue, err := store.FindBySourceID(ctx, types.SourceChat, "C1")
	require.NoError(t, err)
	require.NotNil(t, issue)
	assert.Equal(t, types.TrackerLinked, issue.TrackerState)
	assert.Equal(t, "PROJ-123", issue.TrackerKey)
}

func TestRunIsIdempotentAcrossSweeps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	adapters := []sources.Adapter{
		sources.NewStaticAdapter("chat", types.SourceChat, []types.RawObservation{
			{SourceID: "C1", Title: "Crash", Frequency: 1},
		}),
	}

	runner, err := New(store, adapters, nil)
	require.NoError(t, err)

	first, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Reconcile.Created, 1)

	second, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Reconcile.Created)
	assert.Equal(t, 1, second.Reconcile.MergedCount)

	all, err := store.FindIssues(ctx, types.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].Frequency)
}

func TestRunWithoutEnricherSkipsEnrichment(t *testing.T) {
	store := newTestStore(t)

	adapters := []sources.Adapter{
		sources.NewStaticAdapter("chat", types.SourceChat, []types.RawObservation{
			{SourceID: "C1", Title: "Crash"},
		}),
	}

	runner, err := New(store, adapters, nil)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, report.Enrichment)

	issue, err := store.FindBySourceID(context.Background(), types.SourceChat, "C1")
	require.NoError(t, err)
	assert.Equal(t, types.TrackerUnknown, issue.TrackerState)
}

func TestResyncCoversFullIssueSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// An issue created before any resolver knew about it
	stale := &types.Issue{Title: "Login broken", Source: types.SourceChat, Severity: 3, Frequency: 1}
	require.NoError(t, store.CreateIssue(ctx, stale))

	resolver := linkage.NewStaticResolver(map[string]linkage.Entry{
		"Login broken": {Key: "PROJ-789", Status: "Done"},
	})
	enricher, err := linkage.NewEnricher(store, resolver, 1)
	require.NoError(t, err)

	runner, err := New(store, nil, enricher)
	require.NoError(t, err)

	report, err := runner.Resync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Linked)

	got, err := store.GetIssue(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TrackerLinked, got.TrackerState)
}

func TestResyncWithoutEnricher(t *testing.T) {
	store := newTestStore(t)

	runner, err := New(store, nil, nil)
	require.NoError(t, err)

	_, err = runner.Resync(context.Background())
	assert.Error(t, err)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)
}
