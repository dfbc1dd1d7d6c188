// Package rank derives the priority ordering over the backlog.
//
// Ranking is computed at query time from the store, never cached. The order
// is total: frequency*severity descending, then created_at descending (most
// recent first), then ID ascending so full ties are deterministic.
package rank

import (
	"context"
	"fmt"

	"github.com/triagehq/triage/internal/storage"
	"github.com/triagehq/triage/internal/types"
)

// Ranker reads the ranked backlog from the store
type Ranker struct {
	store storage.Storage
}

// New creates a ranker backed by the given store
func New(store storage.Storage) (*Ranker, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	return &Ranker{store: store}, nil
}

// TopIssues returns up to limit issues in priority order. A limit <= 0
// yields an empty slice.
func (r *Ranker) TopIssues(ctx context.Context, limit int) ([]*types.Issue, error) {
	if limit <= 0 {
		return []*types.Issue{}, nil
	}
	return r.store.TopIssues(ctx, limit)
}

// Stats derives aggregate counts from a ranked result. It is a pure function
// of the slice it is given: the UI's numbers always agree with the listing
// they accompany, because there is no second source of truth.
func Stats(issues []*types.Issue) types.Statistics {
	stats := types.Statistics{TotalIssues: len(issues)}
	if len(issues) == 0 {
		return stats
	}

	severitySum := 0
	for _, issue := range issues {
		severitySum += issue.Severity
		if issue.Severity >= 4 {
			stats.CriticalIssues++
		}
		if issue.Status == types.StatusOpen {
			stats.OpenIssues++
		}
	}
	stats.MeanSeverity = float64(severitySum) / float64(len(issues))

	return stats
}
