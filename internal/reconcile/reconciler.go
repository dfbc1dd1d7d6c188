// Package reconcile merges raw issue observations into the backlog.
//
// Each observation either restates a known issue, identified by its
// (source, source_id) pair, or introduces a new one. Restatements accumulate
// frequency; first-seen values win for everything else. Reconciliation is
// idempotent per identity as long as observation frequencies are deltas, so
// re-running a sweep is safe.
package reconcile

import (
	"context"
	"fmt"
	"log"

	"github.com/triagehq/triage/internal/storage"
	"github.com/triagehq/triage/internal/types"
)

// Action describes what reconciliation did with a single observation
type Action string

const (
	ActionCreated  Action = "created"
	ActionMerged   Action = "merged"
	ActionRejected Action = "rejected"
)

// ItemResult is the outcome for one observation in a batch. Failures are
// recorded here instead of aborting the batch, so callers and tests can
// assert on partial-failure counts.
type ItemResult struct {
	Index   int    `json:"index"`
	Action  Action `json:"action"`
	IssueID string `json:"issue_id,omitempty"`
	Err     error  `json:"-"`
}

// Report summarizes one reconciliation batch
type Report struct {
	// Created holds the issues newly created by this batch, in input order.
	// Merged issues are not returned; callers that need them can re-query.
	Created []*types.Issue `json:"created"`

	// Results has one entry per observation, in input order.
	Results []ItemResult `json:"results"`

	MergedCount   int `json:"merged_count"`
	RejectedCount int `json:"rejected_count"`
}

// Reconciler matches observations against existing issues and merges or
// inserts accordingly
type Reconciler struct {
	store storage.Storage
}

// New creates a reconciler backed by the given store
func New(store storage.Storage) (*Reconciler, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	return &Reconciler{store: store}, nil
}

// Reconcile processes observations sequentially, in input order. Each
// observation commits independently: a malformed or failing item is recorded
// in the report and the batch continues. Only total store unavailability
// fails the whole batch, and then only for the items not yet processed -
// prior items stay committed (at-least-once semantics).
func (r *Reconciler) Reconcile(ctx context.Context, observations []types.RawObservation) (*Report, error) {
	report := &Report{
		Results: make([]ItemResult, 0, len(observations)),
	}

	for i, obs := range observations {
		if err := ctx.Err(); err != nil {
			// Caller deadline: abandon remaining items. Everything processed
			// so far is already committed.
			return report, fmt.Errorf("reconciliation abandoned after %d of %d observations: %w", i, len(observations), err)
		}

		result, created := r.reconcileOne(ctx, i, obs)
		report.Results = append(report.Results, result)

		switch result.Action {
		case ActionCreated:
			report.Created = append(report.Created, created)
		case ActionMerged:
			report.MergedCount++
		case ActionRejected:
			report.RejectedCount++
			log.Printf("[RECONCILE] observation %d rejected: %v", i, result.Err)
		}
	}

	return report, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, index int, obs types.RawObservation) (ItemResult, *types.Issue) {
	obs.Normalize()
	if err := obs.Validate(); err != nil {
		return ItemResult{Index: index, Action: ActionRejected, Err: err}, nil
	}

	// No source-local ID means the observation is not reconcilable and
	// always becomes a new issue.
	if obs.SourceID != "" {
		existing, err := r.store.FindBySourceID(ctx, obs.Source, obs.SourceID)
		if err != nil {
			return ItemResult{Index: index, Action: ActionRejected, Err: fmt.Errorf("lookup failed: %w", err)}, nil
		}
		if existing != nil {
			return r.merge(ctx, index, obs, existing), nil
		}
	}

	return r.create(ctx, index, obs)
}

// merge folds a repeat observation into its existing issue. Only frequency
// and updated_at change: severity, title and tags keep their first-seen
// values, since severity reflects initial triage rather than repetition.
func (r *Reconciler) merge(ctx context.Context, index int, obs types.RawObservation, existing *types.Issue) ItemResult {
	frequency := existing.Frequency + obs.Frequency
	if obs.AbsoluteFrequency != nil {
		// Cumulative-reporting source: replace instead of add, but never
		// go below the stored value.
		frequency = *obs.AbsoluteFrequency
		if frequency < existing.Frequency {
			frequency = existing.Frequency
		}
	}

	err := r.store.UpdateIssue(ctx, existing.ID, map[string]interface{}{
		"frequency": frequency,
	})
	if err != nil {
		return ItemResult{Index: index, Action: ActionRejected, Err: fmt.Errorf("merge into %s failed: %w", existing.ID, err)}
	}

	log.Printf("[RECONCILE] merged observation into %s (frequency %d -> %d)", existing.ID, existing.Frequency, frequency)
	return ItemResult{Index: index, Action: ActionMerged, IssueID: existing.ID}
}

func (r *Reconciler) create(ctx context.Context, index int, obs types.RawObservation) (ItemResult, *types.Issue) {
	frequency := obs.Frequency
	if obs.AbsoluteFrequency != nil {
		frequency = *obs.AbsoluteFrequency
	}

	issue := &types.Issue{
		Title:        obs.Title,
		Description:  obs.Description,
		Source:       obs.Source,
		SourceID:     obs.SourceID,
		Severity:     obs.Severity,
		Frequency:    frequency,
		Status:       types.StatusOpen,
		IssueType:    obs.IssueType,
		Tags:         obs.Tags,
		TrackerState: types.TrackerUnknown,
	}

	if err := r.store.CreateIssue(ctx, issue); err != nil {
		return ItemResult{Index: index, Action: ActionRejected, Err: fmt.Errorf("create failed: %w", err)}, nil
	}

	log.Printf("[RECONCILE] created %s from %s observation %q", issue.ID, obs.Source, obs.Title)
	return ItemResult{Index: index, Action: ActionCreated, IssueID: issue.ID}, issue
}
