// Package sweep orchestrates one ingestion pass: fetch observations from all
// configured sources, reconcile them into the backlog, and enrich the issues
// the pass created with tracker linkage.
package sweep

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/triagehq/triage/internal/linkage"
	"github.com/triagehq/triage/internal/reconcile"
	"github.com/triagehq/triage/internal/sources"
	"github.com/triagehq/triage/internal/storage"
	"github.com/triagehq/triage/internal/types"
)

// Report aggregates the per-stage reports of one sweep
type Report struct {
	SweepID       string            `json:"sweep_id"`
	Duration      time.Duration     `json:"duration"`
	Fetched       int               `json:"fetched"`
	FailedSources map[string]error  `json:"-"`
	Reconcile     *reconcile.Report `json:"reconcile"`
	Enrichment    *linkage.Report   `json:"enrichment,omitempty"`
}

// Runner wires the pipeline stages together. The store handle is injected;
// the runner owns nothing but the orchestration.
type Runner struct {
	store      storage.Storage
	adapters   []sources.Adapter
	reconciler *reconcile.Reconciler
	enricher   *linkage.Enricher
}

// New creates a sweep runner. The enricher is optional: with a nil enricher
// sweeps reconcile only and linkage stays unknown until a resync.
func New(store storage.Storage, adapters []sources.Adapter, enricher *linkage.Enricher) (*Runner, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	reconciler, err := reconcile.New(store)
	if err != nil {
		return nil, err
	}

	return &Runner{
		store:      store,
		adapters:   adapters,
		reconciler: reconciler,
		enricher:   enricher,
	}, nil
}

// Run executes one sweep: fetch, reconcile, then enrich the newly created
// issues. Adapter and per-item failures are isolated inside their stages;
// Run itself fails only on a canceled context or an unreachable store.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	sweepID := uuid.New().String()[:8]
	start := time.Now()
	log.Printf("[SWEEP %s] starting ingestion across %d sources", sweepID, len(r.adapters))

	fetch := sources.FetchAll(ctx, r.adapters)

	reconcileReport, err := r.reconciler.Reconcile(ctx, fetch.Observations)
	if err != nil {
		return nil, fmt.Errorf("sweep %s: %w", sweepID, err)
	}

	report := &Report{
		SweepID:       sweepID,
		Fetched:       len(fetch.Observations),
		FailedSources: fetch.Failed,
		Reconcile:     reconcileReport,
	}

	// Steady-state enrichment is incremental: only the issues this sweep
	// created go through the resolver. Existing issues keep their linkage
	// until a full resync.
	if r.enricher != nil && len(reconcileReport.Created) > 0 {
		enrichReport, err := r.enricher.EnrichBatch(ctx, reconcileReport.Created)
		if err != nil {
			return nil, fmt.Errorf("sweep %s: %w", sweepID, err)
		}
		report.Enrichment = enrichReport
	}

	report.Duration = time.Since(start)
	log.Printf("[SWEEP %s] done in %v: %d fetched, %d created, %d merged, %d rejected",
		sweepID, report.Duration.Round(time.Millisecond), report.Fetched,
		len(reconcileReport.Created), reconcileReport.MergedCount, reconcileReport.RejectedCount)

	return report, nil
}

// Resync re-enriches the entire issue set. Used for backfill after resolver
// changes, or when tracker state may have drifted.
func (r *Runner) Resync(ctx context.Context) (*linkage.Report, error) {
	if r.enricher == nil {
		return nil, fmt.Errorf("no enricher configured")
	}

	issues, err := r.store.FindIssues(ctx, types.IssueFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list issues for resync: %w", err)
	}

	log.Printf("[SWEEP] resyncing tracker linkage for %d issues", len(issues))
	return r.enricher.EnrichBatch(ctx, issues)
}
