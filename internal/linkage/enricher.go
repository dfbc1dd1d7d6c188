package linkage

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/triagehq/triage/internal/storage"
	"github.com/triagehq/triage/internal/types"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the default bound on in-flight resolver calls
const DefaultConcurrency = 4

// Report summarizes one enrichment pass
type Report struct {
	Linked   int `json:"linked"`
	Unlinked int `json:"unlinked"`
	Failed   int `json:"failed"`
}

// Enricher sweeps issues through the tracker-link resolver and persists the
// answers. Each issue is processed independently: resolver calls may run
// concurrently up to the configured bound, one failure never blocks the
// others, and a failed lookup leaves the issue's previous linkage untouched.
type Enricher struct {
	store       storage.Storage
	resolver    Resolver
	concurrency int64
}

// NewEnricher creates an enricher. A concurrency <= 0 uses DefaultConcurrency.
func NewEnricher(store storage.Storage, resolver Resolver, concurrency int) (*Enricher, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver cannot be nil")
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Enricher{
		store:       store,
		resolver:    resolver,
		concurrency: int64(concurrency),
	}, nil
}

// EnrichOne resolves and persists linkage for a single issue. On a resolver
// error nothing is persisted and the error is returned: the previous tracker
// state is retained rather than forced back to unknown.
func (e *Enricher) EnrichOne(ctx context.Context, issue *types.Issue) (*Result, error) {
	if issue == nil {
		return nil, fmt.Errorf("issue cannot be nil")
	}

	result, err := e.resolver.Resolve(ctx, issue.Title, issue.Description)
	if err != nil {
		return nil, fmt.Errorf("resolve %s failed: %w", issue.ID, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("resolver returned invalid result for %s: %w", issue.ID, err)
	}

	updates := map[string]interface{}{}
	if result.Exists {
		updates["tracker_state"] = string(types.TrackerLinked)
		updates["tracker_key"] = result.Key
		updates["tracker_status"] = result.Status
	} else {
		// Cleared, not retained: an unlinked answer invalidates any earlier key
		updates["tracker_state"] = string(types.TrackerUnlinked)
		updates["tracker_key"] = ""
		updates["tracker_status"] = ""
	}

	if err := e.store.UpdateIssue(ctx, issue.ID, updates); err != nil {
		return nil, fmt.Errorf("persist linkage for %s failed: %w", issue.ID, err)
	}

	return result, nil
}

// EnrichBatch applies EnrichOne to each issue with bounded concurrency.
// Errors are isolated per issue, logged, and counted in the report; the only
// error returned is a canceled context.
func (e *Enricher) EnrichBatch(ctx context.Context, issues []*types.Issue) (*Report, error) {
	report := &Report{}
	if len(issues) == 0 {
		return report, nil
	}

	sem := semaphore.NewWeighted(e.concurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, issue := range issues {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Deadline or cancellation: abandon the rest. In-flight issues
			// finish and commit independently, so nothing is half-written.
			wg.Wait()
			return report, fmt.Errorf("enrichment abandoned: %w", err)
		}

		wg.Add(1)
		go func(issue *types.Issue) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := e.EnrichOne(ctx, issue)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed++
				log.Printf("[LINKAGE] enrichment failed for %s: %v (previous state retained)", issue.ID, err)
			case result.Exists:
				report.Linked++
				log.Printf("[LINKAGE] %s linked to %s (%s)", issue.ID, result.Key, result.Status)
			default:
				report.Unlinked++
			}
		}(issue)
	}

	wg.Wait()
	return report, nil
}
