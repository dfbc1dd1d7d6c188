// Package sources defines the boundary to the systems issue observations
// come from and ships the adapters that poll them.
package sources

import (
	"context"
	"log"

	"github.com/triagehq/triage/internal/types"
)

// Adapter produces raw observations from one external source
type Adapter interface {
	// Name identifies the adapter instance in logs and reports
	Name() string

	// Source is the source kind this adapter's observations carry
	Source() types.Source

	// Fetch returns the observations collected since the adapter's last
	// successful run. Observation frequencies are deltas, not cumulative
	// totals, unless the adapter sets AbsoluteFrequency.
	Fetch(ctx context.Context) ([]types.RawObservation, error)
}

// FetchReport records the outcome of one multi-adapter fetch
type FetchReport struct {
	// Observations from all adapters that succeeded, in adapter order
	Observations []types.RawObservation

	// Failed maps adapter name to its fetch error. A failing adapter
	// contributes zero observations; the others are unaffected.
	Failed map[string]error
}

// FetchAll runs every adapter and collects the results. Adapter failures are
// isolated: a source that is down (network, auth) is logged and recorded in
// the report without blocking the rest of the sweep.
func FetchAll(ctx context.Context, adapters []Adapter) *FetchReport {
	report := &FetchReport{Failed: make(map[string]error)}

	for _, adapter := range adapters {
		observations, err := adapter.Fetch(ctx)
		if err != nil {
			report.Failed[adapter.Name()] = err
			log.Printf("[SOURCES] fetch from %s failed: %v", adapter.Name(), err)
			continue
		}

		log.Printf("[SOURCES] fetched %d observations from %s", len(observations), adapter.Name())
		report.Observations = append(report.Observations, observations...)
	}

	return report
}
