package sources

import (
	"context"

	"github.com/triagehq/triage/internal/types"
)

// StaticAdapter serves a fixed observation list. Used for seeding fresh
// databases and in tests.
type StaticAdapter struct {
	name         string
	source       types.Source
	observations []types.RawObservation
}

// Compile-time check that StaticAdapter implements Adapter
var _ Adapter = (*StaticAdapter)(nil)

// NewStaticAdapter creates an adapter that always returns the given
// observations
func NewStaticAdapter(name string, source types.Source, observations []types.RawObservation) *StaticAdapter {
	return &StaticAdapter{name: name, source: source, observations: observations}
}

// Name identifies the adapter instance
func (a *StaticAdapter) Name() string { return a.name }

// Source is the source kind this adapter's observations carry
func (a *StaticAdapter) Source() types.Source { return a.source }

// Fetch returns a copy of the configured observations
func (a *StaticAdapter) Fetch(ctx context.Context) ([]types.RawObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	observations := make([]types.RawObservation, len(a.observations))
	copy(observations, a.observations)
	for i := range observations {
		observations[i].Source = a.source
	}
	return observations, nil
}

// SeedAdapters returns the demo sources used to populate a fresh database
func SeedAdapters() []Adapter {
	return []Adapter{
		NewStaticAdapter("demo-chat", types.SourceChat, []types.RawObservation{
			{SourceID: "C1234567890", Title: "App crashes on iOS 17", Description: "Multiple users reporting app crashes on iOS 17 devices", Severity: 4, Frequency: 15, Tags: []string{"ios", "crash", "urgent"}},
			{SourceID: "C1234567891", Title: "Login button not working", Description: "Users cannot log in through the main login button", Severity: 3, Frequency: 8, Tags: []string{"login", "authentication"}},
		}),
		NewStaticAdapter("demo-tickets", types.SourceTicket, []types.RawObservation{
			{SourceID: "ticket_12345", Title: "Payment processing errors", Description: "Customers experiencing payment failures during checkout", Severity: 5, Frequency: 25, Tags: []string{"payment", "checkout", "critical"}},
		}),
		NewStaticAdapter("demo-tracker", types.SourceTracker, []types.RawObservation{
			{SourceID: "PROJ-123", Title: "Database connection timeout", Description: "Database queries timing out under high load", Severity: 4, Frequency: 12, Tags: []string{"database", "performance", "backend"}},
		}),
		NewStaticAdapter("demo-docs", types.SourceDocument, []types.RawObservation{
			{SourceID: "doc_abc123", Title: "User interface confusion", Description: "Feedback about confusing navigation and unclear UI elements", Severity: 2, Frequency: 5, Tags: []string{"ui", "ux", "feedback"}},
			{SourceID: "doc_abc124", Title: "Dark mode support requested", Description: "Recurring request for a dark color scheme", Severity: 2, Frequency: 9, IssueType: types.TypeFeature, Tags: []string{"ui", "feature-request"}},
		}),
	}
}
