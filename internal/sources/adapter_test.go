package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triagehq/triage/internal/types"
)

// failingAdapter always errors
type failingAdapter struct{ name string }

func (a *failingAdapter) Name() string         { return a.name }
func (a *failingAdapter) Source() types.Source { return types.SourceOther }
func (a *failingAdapter) Fetch(ctx context.Context) ([]types.RawObservation, error) {
	return nil, fmt.Errorf("auth expired")
}

func TestFetchAllIsolatesAdapterFailures(t *testing.T) {
	adapters := []Adapter{
		NewStaticAdapter("chat", types.SourceChat, []types.RawObservation{
			{SourceID: "a", Title: "One"},
			{SourceID: "b", Title: "Two"},
		}),
		&failingAdapter{name: "tickets"},
		NewStaticAdapter("docs", types.SourceDocument, []types.RawObservation{
			{SourceID: "c", Title: "Three"},
		}),
	}

	report := FetchAll(context.Background(), adapters)

	assert.Len(t, report.Observations, 3, "healthy adapters are unaffected by the failing one")
	require.Len(t, report.Failed, 1)
	assert.Error(t, report.Failed["tickets"])
}

func TestStaticAdapterStampsSource(t *testing.T) {
	adapter := NewStaticAdapter("chat", types.SourceChat, []types.RawObservation{
		{Source: types.SourceTicket, SourceID: "x", Title: "Mislabeled"},
	})

	observations, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, types.SourceChat, observations[0].Source)
}

func TestHTTPAdapterFetchArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[
			{"source_id": "C1", "title": "Crash", "severity": 4, "frequency": 2},
			{"source_id": "C2", "title": "Hang"}
		]`)
	}))
	defer server.Close()

	adapter, err := NewHTTPAdapter(HTTPAdapterConfig{
		Name:     "support-chat",
		Source:   types.SourceChat,
		Endpoint: server.URL,
		Token:    "sekrit",
	})
	require.NoError(t, err)

	observations, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, "Crash", observations[0].Title)
	assert.Equal(t, 4, observations[0].Severity)
	assert.Equal(t, types.SourceChat, observations[0].Source)
	assert.Equal(t, types.SourceChat, observations[1].Source)
}

func TestHTTPAdapterFetchEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"observations": [{"source_id": "T1", "title": "Timeout"}]}`)
	}))
	defer server.Close()

	adapter, err := NewHTTPAdapter(HTTPAdapterConfig{
		Name:     "tracker",
		Source:   types.SourceTracker,
		Endpoint: server.URL,
	})
	require.NoError(t, err)

	observations, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "Timeout", observations[0].Title)
}

func TestHTTPAdapterFetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer server.Close()

	adapter, err := NewHTTPAdapter(HTTPAdapterConfig{
		Name:     "chat",
		Source:   types.SourceChat,
		Endpoint: server.URL,
	})
	require.NoError(t, err)

	_, err = adapter.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestHTTPAdapterConfigValidate(t *testing.T) {
	valid := HTTPAdapterConfig{Name: "chat", Source: types.SourceChat, Endpoint: "http://example.com/feed"}
	assert.NoError(t, valid.Validate())

	for _, mutate := range []func(*HTTPAdapterConfig){
		func(c *HTTPAdapterConfig) { c.Name = "" },
		func(c *HTTPAdapterConfig) { c.Source = "smoke-signal" },
		func(c *HTTPAdapterConfig) { c.Endpoint = "" },
	} {
		cfg := valid
		mutate(&cfg)
		assert.Error(t, cfg.Validate())
	}
}

func TestSeedAdapters(t *testing.T) {
	report := FetchAll(context.Background(), SeedAdapters())
	assert.Empty(t, report.Failed)
	assert.NotEmpty(t, report.Observations)

	for _, obs := range report.Observations {
		obs.Normalize()
		assert.NoError(t, obs.Validate(), "seed observation %q must be valid", obs.Title)
	}
}
