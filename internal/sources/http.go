package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/triagehq/triage/internal/types"
	"golang.org/x/time/rate"
)

// HTTPAdapterConfig configures a JSON-feed adapter
type HTTPAdapterConfig struct {
	// Name identifies this adapter instance, e.g. "support-chat"
	Name string `yaml:"name"`

	// Source is the source kind stamped on every observation
	Source types.Source `yaml:"source"`

	// Endpoint is the feed URL. It must return a JSON array of observations
	// (or an object with an "observations" array).
	Endpoint string `yaml:"endpoint"`

	// Token, when set, is sent as a bearer credential
	Token string `yaml:"token"`

	// RequestsPerSecond caps outbound calls. Zero means the default (2).
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Validate checks if the config has the required fields
func (c *HTTPAdapterConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !c.Source.IsValid() {
		return fmt.Errorf("invalid source: %s", c.Source)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	return nil
}

// HTTPAdapter polls a JSON observation feed over HTTP. Connector services in
// front of chat, support-ticket, tracker and document systems expose such
// feeds; the adapter is agnostic to what stands behind the endpoint.
type HTTPAdapter struct {
	config  HTTPAdapterConfig
	client  *http.Client
	limiter *rate.Limiter
}

// Compile-time check that HTTPAdapter implements Adapter
var _ Adapter = (*HTTPAdapter)(nil)

// NewHTTPAdapter creates a JSON-feed adapter
func NewHTTPAdapter(config HTTPAdapterConfig) (*HTTPAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid adapter config: %w", err)
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &HTTPAdapter{
		config:  config,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Name identifies the adapter instance
func (a *HTTPAdapter) Name() string {
	return a.config.Name
}

// Source is the source kind this adapter's observations carry
func (a *HTTPAdapter) Source() types.Source {
	return a.config.Source
}

// feedEnvelope covers feeds that wrap the array in an object
type feedEnvelope struct {
	Observations []types.RawObservation `json:"observations"`
}

// Fetch retrieves the feed and stamps each observation with the adapter's
// source kind
func (a *HTTPAdapter) Fetch(ctx context.Context) ([]types.RawObservation, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.Token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	observations, err := decodeFeed(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	// The adapter owns the source kind; feeds cannot spoof another source
	for i := range observations {
		observations[i].Source = a.config.Source
	}

	return observations, nil
}

func decodeFeed(payload []byte) ([]types.RawObservation, error) {
	var observations []types.RawObservation
	if err := json.Unmarshal(payload, &observations); err == nil {
		return observations, nil
	}

	var envelope feedEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, err
	}
	return envelope.Observations, nil
}
