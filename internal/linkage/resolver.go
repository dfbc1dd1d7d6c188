// Package linkage maintains the association between backlog issues and
// records in an external issue tracker.
//
// The lookup itself is polymorphic: a Resolver may be a static table, an
// external tracker API search, or model inference. The enricher is agnostic
// to which one is wired in.
package linkage

import (
	"context"
	"fmt"
)

// Result is a resolver's answer for one issue
type Result struct {
	// Exists reports whether a matching tracker record was found
	Exists bool `json:"exists"`

	// Key is the tracker-side record key (e.g. "PROJ-123"), set only when
	// Exists is true
	Key string `json:"key,omitempty"`

	// Status is the tracker-side workflow status, set only when Exists is true
	Status string `json:"status,omitempty"`
}

// Validate checks if the result has valid values
func (r *Result) Validate() error {
	if r.Exists && r.Key == "" {
		return fmt.Errorf("key must be set when exists is true")
	}
	if !r.Exists && (r.Key != "" || r.Status != "") {
		return fmt.Errorf("key and status must be empty when exists is false")
	}
	return nil
}

// Resolver decides whether an issue already exists in the external tracker.
//
// Implementations may be backed by a heuristic, an external API lookup, or
// model inference. A resolver error means "could not determine", not "does
// not exist": callers keep the issue's previous linkage state on error.
type Resolver interface {
	Resolve(ctx context.Context, title, description string) (*Result, error)
}
