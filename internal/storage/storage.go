package storage

import (
	"context"

	"github.com/triagehq/triage/internal/storage/sqlite"
	"github.com/triagehq/triage/internal/types"
)

// Storage defines the interface for issue persistence backends.
//
// The pipeline relies on two guarantees from implementations:
//   - at most one issue exists per non-empty (source, source_id) pair
//   - writes to a single issue are serialized
type Storage interface {
	// CreateIssue persists a new issue, assigning its ID and timestamps.
	CreateIssue(ctx context.Context, issue *types.Issue) error

	// GetIssue retrieves an issue by ID. Returns (nil, nil) if not found.
	GetIssue(ctx context.Context, id string) (*types.Issue, error)

	// FindBySourceID retrieves the issue with the given (source, source_id)
	// identity. Returns (nil, nil) if not found.
	FindBySourceID(ctx context.Context, source types.Source, sourceID string) (*types.Issue, error)

	// FindIssues lists issues matching the filter, newest first.
	// All set filter fields are combined with AND.
	FindIssues(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error)

	// UpdateIssue applies a partial update to an issue. Field names follow
	// the database schema; unknown fields and out-of-range values are
	// rejected.
	UpdateIssue(ctx context.Context, id string, updates map[string]interface{}) error

	// DeleteIssue removes an issue. Returns false if no such issue exists.
	// Deletion is an administrative action; the pipeline never deletes.
	DeleteIssue(ctx context.Context, id string) (bool, error)

	// TopIssues returns up to limit issues ordered by frequency*severity
	// descending, then created_at descending, then ID ascending.
	// A limit <= 0 returns an empty slice.
	TopIssues(ctx context.Context, limit int) ([]*types.Issue, error)

	// GetStatistics returns aggregate counts over the issue set.
	GetStatistics(ctx context.Context) (*types.Statistics, error)

	// Config
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".triage/triage.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".triage/triage.db",
	}
}

// NewStorage creates a new SQLite storage backend. The store handle is owned
// by the caller and passed explicitly to the pipeline stages; there is no
// process-wide connection.
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.Path == "" {
		cfg.Path = ".triage/triage.db"
	}

	return sqlite.New(cfg.Path)
}
