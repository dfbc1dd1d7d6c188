package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/triagehq/triage/internal/types"
)

// issuePrefix is the prefix for store-assigned issue IDs (e.g. "tr-42")
const issuePrefix = "tr"

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New creates a new SQLite storage backend
func New(path string) (*SQLiteStorage, error) {
	// Ensure directory exists (not applicable to in-memory databases)
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// issueColumns is the canonical SELECT column list for issue rows
const issueColumns = `id, title, description, source, source_id, severity, frequency,
       status, issue_type, tags, tracker_state, tracker_key, tracker_status,
       created_at, updated_at`

// CreateIssue creates a new issue, assigning its ID and timestamps
func (s *SQLiteStorage) CreateIssue(ctx context.Context, issue *types.Issue) error {
	// Apply creation defaults before validating
	if issue.Status == "" {
		issue.Status = types.StatusOpen
	}
	if issue.IssueType == "" {
		issue.IssueType = types.TypeBug
	}
	if issue.TrackerState == "" {
		issue.TrackerState = types.TrackerUnknown
	}

	if err := issue.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	issue.CreatedAt = now
	issue.UpdatedAt = now

	tagsJSON, err := json.Marshal(issue.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	// Acquire a dedicated connection so BEGIN IMMEDIATE and COMMIT run on the
	// same connection; database/sql's pool would otherwise split them.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	// IMMEDIATE acquires the write lock up front, serializing ID generation
	// across concurrent writers.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("failed to begin immediate transaction: %w", err)
	}

	// Use context.Background() for ROLLBACK so cleanup happens even if ctx
	// is canceled mid-transaction.
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	// Generate ID if not set (inside the transaction to prevent races)
	if issue.ID == "" {
		var nextID int
		err = conn.QueryRowContext(ctx, `
			INSERT INTO issue_counters (prefix, last_id)
			VALUES (?, 1)
			ON CONFLICT(prefix) DO UPDATE SET last_id = last_id + 1
			RETURNING last_id
		`, issuePrefix).Scan(&nextID)
		if err != nil {
			return fmt.Errorf("failed to generate next ID: %w", err)
		}

		issue.ID = fmt.Sprintf("%s-%d", issuePrefix, nextID)
	}

	var sourceID interface{}
	if issue.SourceID != "" {
		sourceID = issue.SourceID
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO issues (
			id, title, description, source, source_id, severity, frequency,
			status, issue_type, tags, tracker_state, tracker_key, tracker_status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		issue.ID, issue.Title, issue.Description, issue.Source, sourceID,
		issue.Severity, issue.Frequency, issue.Status, issue.IssueType,
		string(tagsJSON), issue.TrackerState,
		nullableString(issue.TrackerKey), nullableString(issue.TrackerStatus),
		issue.CreatedAt, issue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert issue: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}

// GetIssue retrieves an issue by ID
func (s *SQLiteStorage) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE id = ?
	`, id)

	issue, err := scanIssue(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return issue, nil
}

// FindBySourceID retrieves the issue with the given (source, source_id)
// identity. The unique identity index guarantees at most one row.
func (s *SQLiteStorage) FindBySourceID(ctx context.Context, source types.Source, sourceID string) (*types.Issue, error) {
	if sourceID == "" {
		return nil, fmt.Errorf("source_id cannot be empty")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE source = ? AND source_id = ?
	`, source, sourceID)

	issue, err := scanIssue(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find issue by source_id: %w", err)
	}
	return issue, nil
}

// FindIssues lists issues matching the filter, newest first
func (s *SQLiteStorage) FindIssues(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.Source != nil {
		whereClauses = append(whereClauses, "source = ?")
		args = append(args, *filter.Source)
	}
	if filter.Status != nil {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Severity != nil {
		whereClauses = append(whereClauses, "severity = ?")
		args = append(args, *filter.Severity)
	}
	if filter.IssueType != nil {
		whereClauses = append(whereClauses, "issue_type = ?")
		args = append(args, *filter.IssueType)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	// SQLite requires a LIMIT clause before OFFSET; -1 means unlimited
	limitSQL := ""
	if filter.Limit > 0 {
		limitSQL = fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		limitSQL = " LIMIT -1"
	}
	if filter.Offset > 0 {
		limitSQL += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	querySQL := fmt.Sprintf(`
		SELECT `+issueColumns+`
		FROM issues
		%s
		ORDER BY created_at DESC, id DESC
		%s
	`, whereSQL, limitSQL)

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find issues: %w", err)
	}
	defer rows.Close()

	return scanIssues(rows)
}

// TopIssues returns the ranked backlog: up to limit issues ordered by
// frequency*severity descending, most recently created first on ties, with
// ID as a final deterministic tie-break.
func (s *SQLiteStorage) TopIssues(ctx context.Context, limit int) ([]*types.Issue, error) {
	if limit <= 0 {
		return []*types.Issue{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		ORDER BY (frequency * severity) DESC, created_at DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top issues: %w", err)
	}
	defer rows.Close()

	return scanIssues(rows)
}

// Allowed fields for update to prevent SQL injection
var allowedUpdateFields = map[string]bool{
	"title":          true,
	"description":    true,
	"severity":       true,
	"frequency":      true,
	"status":         true,
	"issue_type":     true,
	"tags":           true,
	"tracker_state":  true,
	"tracker_key":    true,
	"tracker_status": true,
}

// UpdateIssue applies a partial update to an issue. updated_at is always
// touched; created_at and identity fields are immutable.
func (s *SQLiteStorage) UpdateIssue(ctx context.Context, id string, updates map[string]interface{}) error {
	existing, err := s.GetIssue(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("issue %s not found", id)
	}

	setClauses := []string{"updated_at = ?"}
	args := []interface{}{time.Now()}

	for key, value := range updates {
		// Prevent SQL injection by validating field names
		if !allowedUpdateFields[key] {
			return fmt.Errorf("invalid field for update: %s", key)
		}

		switch key {
		case "severity":
			if severity, ok := value.(int); ok {
				if severity < 1 || severity > 5 {
					return fmt.Errorf("severity must be between 1 and 5 (got %d)", severity)
				}
			}
		case "frequency":
			if frequency, ok := value.(int); ok {
				// Frequency is non-decreasing across reconciliation runs
				if frequency < existing.Frequency {
					return fmt.Errorf("frequency cannot decrease (current %d, got %d)", existing.Frequency, frequency)
				}
			}
		case "status":
			if status, ok := value.(string); ok {
				if !types.Status(status).IsValid() {
					return fmt.Errorf("invalid status: %s", status)
				}
			}
		case "issue_type":
			if issueType, ok := value.(string); ok {
				if !types.IssueType(issueType).IsValid() {
					return fmt.Errorf("invalid issue type: %s", issueType)
				}
			}
		case "tracker_state":
			if state, ok := value.(string); ok {
				if !types.TrackerState(state).IsValid() {
					return fmt.Errorf("invalid tracker state: %s", state)
				}
			}
		case "title":
			if title, ok := value.(string); ok {
				if len(title) == 0 || len(title) > 500 {
					return fmt.Errorf("title must be 1-500 characters")
				}
			}
		case "tags":
			if tags, ok := value.([]string); ok {
				tagsJSON, err := json.Marshal(tags)
				if err != nil {
					return fmt.Errorf("failed to marshal tags: %w", err)
				}
				value = string(tagsJSON)
			}
		}

		setClauses = append(setClauses, fmt.Sprintf("%s = ?", key))
		args = append(args, value)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE issues SET %s WHERE id = ?", strings.Join(setClauses, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}

	return nil
}

// DeleteIssue removes an issue by ID
func (s *SQLiteStorage) DeleteIssue(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete issue: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// GetStatistics returns aggregate counts over the issue set
func (s *SQLiteStorage) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	var stats types.Statistics
	var meanSeverity sql.NullFloat64

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'open' THEN 1 END),
			COUNT(CASE WHEN severity >= 4 THEN 1 END),
			AVG(severity)
		FROM issues
	`).Scan(&stats.TotalIssues, &stats.OpenIssues, &stats.CriticalIssues, &meanSeverity)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}

	if meanSeverity.Valid {
		stats.MeanSeverity = meanSeverity.Float64
	}

	return &stats, nil
}

// GetConfig gets a configuration value from the config table
func (s *SQLiteStorage) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetConfig sets a configuration value in the config table
func (s *SQLiteStorage) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIssue(row rowScanner) (*types.Issue, error) {
	var issue types.Issue
	var sourceID sql.NullString
	var tagsJSON string
	var trackerKey sql.NullString
	var trackerStatus sql.NullString

	err := row.Scan(
		&issue.ID, &issue.Title, &issue.Description, &issue.Source, &sourceID,
		&issue.Severity, &issue.Frequency, &issue.Status, &issue.IssueType,
		&tagsJSON, &issue.TrackerState, &trackerKey, &trackerStatus,
		&issue.CreatedAt, &issue.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sourceID.Valid {
		issue.SourceID = sourceID.String
	}
	if trackerKey.Valid {
		issue.TrackerKey = trackerKey.String
	}
	if trackerStatus.Valid {
		issue.TrackerStatus = trackerStatus.String
	}
	if err := json.Unmarshal([]byte(tagsJSON), &issue.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}

	return &issue, nil
}

func scanIssues(rows *sql.Rows) ([]*types.Issue, error) {
	var issues []*types.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate issues: %w", err)
	}
	return issues, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
