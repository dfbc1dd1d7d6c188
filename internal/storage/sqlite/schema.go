package sqlite

const schema = `
-- Issues table
CREATE TABLE IF NOT EXISTS issues (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL CHECK(length(title) <= 500),
    description TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL CHECK(source IN ('chat', 'ticket', 'tracker', 'document', 'other')),
    source_id TEXT,
    severity INTEGER NOT NULL DEFAULT 1 CHECK(severity >= 1 AND severity <= 5),
    frequency INTEGER NOT NULL DEFAULT 1 CHECK(frequency >= 1),
    status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open', 'closed')),
    issue_type TEXT NOT NULL DEFAULT 'bug' CHECK(issue_type IN ('bug', 'feature')),
    tags TEXT NOT NULL DEFAULT '[]',
    tracker_state TEXT NOT NULL DEFAULT 'unknown' CHECK(tracker_state IN ('unknown', 'linked', 'unlinked')),
    tracker_key TEXT,
    tracker_status TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- At most one issue per (source, source_id) identity. NULL source_id rows are
-- exempt: observations without a source-local ID always create new issues.
CREATE UNIQUE INDEX IF NOT EXISTS idx_issues_identity
    ON issues(source, source_id) WHERE source_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status);
CREATE INDEX IF NOT EXISTS idx_issues_severity ON issues(severity);
CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at);
CREATE INDEX IF NOT EXISTS idx_issues_tracker_state ON issues(tracker_state);

-- Atomic ID counter
CREATE TABLE IF NOT EXISTS issue_counters (
    prefix TEXT PRIMARY KEY,
    last_id INTEGER NOT NULL DEFAULT 0
);

-- Key/value configuration
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
