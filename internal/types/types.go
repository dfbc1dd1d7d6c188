package types

import (
	"fmt"
	"time"
)

// Issue represents a tracked bug or feature request aggregated from one or
// more external sources. When SourceID is set, the (Source, SourceID) pair is
// unique across the store and repeat observations merge into the same issue.
type Issue struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Source      Source    `json:"source"`
	SourceID    string    `json:"source_id,omitempty"`
	Severity    int       `json:"severity"`
	Frequency   int       `json:"frequency"`
	Status      Status    `json:"status"`
	IssueType   IssueType `json:"issue_type"`
	Tags        []string  `json:"tags,omitempty"`

	// External tracker linkage, maintained by the linkage enricher.
	TrackerState  TrackerState `json:"tracker_state"`
	TrackerKey    string       `json:"tracker_key,omitempty"`
	TrackerStatus string       `json:"tracker_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the issue has valid field values
func (i *Issue) Validate() error {
	if len(i.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(i.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(i.Title))
	}
	if i.Severity < 1 || i.Severity > 5 {
		return fmt.Errorf("severity must be between 1 and 5 (got %d)", i.Severity)
	}
	if i.Frequency < 1 {
		return fmt.Errorf("frequency must be at least 1 (got %d)", i.Frequency)
	}
	if !i.Source.IsValid() {
		return fmt.Errorf("invalid source: %s", i.Source)
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	if !i.IssueType.IsValid() {
		return fmt.Errorf("invalid issue type: %s", i.IssueType)
	}
	if !i.TrackerState.IsValid() {
		return fmt.Errorf("invalid tracker state: %s", i.TrackerState)
	}
	return nil
}

// Score is the priority score used for backlog ranking.
func (i *Issue) Score() int {
	return i.Frequency * i.Severity
}

// Source identifies the kind of external system an observation came from
type Source string

const (
	SourceChat     Source = "chat"
	SourceTicket   Source = "ticket"
	SourceTracker  Source = "tracker"
	SourceDocument Source = "document"
	SourceOther    Source = "other"
)

// IsValid checks if the source value is valid
func (s Source) IsValid() bool {
	switch s {
	case SourceChat, SourceTicket, SourceTracker, SourceDocument, SourceOther:
		return true
	}
	return false
}

// Status represents the current state of an issue
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusClosed:
		return true
	}
	return false
}

// IssueType categorizes the kind of report
type IssueType string

const (
	TypeBug     IssueType = "bug"
	TypeFeature IssueType = "feature"
)

// IsValid checks if the issue type value is valid
func (t IssueType) IsValid() bool {
	switch t {
	case TypeBug, TypeFeature:
		return true
	}
	return false
}

// TrackerState is the tri-state answer to "does this issue exist in the
// external tracker?". It starts unknown and flips freely on every enrichment
// pass: trackers get closed and reopened, so the state is not monotonic.
type TrackerState string

const (
	TrackerUnknown  TrackerState = "unknown"
	TrackerLinked   TrackerState = "linked"
	TrackerUnlinked TrackerState = "unlinked"
)

// IsValid checks if the tracker state value is valid
func (t TrackerState) IsValid() bool {
	switch t {
	case TrackerUnknown, TrackerLinked, TrackerUnlinked:
		return true
	}
	return false
}

// RawObservation is one raw signal about an issue from a source, prior to
// reconciliation. It is consumed and discarded; only the tuple
// (Source, SourceID) carries identity, and an empty SourceID means the
// observation is not reconcilable and always creates a new issue.
type RawObservation struct {
	Source      Source    `json:"source"`
	SourceID    string    `json:"source_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Severity    int       `json:"severity,omitempty"`
	Frequency   int       `json:"frequency,omitempty"`
	IssueType   IssueType `json:"issue_type,omitempty"`
	Tags        []string  `json:"tags,omitempty"`

	// AbsoluteFrequency, when set, is a cumulative observation count reported
	// by the source. The merge replaces the stored frequency with this value
	// instead of adding Frequency, but never lowers it. Sources that report
	// incremental deltas leave this nil and use Frequency.
	AbsoluteFrequency *int `json:"absolute_frequency,omitempty"`
}

// Normalize applies the documented defaults: severity 1, frequency 1,
// issue type bug. Call before Validate.
func (o *RawObservation) Normalize() {
	if o.Severity == 0 {
		o.Severity = 1
	}
	if o.Frequency == 0 {
		o.Frequency = 1
	}
	if o.IssueType == "" {
		o.IssueType = TypeBug
	}
}

// Validate checks if the observation has valid field values
func (o *RawObservation) Validate() error {
	if len(o.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if !o.Source.IsValid() {
		return fmt.Errorf("invalid source: %s", o.Source)
	}
	if o.Severity < 1 || o.Severity > 5 {
		return fmt.Errorf("severity must be between 1 and 5 (got %d)", o.Severity)
	}
	if o.Frequency < 1 {
		return fmt.Errorf("frequency must be at least 1 (got %d)", o.Frequency)
	}
	if !o.IssueType.IsValid() {
		return fmt.Errorf("invalid issue type: %s", o.IssueType)
	}
	if o.AbsoluteFrequency != nil && *o.AbsoluteFrequency < 1 {
		return fmt.Errorf("absolute_frequency must be at least 1 (got %d)", *o.AbsoluteFrequency)
	}
	return nil
}

// IssueFilter defines criteria for listing issues. All set fields are
// combined with AND.
type IssueFilter struct {
	Source    *Source
	Status    *Status
	Severity  *int
	IssueType *IssueType
	Limit     int
	Offset    int
}

// Statistics provides aggregate counts over the issue set
type Statistics struct {
	TotalIssues    int     `json:"total_issues"`
	OpenIssues     int     `json:"open_issues"`
	CriticalIssues int     `json:"critical_issues"` // severity >= 4
	MeanSeverity   float64 `json:"mean_severity"`
}
