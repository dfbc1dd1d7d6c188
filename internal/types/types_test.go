package types

import (
	"testing"
	"time"
)

func validIssue() *Issue {
	return &Issue{
		ID:           "tr-1",
		Title:        "Crash on startup",
		Source:       SourceChat,
		SourceID:     "C123",
		Severity:     3,
		Frequency:    1,
		Status:       StatusOpen,
		IssueType:    TypeBug,
		TrackerState: TrackerUnknown,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestIssueValidate(t *testing.T) {
	issue := validIssue()
	if err := issue.Validate(); err != nil {
		t.Errorf("valid issue failed validation: %v", err)
	}
}

func TestIssueValidateSeverityBounds(t *testing.T) {
	tests := []struct {
		severity int
		wantErr  bool
	}{
		{0, true},
		{1, false},
		{3, false},
		{5, false},
		{6, true},
		{-1, true},
	}

	for _, tt := range tests {
		issue := validIssue()
		issue.Severity = tt.severity
		err := issue.Validate()
		if tt.wantErr && err == nil {
			t.Errorf("severity %d: expected error, got nil", tt.severity)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("severity %d: unexpected error: %v", tt.severity, err)
		}
	}
}

func TestIssueValidateRejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Issue)
	}{
		{"empty title", func(i *Issue) { i.Title = "" }},
		{"zero frequency", func(i *Issue) { i.Frequency = 0 }},
		{"bad source", func(i *Issue) { i.Source = "email" }},
		{"bad status", func(i *Issue) { i.Status = "in_progress" }},
		{"bad type", func(i *Issue) { i.IssueType = "task" }},
		{"bad tracker state", func(i *Issue) { i.TrackerState = "maybe" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := validIssue()
			tt.mutate(issue)
			if err := issue.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestIssueScore(t *testing.T) {
	issue := validIssue()
	issue.Frequency = 10
	issue.Severity = 4
	if got := issue.Score(); got != 40 {
		t.Errorf("Score() = %d, want 40", got)
	}
}

func TestRawObservationNormalize(t *testing.T) {
	obs := RawObservation{Source: SourceChat, Title: "Login broken"}
	obs.Normalize()

	if obs.Severity != 1 {
		t.Errorf("default severity = %d, want 1", obs.Severity)
	}
	if obs.Frequency != 1 {
		t.Errorf("default frequency = %d, want 1", obs.Frequency)
	}
	if obs.IssueType != TypeBug {
		t.Errorf("default issue type = %s, want bug", obs.IssueType)
	}
}

func TestRawObservationNormalizeKeepsExplicitValues(t *testing.T) {
	obs := RawObservation{
		Source:    SourceTicket,
		Title:     "Payment failures",
		Severity:  5,
		Frequency: 25,
		IssueType: TypeFeature,
	}
	obs.Normalize()

	if obs.Severity != 5 || obs.Frequency != 25 || obs.IssueType != TypeFeature {
		t.Errorf("Normalize changed explicit values: %+v", obs)
	}
}

func TestRawObservationValidate(t *testing.T) {
	obs := RawObservation{Source: SourceChat, Title: "Crash"}
	obs.Normalize()
	if err := obs.Validate(); err != nil {
		t.Errorf("valid observation failed validation: %v", err)
	}

	missing := RawObservation{Source: SourceChat}
	missing.Normalize()
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing title")
	}

	badSource := RawObservation{Source: "carrier-pigeon", Title: "Crash"}
	badSource.Normalize()
	if err := badSource.Validate(); err == nil {
		t.Error("expected error for invalid source")
	}

	outOfRange := RawObservation{Source: SourceChat, Title: "Crash", Severity: 6}
	outOfRange.Normalize()
	if err := outOfRange.Validate(); err == nil {
		t.Error("expected error for severity 6")
	}

	zero := 0
	badAbsolute := RawObservation{Source: SourceChat, Title: "Crash", AbsoluteFrequency: &zero}
	badAbsolute.Normalize()
	if err := badAbsolute.Validate(); err == nil {
		t.Error("expected error for absolute_frequency 0")
	}
}
