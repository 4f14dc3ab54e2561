// Package auditlog defines the append-only session log entry.
package auditlog

import (
	"time"

	"github.com/keeperdesk/keeperdesk/internal/services/keeper/core/check"
)

// Severity is the display tag attached to a log entry.
type Severity string

const (
	SeverityDark      Severity = "dark"
	SeveritySuccess   Severity = "success"
	SeverityWarning   Severity = "warning"
	SeverityInfo      Severity = "info"
	SeverityDanger    Severity = "danger"
	SeveritySecondary Severity = "secondary"
	SeverityPrimary   Severity = "primary"
)

// Entry is one row of the session log. Entries are never updated.
type Entry struct {
	ID        int64
	Actor     string
	Action    string
	Result    string
	Severity  Severity
	CreatedAt time.Time
	// BatchID groups the entries of one team roll.
	BatchID string
}

// SeverityForOutcome returns the fixed display tag of a check outcome.
func SeverityForOutcome(outcome check.Outcome) Severity {
	switch outcome {
	case check.OutcomeFumble:
		return SeverityDark
	case check.OutcomeCriticalSuccess, check.OutcomeRegularSuccess:
		return SeveritySuccess
	case check.OutcomeExtremeSuccess:
		return SeverityWarning
	case check.OutcomeHardSuccess:
		return SeverityInfo
	case check.OutcomeFailure:
		return SeverityDanger
	default:
		return SeveritySecondary
	}
}

// Known reports whether s is one of the defined tags.
func (s Severity) Known() bool {
	switch s {
	case SeverityDark, SeveritySuccess, SeverityWarning, SeverityInfo,
		SeverityDanger, SeveritySecondary, SeverityPrimary:
		return true
	default:
		return false
	}
}
