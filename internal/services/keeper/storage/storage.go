// Package storage defines the persistence contracts of the keeper service.
package storage

import (
	"context"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/investigator"
)

// ErrNotFound indicates a requested record does not exist.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// DescribeFunc builds the log entry recorded alongside a field adjustment.
// It receives the record as it reads after the adjustment.
type DescribeFunc func(rec investigator.Investigator) auditlog.Entry

// InvestigatorStore persists investigator records.
type InvestigatorStore interface {
	GetInvestigator(ctx context.Context, id string) (investigator.Investigator, error)
	// ListTeam returns the members of team ordered by DEX descending, then id.
	ListTeam(ctx context.Context, team string) ([]investigator.Investigator, error)
	// ListInvestigators returns every record ordered by team, DEX descending, then id.
	ListInvestigators(ctx context.Context) ([]investigator.Investigator, error)
	PutInvestigator(ctx context.Context, rec investigator.Investigator) error
	// AdjustField atomically adds delta to a column-backed field and appends
	// the entry returned by describe in the same transaction. It returns
	// ErrNotFound, and appends nothing, when id does not resolve.
	AdjustField(ctx context.Context, id string, field investigator.Field, delta int, describe DescribeFunc) (investigator.Investigator, auditlog.Entry, error)
}

// LogStore is the append-only session log.
//
// Reads return entries newest first: created_at descending, id descending.
// Filters are AIP-160 expressions over actor, action, severity, batch_id and
// created_at; an empty filter matches every entry.
type LogStore interface {
	AppendLog(ctx context.Context, entry auditlog.Entry) (auditlog.Entry, error)
	// AppendLogBatch appends every entry in one transaction.
	AppendLogBatch(ctx context.Context, entries []auditlog.Entry) ([]auditlog.Entry, error)
	LatestLogs(ctx context.Context, limit int, filter string) ([]auditlog.Entry, error)
	AllLogs(ctx context.Context, filter string) ([]auditlog.Entry, error)
}
