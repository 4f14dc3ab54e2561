package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage/filter"
)

func insertLog(ctx context.Context, q queryer, entry auditlog.Entry, now time.Time) (auditlog.Entry, error) {
	entry.Actor = strings.TrimSpace(entry.Actor)
	entry.Action = strings.TrimSpace(entry.Action)
	entry.Result = strings.TrimSpace(entry.Result)
	entry.BatchID = strings.TrimSpace(entry.BatchID)
	if entry.Actor == "" {
		return auditlog.Entry{}, fmt.Errorf("log actor is required")
	}
	if entry.Action == "" {
		return auditlog.Entry{}, fmt.Errorf("log action is required")
	}
	if !entry.Severity.Known() {
		return auditlog.Entry{}, fmt.Errorf("log severity %q is unknown", entry.Severity)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.CreatedAt = entry.CreatedAt.UTC().Truncate(time.Millisecond)

	result, err := q.ExecContext(ctx, `
INSERT INTO dice_logs (
	actor,
	action,
	result,
	severity,
	batch_id,
	created_at
) VALUES (?, ?, ?, ?, ?, ?)
`,
		entry.Actor,
		entry.Action,
		entry.Result,
		string(entry.Severity),
		entry.BatchID,
		entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return auditlog.Entry{}, fmt.Errorf("append log: %w", err)
	}
	entry.ID, err = result.LastInsertId()
	if err != nil {
		return auditlog.Entry{}, fmt.Errorf("append log id: %w", err)
	}
	return entry, nil
}

// AppendLog appends one entry and returns it with its id and timestamp.
func (s *Store) AppendLog(ctx context.Context, entry auditlog.Entry) (auditlog.Entry, error) {
	if err := s.ready(ctx); err != nil {
		return auditlog.Entry{}, err
	}
	return insertLog(ctx, s.sqlDB, entry, s.timestamp())
}

// AppendLogBatch appends entries in one transaction. Entries without a
// timestamp share the batch commit time.
func (s *Store) AppendLogBatch(ctx context.Context, entries []auditlog.Entry) ([]auditlog.Entry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []auditlog.Entry{}, nil
	}

	now := s.timestamp()
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	stored := make([]auditlog.Entry, 0, len(entries))
	for _, entry := range entries {
		saved, err := insertLog(ctx, tx, entry, now)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		stored = append(stored, saved)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

// LatestLogs returns at most limit entries, newest first.
func (s *Store) LatestLogs(ctx context.Context, limit int, filterStr string) ([]auditlog.Entry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, apperrors.New(apperrors.CodeLogInvalidLimit, "limit must be greater than zero")
	}
	return s.queryLogs(ctx, filterStr, limit)
}

// AllLogs returns every entry, newest first.
func (s *Store) AllLogs(ctx context.Context, filterStr string) ([]auditlog.Entry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.queryLogs(ctx, filterStr, 0)
}

func (s *Store) queryLogs(ctx context.Context, filterStr string, limit int) ([]auditlog.Entry, error) {
	cond, err := filter.ParseLogFilter(filterStr)
	if err != nil {
		return nil, err
	}

	query := `
SELECT
	id,
	actor,
	action,
	result,
	severity,
	batch_id,
	created_at
FROM dice_logs
`
	args := append([]any(nil), cond.Params...)
	if !cond.Empty() {
		query += "WHERE " + cond.Clause + "\n"
	}
	query += "ORDER BY created_at DESC, id DESC\n"
	if limit > 0 {
		query += "LIMIT ?\n"
		args = append(args, limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	entries := make([]auditlog.Entry, 0, max(limit, 0))
	for rows.Next() {
		var entry auditlog.Entry
		var severity string
		var createdAt int64
		if err := rows.Scan(
			&entry.ID,
			&entry.Actor,
			&entry.Action,
			&entry.Result,
			&severity,
			&entry.BatchID,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		entry.Severity = auditlog.Severity(severity)
		entry.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return entries, nil
}
