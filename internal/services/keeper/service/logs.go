package service

import (
	"context"
	"strings"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"go.opentelemetry.io/otel/attribute"
)

// FetchLatestLog returns the n most recent entries, newest first.
func (s *Service) FetchLatestLog(ctx context.Context, n int, filter string) (entries []auditlog.Entry, err error) {
	ctx, span := startSpan(ctx, "FetchLatestLog", attribute.Int("keeper.limit", n))
	defer func() { endSpan(span, err) }()

	if n <= 0 {
		return nil, apperrors.New(apperrors.CodeLogInvalidLimit, "limit must be greater than zero")
	}
	return s.logs.LatestLogs(ctx, n, filter)
}

// ExportLog returns every entry, newest first.
func (s *Service) ExportLog(ctx context.Context, filter string) (entries []auditlog.Entry, err error) {
	ctx, span := startSpan(ctx, "ExportLog")
	defer func() { endSpan(span, err) }()

	return s.logs.AllLogs(ctx, filter)
}

// AddNote logs a free-text keeper note.
func (s *Service) AddNote(ctx context.Context, actor string, note string) (entry auditlog.Entry, err error) {
	ctx, span := startSpan(ctx, "AddNote")
	defer func() { endSpan(span, err) }()

	note = strings.TrimSpace(note)
	if note == "" {
		return auditlog.Entry{}, apperrors.New(apperrors.CodeLogEmptyNote, "note is empty")
	}
	writeCtx, cancel := writeContext(ctx)
	defer cancel()
	entry, err = s.logs.AppendLog(writeCtx, auditlog.Entry{
		Actor:    actorOr(actor, s.label("log.actor.keeper")),
		Action:   note,
		Result:   s.label("log.result.note"),
		Severity: auditlog.SeveritySecondary,
	})
	if err != nil {
		return auditlog.Entry{}, err
	}
	s.publish(entry)
	return entry, nil
}
