package service

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
	"github.com/keeperdesk/keeperdesk/internal/platform/id"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/investigator"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage"
	"go.opentelemetry.io/otel/attribute"
)

// ResourceDelta is a signed change to one resource field.
type ResourceDelta struct {
	InvestigatorID string
	Field          string
	Delta          int
}

// DeltaResult reports the field value after a delta. Found is false when the
// investigator does not exist; nothing is written or logged in that case.
type DeltaResult struct {
	Found        bool
	Field        string
	Value        int
	Investigator investigator.Investigator
	Entry        auditlog.Entry
}

// ApplyResourceDelta adds delta to a resource field without clamping and
// logs the investigator's resource snapshot in the same transaction.
func (s *Service) ApplyResourceDelta(ctx context.Context, req ResourceDelta) (result DeltaResult, err error) {
	ctx, span := startSpan(ctx, "ApplyResourceDelta",
		attribute.String("keeper.investigator", req.InvestigatorID),
		attribute.String("keeper.field", req.Field),
		attribute.Int("keeper.delta", req.Delta),
	)
	defer func() { endSpan(span, err) }()

	field, err := investigator.LookupResource(req.Field)
	if err != nil {
		return DeltaResult{}, err
	}
	investigatorID := strings.TrimSpace(req.InvestigatorID)
	if investigatorID == "" {
		return DeltaResult{Field: field.Name}, nil
	}

	writeCtx, cancel := writeContext(ctx)
	defer cancel()
	rec, entry, err := s.investigators.AdjustField(writeCtx, investigatorID, field, req.Delta, s.describeStatus)
	if errors.Is(err, storage.ErrNotFound) {
		return DeltaResult{Field: field.Name}, nil
	}
	if err != nil {
		return DeltaResult{}, err
	}
	s.publish(entry)
	return DeltaResult{
		Found:        true,
		Field:        field.Name,
		Value:        field.Get(rec),
		Investigator: rec,
		Entry:        entry,
	}, nil
}

func (s *Service) describeStatus(rec investigator.Investigator) auditlog.Entry {
	return auditlog.Entry{
		Actor:    actorOr(rec.Name, s.label("log.actor.unnamed")),
		Action:   s.label("log.action.status_update"),
		Result:   s.label("log.result.status", rec.HPCurrent, rec.MPCurrent, rec.SanCurrent),
		Severity: auditlog.SeverityPrimary,
	}
}

// LookupField reads one accessor field of an investigator.
func (s *Service) LookupField(ctx context.Context, investigatorID string, name string) (int, error) {
	field, err := investigator.Lookup(name)
	if err != nil {
		return 0, err
	}
	rec, err := s.GetInvestigator(ctx, investigatorID)
	if err != nil {
		return 0, err
	}
	return field.Get(rec), nil
}

// GetInvestigator loads one investigator.
func (s *Service) GetInvestigator(ctx context.Context, investigatorID string) (investigator.Investigator, error) {
	investigatorID = strings.TrimSpace(investigatorID)
	if investigatorID == "" {
		return investigator.Investigator{}, notFound(investigatorID)
	}
	rec, err := s.investigators.GetInvestigator(ctx, investigatorID)
	if errors.Is(err, storage.ErrNotFound) {
		return investigator.Investigator{}, notFound(investigatorID)
	}
	if err != nil {
		return investigator.Investigator{}, err
	}
	return rec, nil
}

func notFound(investigatorID string) error {
	return apperrors.WithMetadata(apperrors.CodeInvestigatorNotFound, "investigator not found",
		map[string]string{"InvestigatorID": investigatorID})
}

// SaveInvestigator creates or replaces a record. Records without an id get one.
func (s *Service) SaveInvestigator(ctx context.Context, rec investigator.Investigator) (investigator.Investigator, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return investigator.Investigator{}, err
	}
	if rec.ID == "" {
		newID, err := id.NewPrefixed("inv")
		if err != nil {
			return investigator.Investigator{}, err
		}
		rec.ID = newID
	}
	writeCtx, cancel := writeContext(ctx)
	defer cancel()
	if err := s.investigators.PutInvestigator(writeCtx, rec); err != nil {
		return investigator.Investigator{}, err
	}
	return s.investigators.GetInvestigator(ctx, rec.ID)
}

// Team is one roster group in initiative order.
type Team struct {
	Name    string
	Members []investigator.Investigator
}

// TeamRoster groups every investigator by team, each team in DEX-descending
// order.
func (s *Service) TeamRoster(ctx context.Context) ([]Team, error) {
	recs, err := s.investigators.ListInvestigators(ctx)
	if err != nil {
		return nil, err
	}
	teams := []Team{}
	for _, rec := range recs {
		if len(teams) == 0 || teams[len(teams)-1].Name != rec.TeamName {
			teams = append(teams, Team{Name: rec.TeamName})
		}
		last := &teams[len(teams)-1]
		last.Members = append(last.Members, rec)
	}
	return teams, nil
}
