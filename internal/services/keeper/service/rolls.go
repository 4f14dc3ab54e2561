package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/core/check"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/core/dice"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/investigator"
	"go.opentelemetry.io/otel/attribute"
)

// RollRequest asks for one percentile check.
type RollRequest struct {
	Actor  string
	Action string
	Target int
}

// RollOutcome is the graded result of one check.
type RollOutcome struct {
	Draw     int
	Target   int
	Outcome  check.Outcome
	Label    string
	Severity auditlog.Severity
}

// SingleRoll is a logged check.
type SingleRoll struct {
	RollOutcome
	Entry auditlog.Entry
}

// MassRollRequest asks for a secret check of one skill across a team.
type MassRollRequest struct {
	Team       string
	SkillKey   string
	SkillLabel string
}

// BatchMember is one resolved participant of a team roll.
type BatchMember struct {
	InvestigatorID string
	Name           string
	Target         int
}

// TeamRollBatch is a team roll with every target resolved, in team order.
type TeamRollBatch struct {
	Team       string
	SkillKey   string
	SkillLabel string
	Members    []BatchMember
}

// BatchRow is one member's result.
type BatchRow struct {
	InvestigatorID string
	Name           string
	Target         int
	Roll           RollOutcome
}

// BatchRollResult lists member results in team order.
type BatchRollResult struct {
	Team       string
	SkillKey   string
	SkillLabel string
	BatchID    string
	Rows       []BatchRow
	Entries    []auditlog.Entry
}

// CustomRoll is a logged free 1dN roll.
type CustomRoll struct {
	Actor  string
	Sides  int
	Result int
	Entry  auditlog.Entry
}

// SanityRoll is an unlogged bare 1d100 sanity draw. Label is empty unless
// the draw is a critical or a fumble.
type SanityRoll struct {
	Draw     int
	Outcome  check.Outcome
	Special  bool
	Label    string
	Severity auditlog.Severity
}

// EvaluateCheck classifies a known draw against target.
func (s *Service) EvaluateCheck(target, draw int) (check.Outcome, error) {
	return check.Evaluate(target, draw)
}

func (s *Service) roll(target int) (RollOutcome, error) {
	draw, err := dice.Percentile(s.dice)
	if err != nil {
		return RollOutcome{}, err
	}
	outcome, err := check.Evaluate(target, draw)
	if err != nil {
		return RollOutcome{}, err
	}
	return RollOutcome{
		Draw:     draw,
		Target:   target,
		Outcome:  outcome,
		Label:    s.label(outcome.MessageKey()),
		Severity: auditlog.SeverityForOutcome(outcome),
	}, nil
}

func (s *Service) rollResult(roll RollOutcome) string {
	return s.label("log.result.roll", roll.Draw, roll.Target, roll.Label)
}

// ExecuteSingleRoll draws, classifies and logs one check. When the log
// append fails no outcome is returned.
func (s *Service) ExecuteSingleRoll(ctx context.Context, req RollRequest) (result SingleRoll, err error) {
	ctx, span := startSpan(ctx, "ExecuteSingleRoll", attribute.Int("keeper.target", req.Target))
	defer func() { endSpan(span, err) }()

	action := strings.TrimSpace(req.Action)
	if action == "" {
		return SingleRoll{}, apperrors.New(apperrors.CodeRollEmptyAction, "action label is required")
	}
	if req.Target < 0 {
		return SingleRoll{}, fmt.Errorf("single roll: %w", check.ErrInvalidTarget)
	}

	roll, err := s.roll(req.Target)
	if err != nil {
		return SingleRoll{}, err
	}
	writeCtx, cancel := writeContext(ctx)
	defer cancel()
	entry, err := s.logs.AppendLog(writeCtx, auditlog.Entry{
		Actor:    actorOr(req.Actor, s.label("log.actor.unnamed")),
		Action:   action,
		Result:   s.rollResult(roll),
		Severity: roll.Severity,
	})
	if err != nil {
		return SingleRoll{}, err
	}
	s.publish(entry)
	return SingleRoll{RollOutcome: roll, Entry: entry}, nil
}

// ResolveTeamBatch loads the team in initiative order and resolves every
// member's target for the skill. A skill missing from a record resolves to 0.
func (s *Service) ResolveTeamBatch(ctx context.Context, req MassRollRequest) (TeamRollBatch, error) {
	team := strings.TrimSpace(req.Team)
	if team == "" {
		return TeamRollBatch{}, apperrors.New(apperrors.CodeRollEmptyTeam, "team is required")
	}
	field, err := investigator.Lookup(req.SkillKey)
	if err != nil {
		return TeamRollBatch{}, err
	}
	label := strings.TrimSpace(req.SkillLabel)
	if label == "" {
		label = field.Name
		if def, ok := investigator.DefaultSkills().Skill(field.Name); ok && def.Label != "" {
			label = def.Label
		}
	}

	members, err := s.investigators.ListTeam(ctx, team)
	if err != nil {
		return TeamRollBatch{}, err
	}
	batch := TeamRollBatch{
		Team:       team,
		SkillKey:   field.Name,
		SkillLabel: label,
		Members:    make([]BatchMember, 0, len(members)),
	}
	for _, member := range members {
		batch.Members = append(batch.Members, BatchMember{
			InvestigatorID: member.ID,
			Name:           member.Name,
			Target:         field.Get(member),
		})
	}
	return batch, nil
}

// ExecuteMassRoll secretly checks one skill for every member of a team.
// Entries are appended as one batch after the whole team is drawn; rows keep
// team order. An empty team yields an empty result and appends nothing.
func (s *Service) ExecuteMassRoll(ctx context.Context, req MassRollRequest) (result BatchRollResult, err error) {
	ctx, span := startSpan(ctx, "ExecuteMassRoll",
		attribute.String("keeper.team", req.Team),
		attribute.String("keeper.skill", req.SkillKey),
	)
	defer func() { endSpan(span, err) }()

	batch, err := s.ResolveTeamBatch(ctx, req)
	if err != nil {
		return BatchRollResult{}, err
	}
	result = BatchRollResult{
		Team:       batch.Team,
		SkillKey:   batch.SkillKey,
		SkillLabel: batch.SkillLabel,
		Rows:       make([]BatchRow, 0, len(batch.Members)),
		Entries:    []auditlog.Entry{},
	}
	if len(batch.Members) == 0 {
		return result, nil
	}
	batchID, err := s.newBatchID()
	if err != nil {
		return BatchRollResult{}, fmt.Errorf("batch id: %w", err)
	}
	result.BatchID = batchID

	actor := s.label("log.actor.secret_roll")
	entries := make([]auditlog.Entry, 0, len(batch.Members))
	for _, member := range batch.Members {
		roll, err := s.roll(member.Target)
		if err != nil {
			return BatchRollResult{}, fmt.Errorf("roll for %s: %w", member.InvestigatorID, err)
		}
		result.Rows = append(result.Rows, BatchRow{
			InvestigatorID: member.InvestigatorID,
			Name:           member.Name,
			Target:         member.Target,
			Roll:           roll,
		})
		entries = append(entries, auditlog.Entry{
			Actor:    actor,
			Action:   s.label("log.action.secret_roll", actorOr(member.Name, s.label("log.actor.unnamed")), batch.SkillLabel),
			Result:   s.rollResult(roll),
			Severity: auditlog.SeveritySecondary,
			BatchID:  batchID,
		})
	}

	writeCtx, cancel := writeContext(ctx)
	defer cancel()
	stored, err := s.logs.AppendLogBatch(writeCtx, entries)
	if err != nil {
		return BatchRollResult{}, err
	}
	result.Entries = stored
	s.publish(stored...)
	span.SetAttributes(attribute.Int("keeper.members", len(result.Rows)))
	return result, nil
}

// ExecuteCustomRoll rolls and logs one die with the given sides.
func (s *Service) ExecuteCustomRoll(ctx context.Context, actor string, sides int) (result CustomRoll, err error) {
	ctx, span := startSpan(ctx, "ExecuteCustomRoll", attribute.Int("keeper.sides", sides))
	defer func() { endSpan(span, err) }()

	value, err := dice.Roll(s.dice, sides)
	if err != nil {
		return CustomRoll{}, err
	}
	actor = actorOr(actor, s.label("log.actor.general"))
	writeCtx, cancel := writeContext(ctx)
	defer cancel()
	entry, err := s.logs.AppendLog(writeCtx, auditlog.Entry{
		Actor:    actor,
		Action:   fmt.Sprintf("1d%d", sides),
		Result:   fmt.Sprintf("%d", value),
		Severity: auditlog.SeverityInfo,
	})
	if err != nil {
		return CustomRoll{}, err
	}
	s.publish(entry)
	return CustomRoll{Actor: actor, Sides: sides, Result: value, Entry: entry}, nil
}

// RollSanity draws a bare sanity roll. Nothing is logged or published.
func (s *Service) RollSanity(ctx context.Context) (result SanityRoll, err error) {
	_, span := startSpan(ctx, "RollSanity")
	defer func() { endSpan(span, err) }()

	draw, err := dice.Percentile(s.dice)
	if err != nil {
		return SanityRoll{}, err
	}
	outcome, special, err := check.EvaluateSanity(draw)
	if err != nil {
		return SanityRoll{}, err
	}
	result = SanityRoll{
		Draw:     draw,
		Outcome:  outcome,
		Special:  special,
		Severity: auditlog.SeverityForOutcome(outcome),
	}
	if special {
		result.Label = s.label(outcome.MessageKey())
	}
	span.SetAttributes(attribute.Int("keeper.draw", draw))
	return result, nil
}
