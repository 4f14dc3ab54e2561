package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/investigator"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/service"
)

type entryResponse struct {
	ID        int64  `json:"id"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Result    string `json:"result"`
	Severity  string `json:"severity"`
	BatchID   string `json:"batch_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

func newEntryResponse(entry auditlog.Entry) entryResponse {
	return entryResponse{
		ID:        entry.ID,
		Actor:     entry.Actor,
		Action:    entry.Action,
		Result:    entry.Result,
		Severity:  string(entry.Severity),
		BatchID:   entry.BatchID,
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type logsResponse struct {
	Entries []entryResponse `json:"entries"`
}

func newLogsResponse(entries []auditlog.Entry) logsResponse {
	out := logsResponse{Entries: make([]entryResponse, 0, len(entries))}
	for _, entry := range entries {
		out.Entries = append(out.Entries, newEntryResponse(entry))
	}
	return out
}

// rollOutcomeResponse.Outcome is one of fumble, critical, extreme, hard,
// regular or failure.
type rollOutcomeResponse struct {
	Draw     int    `json:"draw"`
	Target   int    `json:"target"`
	Outcome  string `json:"outcome"`
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Success  bool   `json:"success"`
}

func newRollOutcomeResponse(roll service.RollOutcome) rollOutcomeResponse {
	return rollOutcomeResponse{
		Draw:     roll.Draw,
		Target:   roll.Target,
		Outcome:  strings.TrimPrefix(roll.Outcome.MessageKey(), "check.outcome."),
		Label:    roll.Label,
		Severity: string(roll.Severity),
		Success:  roll.Outcome.Succeeded(),
	}
}

type singleRollResponse struct {
	rollOutcomeResponse
	Entry entryResponse `json:"entry"`
}

func newSingleRollResponse(result service.SingleRoll) singleRollResponse {
	return singleRollResponse{
		rollOutcomeResponse: newRollOutcomeResponse(result.RollOutcome),
		Entry:               newEntryResponse(result.Entry),
	}
}

type customRollResponse struct {
	Actor  string        `json:"actor"`
	Sides  int           `json:"sides"`
	Result int           `json:"result"`
	Entry  entryResponse `json:"entry"`
}

// sanityRollResponse.Outcome is critical, fumble or empty.
type sanityRollResponse struct {
	Draw     int    `json:"draw"`
	Outcome  string `json:"outcome,omitempty"`
	Label    string `json:"label,omitempty"`
	Severity string `json:"severity"`
}

type massRollRowResponse struct {
	InvestigatorID string              `json:"investigator_id"`
	Name           string              `json:"name"`
	Target         int                 `json:"target"`
	Roll           rollOutcomeResponse `json:"roll"`
}

type massRollResponse struct {
	Team       string                `json:"team"`
	Skill      string                `json:"skill"`
	SkillLabel string                `json:"skill_label"`
	BatchID    string                `json:"batch_id,omitempty"`
	Rows       []massRollRowResponse `json:"rows"`
	Entries    []entryResponse       `json:"entries"`
}

func newMassRollResponse(result service.BatchRollResult) massRollResponse {
	out := massRollResponse{
		Team:       result.Team,
		Skill:      result.SkillKey,
		SkillLabel: result.SkillLabel,
		BatchID:    result.BatchID,
		Rows:       make([]massRollRowResponse, 0, len(result.Rows)),
		Entries:    newLogsResponse(result.Entries).Entries,
	}
	for _, row := range result.Rows {
		out.Rows = append(out.Rows, massRollRowResponse{
			InvestigatorID: row.InvestigatorID,
			Name:           row.Name,
			Target:         row.Target,
			Roll:           newRollOutcomeResponse(row.Roll),
		})
	}
	return out
}

type investigatorResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	PlayerName string         `json:"player_name,omitempty"`
	Occupation string         `json:"occupation,omitempty"`
	TeamName   string         `json:"team_name"`
	CardType   string         `json:"card_type"`
	Ratings    map[string]int `json:"ratings"`
	Skills     map[string]int `json:"skills"`
	UpdatedAt  string         `json:"updated_at,omitempty"`
}

func newInvestigatorResponse(rec investigator.Investigator) investigatorResponse {
	out := investigatorResponse{
		ID:         rec.ID,
		Name:       rec.Name,
		PlayerName: rec.PlayerName,
		Occupation: rec.Occupation,
		TeamName:   rec.TeamName,
		CardType:   string(rec.CardType),
		Ratings:    map[string]int{},
		Skills:     map[string]int{},
	}
	for _, field := range investigator.ColumnFields() {
		out.Ratings[field.Name] = field.Get(rec)
	}
	for key, value := range rec.Skills {
		out.Skills[key] = value
	}
	if !rec.UpdatedAt.IsZero() {
		out.UpdatedAt = rec.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}

type teamResponse struct {
	Name    string                 `json:"name"`
	Members []investigatorResponse `json:"members"`
}

type teamsResponse struct {
	Teams []teamResponse `json:"teams"`
}

type fieldResponse struct {
	InvestigatorID string `json:"investigator_id"`
	Field          string `json:"field"`
	Value          int    `json:"value"`
}

type resourceDeltaResponse struct {
	Found          bool           `json:"found"`
	InvestigatorID string         `json:"investigator_id"`
	Field          string         `json:"field"`
	Value          int            `json:"value"`
	Entry          *entryResponse `json:"entry,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
