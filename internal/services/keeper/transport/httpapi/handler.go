package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/keeperdesk/keeperdesk/internal/platform/i18n/catalog"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/feed"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/service"
	"github.com/keeperdesk/keeperdesk/internal/services/shared/htmx"
	"golang.org/x/net/websocket"
)

const (
	// DefaultLatestLimit matches the size of the desk's log panel.
	DefaultLatestLimit = 40
	// DefaultFeedBacklog is how many recent entries a new feed viewer receives.
	DefaultFeedBacklog = 20

	// triggerNewDiceRoll tells htmx log panels to reload.
	triggerNewDiceRoll = "newDiceRoll"

	maxRequestBodyBytes = 64 * 1024
)

// Config wires the HTTP boundary.
type Config struct {
	Service *service.Service
	// Feed is optional; without it /logs/ws is not served.
	Feed *feed.Hub
	// Locale is the fallback language of error messages.
	Locale      string
	LatestLimit int
	FeedBacklog int
}

type handler struct {
	svc         *service.Service
	feed        *feed.Hub
	locale      string
	latestLimit int
	feedBacklog int
	schemas     *requestSchemas
}

// NewHandler builds the keeper routes.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, errors.New("keeper service is required")
	}
	schemas, err := compileRequestSchemas()
	if err != nil {
		return nil, err
	}
	h := &handler{
		svc:         cfg.Service,
		feed:        cfg.Feed,
		locale:      strings.TrimSpace(cfg.Locale),
		latestLimit: cfg.LatestLimit,
		feedBacklog: cfg.FeedBacklog,
		schemas:     schemas,
	}
	if h.locale == "" {
		h.locale = catalog.BaseLocale
	}
	if h.latestLimit <= 0 {
		h.latestLimit = DefaultLatestLimit
	}
	if h.feedBacklog < 0 {
		h.feedBacklog = 0
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /rolls/check", h.handleCheckRoll)
	mux.HandleFunc("POST /rolls/custom", h.handleCustomRoll)
	mux.HandleFunc("POST /rolls/sanity", h.handleSanityRoll)

	mux.HandleFunc("GET /teams", h.handleTeams)
	mux.HandleFunc("POST /teams/{team}/mass-roll", h.handleMassRoll)

	mux.HandleFunc("POST /investigators", h.handleSaveInvestigator)
	mux.HandleFunc("GET /investigators/{id}", h.handleGetInvestigator)
	mux.HandleFunc("GET /investigators/{id}/fields/{field}", h.handleLookupField)
	mux.HandleFunc("POST /investigators/{id}/resources", h.handleResourceDelta)

	mux.HandleFunc("GET /logs", h.handleLatestLogs)
	mux.HandleFunc("POST /logs/notes", h.handleAddNote)
	mux.HandleFunc("GET /logs/export", h.handleExport)

	if h.feed != nil {
		wsHandler := websocket.Handler(func(conn *websocket.Conn) {
			h.serveFeed(conn)
		})
		mux.HandleFunc("/logs/ws", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				w.Header().Set("Allow", http.MethodGet)
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			wsHandler.ServeHTTP(w, r)
		})
	}
	return mux, nil
}

func (h *handler) handleCheckRoll(w http.ResponseWriter, r *http.Request) {
	var req checkRollRequest
	if err := h.decode(r, h.schemas.checkRoll, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.svc.ExecuteSingleRoll(r.Context(), service.RollRequest{
		Actor:  req.Actor,
		Action: req.Action,
		Target: req.Target,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	htmx.Trigger(w, triggerNewDiceRoll)
	if htmx.IsHTMXRequest(r) {
		htmx.RenderFragment(w, r, http.StatusOK, rollAlert(req.Action, result))
		return
	}
	writeJSON(w, http.StatusOK, newSingleRollResponse(result))
}

func (h *handler) handleCustomRoll(w http.ResponseWriter, r *http.Request) {
	var req customRollRequest
	if err := h.decode(r, h.schemas.customRoll, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.svc.ExecuteCustomRoll(r.Context(), req.Actor, req.Sides)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	htmx.Trigger(w, triggerNewDiceRoll)
	if htmx.IsHTMXRequest(r) {
		writeText(w, http.StatusOK, strconv.Itoa(result.Result))
		return
	}
	writeJSON(w, http.StatusOK, customRollResponse{
		Actor:  result.Actor,
		Sides:  result.Sides,
		Result: result.Result,
		Entry:  newEntryResponse(result.Entry),
	})
}

// handleSanityRoll is unlogged, so it never fires the refresh trigger.
func (h *handler) handleSanityRoll(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RollSanity(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if htmx.IsHTMXRequest(r) {
		htmx.RenderFragment(w, r, http.StatusOK, sanityAlert(result))
		return
	}
	writeJSON(w, http.StatusOK, sanityRollResponse{
		Draw:     result.Draw,
		Outcome:  strings.TrimPrefix(result.Outcome.MessageKey(), "check.outcome."),
		Label:    result.Label,
		Severity: string(result.Severity),
	})
}

func (h *handler) handleTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.svc.TeamRoster(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := teamsResponse{Teams: make([]teamResponse, 0, len(teams))}
	for _, team := range teams {
		out := teamResponse{Name: team.Name, Members: make([]investigatorResponse, 0, len(team.Members))}
		for _, member := range team.Members {
			out.Members = append(out.Members, newInvestigatorResponse(member))
		}
		resp.Teams = append(resp.Teams, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleMassRoll(w http.ResponseWriter, r *http.Request) {
	var req massRollRequest
	if err := h.decode(r, h.schemas.massRoll, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.svc.ExecuteMassRoll(r.Context(), service.MassRollRequest{
		Team:       r.PathValue("team"),
		SkillKey:   req.Skill,
		SkillLabel: req.SkillLabel,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(result.Entries) > 0 {
		htmx.Trigger(w, triggerNewDiceRoll)
	}
	if htmx.IsHTMXRequest(r) {
		htmx.RenderFragment(w, r, http.StatusOK, massRollResults(result))
		return
	}
	writeJSON(w, http.StatusOK, newMassRollResponse(result))
}

func (h *handler) handleSaveInvestigator(w http.ResponseWriter, r *http.Request) {
	var req investigatorRequest
	if err := h.decode(r, h.schemas.investigator, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.svc.SaveInvestigator(r.Context(), req.record())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvestigatorResponse(saved))
}

func (h *handler) handleGetInvestigator(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetInvestigator(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvestigatorResponse(rec))
}

func (h *handler) handleLookupField(w http.ResponseWriter, r *http.Request) {
	field := r.PathValue("field")
	value, err := h.svc.LookupField(r.Context(), r.PathValue("id"), field)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fieldResponse{
		InvestigatorID: r.PathValue("id"),
		Field:          strings.ToLower(strings.TrimSpace(field)),
		Value:          value,
	})
}

func (h *handler) handleResourceDelta(w http.ResponseWriter, r *http.Request) {
	var req resourceDeltaRequest
	if err := h.decode(r, h.schemas.resourceDelta, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.svc.ApplyResourceDelta(r.Context(), service.ResourceDelta{
		InvestigatorID: r.PathValue("id"),
		Field:          req.Field,
		Delta:          req.Delta,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !result.Found {
		if htmx.IsHTMXRequest(r) {
			writeText(w, http.StatusNotFound, "Err")
			return
		}
		writeJSON(w, http.StatusNotFound, resourceDeltaResponse{
			Found:          false,
			InvestigatorID: r.PathValue("id"),
			Field:          result.Field,
		})
		return
	}
	htmx.Trigger(w, triggerNewDiceRoll)
	if htmx.IsHTMXRequest(r) {
		writeText(w, http.StatusOK, strconv.Itoa(result.Value))
		return
	}
	entry := newEntryResponse(result.Entry)
	writeJSON(w, http.StatusOK, resourceDeltaResponse{
		Found:          true,
		InvestigatorID: result.Investigator.ID,
		Field:          result.Field,
		Value:          result.Value,
		Entry:          &entry,
	})
}

func (h *handler) handleLatestLogs(w http.ResponseWriter, r *http.Request) {
	limit := h.latestLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, malformed("limit must be an integer"))
			return
		}
		limit = parsed
	}
	entries, err := h.svc.FetchLatestLog(r.Context(), limit, r.URL.Query().Get("filter"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if htmx.IsHTMXRequest(r) {
		htmx.RenderFragment(w, r, http.StatusOK, logList(entries))
		return
	}
	writeJSON(w, http.StatusOK, newLogsResponse(entries))
}

func (h *handler) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := h.decode(r, h.schemas.note, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	entry, err := h.svc.AddNote(r.Context(), req.Actor, req.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	htmx.Trigger(w, triggerNewDiceRoll)
	if htmx.IsHTMXRequest(r) {
		entries, err := h.svc.FetchLatestLog(r.Context(), h.latestLimit, "")
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		htmx.RenderFragment(w, r, http.StatusOK, logList(entries))
		return
	}
	writeJSON(w, http.StatusOK, newEntryResponse(entry))
}
