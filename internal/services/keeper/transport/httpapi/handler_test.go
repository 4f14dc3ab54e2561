package httpapi

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keeperdesk/keeperdesk/internal/services/keeper/core/dice"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/investigator"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/feed"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/service"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage/sqlite"
	"github.com/keeperdesk/keeperdesk/internal/services/shared/htmx"
)

type testEnv struct {
	handler http.Handler
	store   *sqlite.Store
	feed    *feed.Hub
}

func newTestEnv(t *testing.T, faces ...int) testEnv {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "keeper.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	if len(faces) == 0 {
		faces = []int{50}
	}
	hub := feed.NewHub(0)
	t.Cleanup(hub.Close)
	svc, err := service.New(service.Config{
		Investigators: store,
		Logs:          store,
		Dice:          dice.NewSequence(faces...),
		Feed:          hub,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewHandler(Config{Service: svc, Feed: hub, FeedBacklog: 5})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return testEnv{handler: handler, store: store, feed: hub}
}

func (e testEnv) put(t *testing.T, recs ...investigator.Investigator) {
	t.Helper()
	for _, rec := range recs {
		if err := e.store.PutInvestigator(context.Background(), rec); err != nil {
			t.Fatalf("put investigator: %v", err)
		}
	}
}

func (e testEnv) do(t *testing.T, method, target, body string, htmxRequest bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if htmxRequest {
		req.Header.Set(htmx.RequestHeaderKey, "true")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func member(id, name, team string, dex int, skills map[string]int) investigator.Investigator {
	rec := investigator.New(name)
	rec.ID = id
	rec.TeamName = team
	rec.DEX = dex
	rec.Skills = skills
	return rec
}

func TestNewHandlerRequiresService(t *testing.T) {
	if _, err := NewHandler(Config{}); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestUp(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/up", "", false)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("up = %d %q", rec.Code, rec.Body.String())
	}
}

func TestCheckRollJSON(t *testing.T) {
	env := newTestEnv(t, 12)
	rec := env.do(t, http.MethodPost, "/rolls/check", `{"actor":"Ada","action":"Spot Hidden","target":60}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(htmx.TriggerHeaderKey); got != "newDiceRoll" {
		t.Fatalf("trigger = %q", got)
	}
	resp := decodeJSON[singleRollResponse](t, rec)
	if resp.Draw != 12 || resp.Outcome != "extreme" || resp.Severity != "warning" || !resp.Success {
		t.Fatalf("unexpected roll: %+v", resp)
	}
	if resp.Entry.ID == 0 || resp.Entry.Result != "12/60 (Extreme Success)" || resp.Entry.Actor != "Ada" {
		t.Fatalf("unexpected entry: %+v", resp.Entry)
	}
}

func TestCheckRollHTMXFragment(t *testing.T) {
	env := newTestEnv(t, 100)
	rec := env.do(t, http.MethodPost, "/rolls/check", `{"action":"<b>Listen</b>","target":40}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "alert-dark") || !strings.Contains(body, "Fumble") {
		t.Fatalf("fragment = %q", body)
	}
	if strings.Contains(body, "<b>Listen</b>") {
		t.Fatalf("action was not escaped: %q", body)
	}
}

func TestCheckRollRejectsBadBodies(t *testing.T) {
	env := newTestEnv(t)
	tcs := []struct {
		name string
		body string
		code string
	}{
		{name: "not json", body: `{`, code: "REQUEST_MALFORMED"},
		{name: "negative target", body: `{"action":"Listen","target":-1}`, code: "REQUEST_MALFORMED"},
		{name: "unknown property", body: `{"action":"Listen","target":5,"bonus":1}`, code: "REQUEST_MALFORMED"},
		{name: "blank action", body: `{"action":"   ","target":5}`, code: "ROLL_EMPTY_ACTION"},
	}
	for _, tc := range tcs {
		rec := env.do(t, http.MethodPost, "/rolls/check", tc.body, false)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", tc.name, rec.Code)
		}
		resp := decodeJSON[errorResponse](t, rec)
		if resp.Error.Code != tc.code {
			t.Fatalf("%s: code = %q", tc.name, resp.Error.Code)
		}
		if rec.Header().Get(htmx.TriggerHeaderKey) != "" {
			t.Fatalf("%s: failed request must not trigger a refresh", tc.name)
		}
	}
}

func TestErrorMessagesFollowRequestLanguage(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/investigators/missing", nil)
	req.Header.Set("Accept-Language", "zh-CN")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeJSON[errorResponse](t, rec)
	if resp.Error.Message != "角色不存在。" {
		t.Fatalf("message = %q", resp.Error.Message)
	}
}

func TestCustomRoll(t *testing.T) {
	env := newTestEnv(t, 4)
	rec := env.do(t, http.MethodPost, "/rolls/custom", `{"sides":6}`, true)
	if rec.Code != http.StatusOK || rec.Body.String() != "4" {
		t.Fatalf("custom roll = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(htmx.TriggerHeaderKey) != "newDiceRoll" {
		t.Fatal("expected trigger header")
	}

	rec = env.do(t, http.MethodPost, "/rolls/custom", `{"sides":0}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero sides status = %d", rec.Code)
	}
	if resp := decodeJSON[errorResponse](t, rec); resp.Error.Code != "ROLL_INVALID_SIDES" {
		t.Fatalf("zero sides code = %q", resp.Error.Code)
	}
}

func TestSanityRoll(t *testing.T) {
	env := newTestEnv(t, 2, 40, 99)

	rec := env.do(t, http.MethodPost, "/rolls/sanity", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("sanity status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decodeJSON[sanityRollResponse](t, rec); got.Draw != 2 || got.Outcome != "critical" || got.Label != "Critical Success" || got.Severity != "success" {
		t.Fatalf("critical sanity = %+v", got)
	}

	rec = env.do(t, http.MethodPost, "/rolls/sanity", "", false)
	if got := decodeJSON[sanityRollResponse](t, rec); got.Draw != 40 || got.Outcome != "" || got.Label != "" || got.Severity != "secondary" {
		t.Fatalf("plain sanity = %+v", got)
	}

	rec = env.do(t, http.MethodPost, "/rolls/sanity", "", true)
	body := rec.Body.String()
	if !strings.Contains(body, "alert-dark") || !strings.Contains(body, "99") || !strings.Contains(body, "Fumble") {
		t.Fatalf("sanity fragment = %q", body)
	}
	if rec.Header().Get(htmx.TriggerHeaderKey) != "" {
		t.Fatal("sanity rolls must not trigger a refresh")
	}
	entries, err := env.store.AllLogs(context.Background(), "")
	if err != nil {
		t.Fatalf("all logs: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("sanity rolls must not log, got %d entries", len(entries))
	}
}

func TestMassRollKeepsTeamOrder(t *testing.T) {
	env := newTestEnv(t, 1, 97, 50)
	env.put(t,
		member("inv-a", "Ada", "Alpha", 40, map[string]int{"listen": 70}),
		member("inv-b", "Bram", "Alpha", 80, map[string]int{"listen": 30}),
		member("inv-c", "Cora", "Alpha", 60, nil),
		member("inv-d", "Dell", "Beta", 90, map[string]int{"listen": 90}),
	)

	rec := env.do(t, http.MethodPost, "/teams/Alpha/mass-roll", `{"skill":"listen"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[massRollResponse](t, rec)
	if len(resp.Rows) != 3 || len(resp.Entries) != 3 || resp.BatchID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	wantOrder := []string{"Bram", "Cora", "Ada"}
	wantTargets := []int{30, 0, 70}
	wantOutcomes := []string{"critical", "fumble", "regular"}
	for i, row := range resp.Rows {
		if row.Name != wantOrder[i] || row.Target != wantTargets[i] || row.Roll.Outcome != wantOutcomes[i] {
			t.Fatalf("row %d = %+v", i, row)
		}
	}
	for _, entry := range resp.Entries {
		if entry.BatchID != resp.BatchID {
			t.Fatalf("entry batch = %q, want %q", entry.BatchID, resp.BatchID)
		}
	}
}

func TestMassRollEmptyTeamDoesNotTrigger(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/teams/Nobody/mass-roll", `{"skill":"listen"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(htmx.TriggerHeaderKey) != "" {
		t.Fatal("empty team must not trigger a refresh")
	}
	resp := decodeJSON[massRollResponse](t, rec)
	if len(resp.Rows) != 0 || resp.BatchID != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestMassRollUnknownSkill(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/teams/Alpha/mass-roll", `{"skill":"telepathy"}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeJSON[errorResponse](t, rec)
	if resp.Error.Code != "FIELD_UNKNOWN" || resp.Error.Message != "Unknown field telepathy." {
		t.Fatalf("error = %+v", resp.Error)
	}
}

func TestMassRollHTMXFragment(t *testing.T) {
	env := newTestEnv(t, 5)
	env.put(t, member("inv-a", "Ada", "Alpha", 40, map[string]int{"listen": 70}))
	rec := env.do(t, http.MethodPost, "/teams/Alpha/mass-roll", `{"skill":"listen","skill_label":"Listen"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `data-investigator-id="inv-a"`) || !strings.Contains(body, "5 / 70") {
		t.Fatalf("fragment = %q", body)
	}
}

func TestSaveAndGetInvestigator(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/investigators",
		`{"name":"Harvey Walters","team_name":"Beta","dex":65,"hp_current":8,"skills":{"Spot_Hidden":60}}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d body=%s", rec.Code, rec.Body.String())
	}
	saved := decodeJSON[investigatorResponse](t, rec)
	if !strings.HasPrefix(saved.ID, "inv") || saved.TeamName != "Beta" || saved.CardType != "player" {
		t.Fatalf("saved = %+v", saved)
	}
	if saved.Ratings["dex"] != 65 || saved.Ratings["hp_current"] != 8 || saved.Ratings["str"] != 50 {
		t.Fatalf("ratings = %+v", saved.Ratings)
	}
	if saved.Skills["spot_hidden"] != 60 {
		t.Fatalf("skills = %+v", saved.Skills)
	}

	rec = env.do(t, http.MethodGet, "/investigators/"+saved.ID, "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := decodeJSON[investigatorResponse](t, rec); got.Name != "Harvey Walters" {
		t.Fatalf("got = %+v", got)
	}

	rec = env.do(t, http.MethodPost, "/investigators", `{"name":"X","skills":{"telepathy":5}}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown skill status = %d", rec.Code)
	}
}

func TestTeamsRoster(t *testing.T) {
	env := newTestEnv(t)
	env.put(t,
		member("inv-a", "Ada", "Alpha", 40, nil),
		member("inv-b", "Bram", "Alpha", 80, nil),
		member("inv-d", "Dell", "Beta", 90, nil),
	)
	rec := env.do(t, http.MethodGet, "/teams", "", false)
	resp := decodeJSON[teamsResponse](t, rec)
	if len(resp.Teams) != 2 || resp.Teams[0].Name != "Alpha" || resp.Teams[1].Name != "Beta" {
		t.Fatalf("teams = %+v", resp.Teams)
	}
	if resp.Teams[0].Members[0].Name != "Bram" || resp.Teams[0].Members[1].Name != "Ada" {
		t.Fatalf("alpha order = %+v", resp.Teams[0].Members)
	}
}

func TestResourceDeltaAndLookup(t *testing.T) {
	env := newTestEnv(t)
	rec := member("inv-a", "Ada", "Alpha", 40, nil)
	rec.HPCurrent = 10
	env.put(t, rec)

	resp := env.do(t, http.MethodPost, "/investigators/inv-a/resources", `{"field":"hp_current","delta":-5}`, false)
	if resp.Code != http.StatusOK {
		t.Fatalf("delta status = %d body=%s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get(htmx.TriggerHeaderKey) != "newDiceRoll" {
		t.Fatal("expected trigger header")
	}
	delta := decodeJSON[resourceDeltaResponse](t, resp)
	if !delta.Found || delta.Value != 5 || delta.Entry == nil || delta.Entry.Result != "HP:5 MP:10 SAN:50" {
		t.Fatalf("delta = %+v", delta)
	}

	resp = env.do(t, http.MethodGet, "/investigators/inv-a/fields/hp_current", "", false)
	if got := decodeJSON[fieldResponse](t, resp); got.Value != 5 {
		t.Fatalf("lookup = %+v", got)
	}

	resp = env.do(t, http.MethodPost, "/investigators/inv-a/resources", `{"field":"san_current","delta":-3}`, true)
	if resp.Code != http.StatusOK || resp.Body.String() != "47" {
		t.Fatalf("htmx delta = %d %q", resp.Code, resp.Body.String())
	}
}

func TestResourceDeltaOverflowWraps(t *testing.T) {
	env := newTestEnv(t)
	rec := member("inv-a", "Ada", "Alpha", 40, nil)
	rec.HPCurrent = 10
	env.put(t, rec)

	resp := env.do(t, http.MethodPost, "/investigators/inv-a/resources", `{"field":"hp_current","delta":9223372036854775807}`, false)
	if resp.Code != http.StatusOK {
		t.Fatalf("delta status = %d body=%s", resp.Code, resp.Body.String())
	}
	if got := decodeJSON[resourceDeltaResponse](t, resp); !got.Found || got.Value != math.MinInt64+9 {
		t.Fatalf("delta = %+v", got)
	}
}

func TestResourceDeltaMissingInvestigator(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/investigators/ghost/resources", `{"field":"hp_current","delta":-1}`, false)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d", resp.Code)
	}
	if got := decodeJSON[resourceDeltaResponse](t, resp); got.Found || got.Field != "hp_current" {
		t.Fatalf("delta = %+v", got)
	}
	if resp.Header().Get(htmx.TriggerHeaderKey) != "" {
		t.Fatal("missing investigator must not trigger a refresh")
	}
	entries, err := env.store.AllLogs(context.Background(), "")
	if err != nil {
		t.Fatalf("all logs: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no log entries, got %d", len(entries))
	}
}

func TestResourceDeltaRejectsNonResource(t *testing.T) {
	env := newTestEnv(t)
	env.put(t, member("inv-a", "Ada", "Alpha", 40, nil))
	resp := env.do(t, http.MethodPost, "/investigators/inv-a/resources", `{"field":"str","delta":1}`, false)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.Code)
	}
	if got := decodeJSON[errorResponse](t, resp); got.Error.Code != "FIELD_NOT_RESOURCE" {
		t.Fatalf("code = %q", got.Error.Code)
	}
}

func TestLatestLogsAndNotes(t *testing.T) {
	env := newTestEnv(t)
	for _, note := range []string{"first", "second", "third"} {
		rec := env.do(t, http.MethodPost, "/logs/notes", `{"note":"`+note+`"}`, false)
		if rec.Code != http.StatusOK {
			t.Fatalf("note status = %d body=%s", rec.Code, rec.Body.String())
		}
	}

	rec := env.do(t, http.MethodGet, "/logs?limit=2", "", false)
	resp := decodeJSON[logsResponse](t, rec)
	if len(resp.Entries) != 2 || resp.Entries[0].Action != "third" || resp.Entries[1].Action != "second" {
		t.Fatalf("latest = %+v", resp.Entries)
	}
	if resp.Entries[0].Actor != "KP" || resp.Entries[0].Severity != "secondary" {
		t.Fatalf("note entry = %+v", resp.Entries[0])
	}

	again := decodeJSON[logsResponse](t, env.do(t, http.MethodGet, "/logs?limit=2", "", false))
	if len(again.Entries) != 2 || again.Entries[0].ID != resp.Entries[0].ID || again.Entries[1].ID != resp.Entries[1].ID {
		t.Fatalf("repeated read differs: %+v vs %+v", again.Entries, resp.Entries)
	}

	filtered := decodeJSON[logsResponse](t, env.do(t, http.MethodGet, `/logs?filter=action%20%3D%20%22first%22`, "", false))
	if len(filtered.Entries) != 1 || filtered.Entries[0].Action != "first" {
		t.Fatalf("filtered = %+v", filtered.Entries)
	}

	for _, target := range []string{"/logs?limit=0", "/logs?limit=abc", "/logs?filter=%28%28"} {
		if code := env.do(t, http.MethodGet, target, "", false).Code; code != http.StatusBadRequest {
			t.Fatalf("%s status = %d", target, code)
		}
	}
}

func TestNotesHTMXReturnsLogList(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/logs/notes", `{"actor":"Keeper","note":"door creaks"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="log-list"`) || !strings.Contains(body, "door creaks") {
		t.Fatalf("fragment = %q", body)
	}

	rec = env.do(t, http.MethodPost, "/logs/notes", `{"note":"  "}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty note status = %d", rec.Code)
	}
}
