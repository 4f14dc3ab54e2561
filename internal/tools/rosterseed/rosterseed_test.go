package rosterseed

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage/sqlite"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("rosterseed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-base-skills"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/keeper.db" || !cfg.BaseSkills || cfg.File != "" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParseRosterDemo(t *testing.T) {
	recs, err := ParseRoster(demoRoster, false)
	if err != nil {
		t.Fatalf("parse demo roster: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("demo investigators = %d, want 4", len(recs))
	}
	harvey := recs[0]
	if harvey.ID != "inv_harvey" || harvey.DEX != 55 || harvey.EDU != 85 || harvey.Skill("library_use") != 70 {
		t.Fatalf("harvey = %+v", harvey)
	}
	if recs[3].CardType != "npc" || recs[3].TeamName != "Keeper" {
		t.Fatalf("warden = %+v", recs[3])
	}
}

func TestParseRosterBaseSkills(t *testing.T) {
	recs, err := ParseRoster(demoRoster, true)
	if err != nil {
		t.Fatalf("parse demo roster: %v", err)
	}
	if recs[0].Skill("dodge") != 25 || recs[0].Skill("spot_hidden") != 60 {
		t.Fatalf("skills = %+v", recs[0].Skills)
	}
}

func TestParseRosterRejectsBadCards(t *testing.T) {
	tcs := map[string]string{
		"empty":          "investigators: []\n",
		"malformed":      "investigators: [\n",
		"missing id":     "investigators:\n  - name: A\n",
		"duplicate id":   "investigators:\n  - {id: a, name: A}\n  - {id: a, name: B}\n",
		"unknown value":  "investigators:\n  - {id: a, name: A, values: {sanity: 3}}\n",
		"skill as value": "investigators:\n  - {id: a, name: A, values: {listen: 3}}\n",
		"unknown skill":  "investigators:\n  - {id: a, name: A, skills: {telepathy: 3}}\n",
		"blank name":     "investigators:\n  - {id: a, name: \" \"}\n",
	}
	for name, doc := range tcs {
		if _, err := ParseRoster([]byte(doc), false); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRunSeedsStoreIdempotently(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "keeper.db")
	var out bytes.Buffer
	for i := 0; i < 2; i++ {
		if err := Run(context.Background(), Config{DBPath: dbPath}, &out); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if !strings.Contains(out.String(), "seeded 4 investigators") {
		t.Fatalf("output = %q", out.String())
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	all, err := store.ListInvestigators(context.Background())
	if err != nil {
		t.Fatalf("list investigators: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("investigators = %d, want 4", len(all))
	}
	alpha, err := store.ListTeam(context.Background(), "Alpha")
	if err != nil {
		t.Fatalf("list team: %v", err)
	}
	if len(alpha) != 2 || alpha[0].Name != "Lucia Ortiz" {
		t.Fatalf("alpha order = %+v", alpha)
	}
}

func TestRunFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "party.yaml")
	if err := os.WriteFile(file, []byte("investigators:\n  - {id: x1, name: Xu, team: Gamma, skills: {Listen: 44}}\n"), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	dbPath := filepath.Join(dir, "keeper.db")
	if err := Run(context.Background(), Config{DBPath: dbPath, File: file}, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	rec, err := store.GetInvestigator(context.Background(), "x1")
	if err != nil {
		t.Fatalf("get investigator: %v", err)
	}
	if rec.TeamName != "Gamma" || rec.Skill("listen") != 44 {
		t.Fatalf("rec = %+v", rec)
	}

	if err := Run(context.Background(), Config{DBPath: dbPath, File: filepath.Join(dir, "missing.yaml")}, nil); err == nil {
		t.Fatal("expected error for missing roster file")
	}
	if err := Run(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error for blank db path")
	}
}
