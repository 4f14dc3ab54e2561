// Package rosterseed loads investigator rosters from YAML into the keeper
// store.
package rosterseed

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	entrypoint "github.com/keeperdesk/keeperdesk/internal/platform/cmd"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/investigator"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage/sqlite"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoRoster []byte

// Config holds configuration for a roster seed.
type Config struct {
	DBPath string `env:"KEEPERDESK_KEEPER_DB_PATH" envDefault:"data/keeper.db"`
	// File is a roster YAML path; empty seeds the built-in demo party.
	File       string
	BaseSkills bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.DBPath, "db-path", "", "The keeper SQLite database path (default: $KEEPERDESK_KEEPER_DB_PATH or data/keeper.db)")
	fs.StringVar(&cfg.File, "file", "", "Roster YAML file (default: built-in demo party)")
	fs.BoolVar(&cfg.BaseSkills, "base-skills", false, "Fill skills missing from a card with their base values")
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type rosterFile struct {
	Investigators []rosterCard `yaml:"investigators"`
}

type rosterCard struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	PlayerName string         `yaml:"player_name"`
	Occupation string         `yaml:"occupation"`
	Team       string         `yaml:"team"`
	CardType   string         `yaml:"card_type"`
	Age        int            `yaml:"age"`
	Values     map[string]int `yaml:"values"`
	Skills     map[string]int `yaml:"skills"`
}

// ParseRoster decodes and validates a roster. Every card needs an id so
// reseeding replaces rather than duplicates.
func ParseRoster(data []byte, baseSkills bool) ([]investigator.Investigator, error) {
	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(file.Investigators) == 0 {
		return nil, errors.New("roster has no investigators")
	}
	seen := map[string]struct{}{}
	out := make([]investigator.Investigator, 0, len(file.Investigators))
	for i, card := range file.Investigators {
		rec, err := card.record()
		if err != nil {
			return nil, fmt.Errorf("investigator %d: %w", i, err)
		}
		if rec.ID == "" {
			return nil, fmt.Errorf("investigator %d: id is required", i)
		}
		if _, ok := seen[rec.ID]; ok {
			return nil, fmt.Errorf("investigator %d: duplicate id %q", i, rec.ID)
		}
		seen[rec.ID] = struct{}{}
		if baseSkills {
			rec = investigator.DefaultSkills().WithBaseSkills(rec)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (card rosterCard) record() (investigator.Investigator, error) {
	rec := investigator.New(card.Name)
	rec.ID = card.ID
	rec.PlayerName = card.PlayerName
	rec.Occupation = card.Occupation
	rec.TeamName = card.Team
	rec.CardType = investigator.CardType(card.CardType)
	if card.Age > 0 {
		rec.Age = card.Age
	}
	for name, value := range card.Values {
		field, err := investigator.Lookup(name)
		if err != nil {
			return investigator.Investigator{}, err
		}
		if field.IsSkill() {
			return investigator.Investigator{}, fmt.Errorf("%s is a skill; list it under skills", field.Name)
		}
		field.Set(&rec, value)
	}
	for key, value := range card.Skills {
		rec.Skills[strings.ToLower(strings.TrimSpace(key))] = value
	}
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return investigator.Investigator{}, err
	}
	return rec, nil
}

// Run seeds the roster and reports how many cards were written.
func Run(ctx context.Context, cfg Config, out io.Writer) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}
	dbPath := strings.TrimSpace(cfg.DBPath)
	if dbPath == "" {
		return errors.New("db path is required")
	}

	data := demoRoster
	if file := strings.TrimSpace(cfg.File); file != "" {
		data, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read roster: %w", err)
		}
	}
	recs, err := ParseRoster(data, cfg.BaseSkills)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create keeper storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open keeper sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close keeper sqlite store: %w", closeErr)
		}
	}()

	for _, rec := range recs {
		if err := store.PutInvestigator(ctx, rec); err != nil {
			return fmt.Errorf("put investigator %s: %w", rec.ID, err)
		}
		fmt.Fprintf(out, "seeded %s (%s, team %s)\n", rec.ID, rec.Name, rec.TeamName)
	}
	fmt.Fprintf(out, "seeded %d investigators into %s\n", len(recs), dbPath)
	return nil
}
