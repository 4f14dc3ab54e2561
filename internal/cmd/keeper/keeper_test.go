package keeper

import (
	"flag"
	"testing"
)

func TestParseConfig_ParsesDefaults(t *testing.T) {
	fs := flag.NewFlagSet("keeper", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8095" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, ":8095")
	}
	if cfg.DBPath != "data/keeper.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/keeper.db")
	}
	if cfg.LogLocale != "en-US" || cfg.LatestLimit != 40 || cfg.FeedBacklog != 20 || cfg.Seed != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseConfig_ParsesEnvAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("keeper", flag.ContinueOnError)
	t.Setenv("KEEPERDESK_KEEPER_HTTP_ADDR", ":9100")
	t.Setenv("KEEPERDESK_KEEPER_LOG_LOCALE", "zh-CN")
	t.Setenv("KEEPERDESK_KEEPER_SEED", "7")

	cfg, err := ParseConfig(fs, []string{"-db-path", "/tmp/desk.db", "-latest-limit", "10"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":9100" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, ":9100")
	}
	if cfg.LogLocale != "zh-CN" {
		t.Fatalf("log locale = %q, want %q", cfg.LogLocale, "zh-CN")
	}
	if cfg.Seed != 7 {
		t.Fatalf("seed = %d, want 7", cfg.Seed)
	}
	if cfg.DBPath != "/tmp/desk.db" || cfg.LatestLimit != 10 {
		t.Fatalf("flag overrides not applied: %+v", cfg)
	}
}

func TestParseConfig_RejectsBadEnv(t *testing.T) {
	fs := flag.NewFlagSet("keeper", flag.ContinueOnError)
	t.Setenv("KEEPERDESK_KEEPER_LATEST_LIMIT", "many")

	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected env parse error")
	}
}
