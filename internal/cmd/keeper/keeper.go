// Package keeper parses keeper command flags and launches the keeper runtime.
package keeper

import (
	"context"
	"flag"

	entrypoint "github.com/keeperdesk/keeperdesk/internal/platform/cmd"
	keeperapp "github.com/keeperdesk/keeperdesk/internal/services/keeper/app"
)

// Config holds keeper command configuration.
type Config struct {
	HTTPAddr    string `env:"KEEPERDESK_KEEPER_HTTP_ADDR" envDefault:":8095"`
	DBPath      string `env:"KEEPERDESK_KEEPER_DB_PATH" envDefault:"data/keeper.db"`
	LogLocale   string `env:"KEEPERDESK_KEEPER_LOG_LOCALE" envDefault:"en-US"`
	LatestLimit int    `env:"KEEPERDESK_KEEPER_LATEST_LIMIT" envDefault:"40"`
	FeedBacklog int    `env:"KEEPERDESK_KEEPER_FEED_BACKLOG" envDefault:"20"`
	Seed        int64  `env:"KEEPERDESK_KEEPER_SEED" envDefault:"0"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The keeper HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The keeper SQLite database path")
	fs.StringVar(&cfg.LogLocale, "log-locale", cfg.LogLocale, "Language of the labels written into the session log")
	fs.IntVar(&cfg.LatestLimit, "latest-limit", cfg.LatestLimit, "Default number of entries returned by GET /logs")
	fs.IntVar(&cfg.FeedBacklog, "feed-backlog", cfg.FeedBacklog, "Recent entries sent to a new live-feed viewer")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Fixed dice seed (0 draws a random seed)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the keeper runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceKeeper, func(ctx context.Context) error {
		return keeperapp.Run(ctx, keeperapp.RuntimeConfig{
			HTTPAddr:    cfg.HTTPAddr,
			DBPath:      cfg.DBPath,
			LogLocale:   cfg.LogLocale,
			LatestLimit: cfg.LatestLimit,
			FeedBacklog: cfg.FeedBacklog,
			Seed:        cfg.Seed,
		})
	})
}
