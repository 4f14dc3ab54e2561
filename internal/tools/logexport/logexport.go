// Package logexport dumps the keeper session log from a SQLite file.
package logexport

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	entrypoint "github.com/keeperdesk/keeperdesk/internal/platform/cmd"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/export"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage/sqlite"
)

// Config holds configuration for a log export.
type Config struct {
	DBPath   string `env:"KEEPERDESK_KEEPER_DB_PATH" envDefault:"data/keeper.db"`
	Output   string
	Filter   string
	Compress string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.DBPath, "db-path", "", "The keeper SQLite database path (default: $KEEPERDESK_KEEPER_DB_PATH or data/keeper.db)")
	fs.StringVar(&cfg.Output, "out", "", "Output file (default: stdout)")
	fs.StringVar(&cfg.Filter, "filter", "", "Log filter, e.g. severity = \"danger\"")
	fs.StringVar(&cfg.Compress, "compress", "", "Compression: none or zstd")
	// Env fills the defaults first; only flags given on the command line
	// override them.
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run writes every matching entry, newest first, to out or to cfg.Output.
func Run(ctx context.Context, cfg Config, out io.Writer) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	dbPath := strings.TrimSpace(cfg.DBPath)
	if dbPath == "" {
		return errors.New("db path is required")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("stat database: %w", err)
	}
	compression, err := export.ParseCompression(cfg.Compress)
	if err != nil {
		return err
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

	entries, err := store.AllLogs(ctx, cfg.Filter)
	if err != nil {
		return fmt.Errorf("load log: %w", err)
	}

	if output := strings.TrimSpace(cfg.Output); output != "" {
		return writeFile(output, entries, compression)
	}
	if out == nil {
		return errors.New("output is required")
	}
	return writeExport(out, entries, compression)
}

// writeExport is swapped in tests to simulate a failing write.
var writeExport = export.Write

// writeFile writes to a temporary file next to path and renames it into
// place, so a failed export never leaves a truncated file behind.
func writeFile(path string, entries []auditlog.Entry, compression export.Compression) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err := writeExport(tmp, entries, compression); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}
