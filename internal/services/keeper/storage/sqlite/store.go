// Package sqlite provides the SQLite-backed keeper store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/keeperdesk/keeperdesk/internal/platform/storage/sqlitemigrate"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/investigator"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed investigator and session log persistence.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// dsnOptions uses the modernc _pragma form so every pooled connection gets
// the busy timeout, and write transactions start with BEGIN IMMEDIATE.
const dsnOptions = "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens a keeper SQLite store, applies migrations and checks that every
// column the investigator accessor table relies on exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + dsnOptions
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	ctx := context.Background()
	store := &Store{sqlDB: sqlDB, now: time.Now}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if err := checkInvestigatorSchema(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

func checkInvestigatorSchema(ctx context.Context, sqlDB *sql.DB) error {
	columns, err := sqlitemigrate.ColumnNames(ctx, sqlDB, "investigators")
	if err != nil {
		return fmt.Errorf("inspect investigators schema: %w", err)
	}
	if missing := investigator.MissingColumns(columns); len(missing) > 0 {
		return fmt.Errorf("investigators table is missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func (s *Store) timestamp() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

var (
	_ storage.InvestigatorStore = (*Store)(nil)
	_ storage.LogStore          = (*Store)(nil)
)
