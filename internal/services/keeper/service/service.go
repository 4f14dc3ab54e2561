// Package service implements the keeper operations: checks, team secret
// rolls, resource adjustments and the session log.
//
// Every operation that produces a log entry returns only after the entry is
// committed; committed entries are then published to the live feed.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/keeperdesk/keeperdesk/internal/platform/i18n/catalog"
	"github.com/keeperdesk/keeperdesk/internal/platform/id"
	"github.com/keeperdesk/keeperdesk/internal/platform/timeouts"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/core/dice"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage"
	"golang.org/x/text/message"
)

// Publisher receives entries after they are committed.
type Publisher interface {
	Publish(entries ...auditlog.Entry)
}

// Config wires a Service.
type Config struct {
	Investigators storage.InvestigatorStore
	Logs          storage.LogStore
	Dice          dice.Source
	// Feed is optional.
	Feed Publisher
	// Locale selects the language of log labels. Defaults to the base locale.
	Locale string
	// NewBatchID is optional; it defaults to a prefixed random id.
	NewBatchID func() (string, error)
}

// Service is safe for concurrent use.
type Service struct {
	investigators storage.InvestigatorStore
	logs          storage.LogStore
	dice          dice.Source
	feed          Publisher
	printer       *message.Printer
	newBatchID    func() (string, error)
}

// New validates cfg and builds a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Investigators == nil {
		return nil, errors.New("investigator store is required")
	}
	if cfg.Logs == nil {
		return nil, errors.New("log store is required")
	}
	if cfg.Dice == nil {
		return nil, errors.New("dice source is required")
	}
	locale := strings.TrimSpace(cfg.Locale)
	if locale == "" {
		locale = catalog.BaseLocale
	}
	newBatchID := cfg.NewBatchID
	if newBatchID == nil {
		newBatchID = func() (string, error) { return id.NewPrefixed("batch") }
	}
	return &Service{
		investigators: cfg.Investigators,
		logs:          cfg.Logs,
		dice:          cfg.Dice,
		feed:          cfg.Feed,
		printer:       catalog.Default().Printer(locale),
		newBatchID:    newBatchID,
	}, nil
}

func (s *Service) label(key string, args ...any) string {
	return s.printer.Sprintf(key, args...)
}

func (s *Service) publish(entries ...auditlog.Entry) {
	if s.feed == nil || len(entries) == 0 {
		return
	}
	s.feed.Publish(entries...)
}

// writeContext bounds one durable write.
func writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeouts.StoreWrite)
}

func actorOr(actor string, fallback string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return fallback
	}
	return actor
}
