// Package app assembles the keeper desk process: SQLite storage, the dice
// source, the live feed and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/keeperdesk/keeperdesk/internal/platform/i18n/catalog"
	"github.com/keeperdesk/keeperdesk/internal/platform/timeouts"
	"github.com/keeperdesk/keeperdesk/internal/random"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/core/dice"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/feed"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/service"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage/sqlite"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/transport/httpapi"
)

const (
	defaultHTTPAddr = ":8095"
	defaultDBPath   = "data/keeper.db"
)

// RuntimeConfig controls keeper startup.
type RuntimeConfig struct {
	HTTPAddr string
	DBPath   string
	// LogLocale selects the language written into log entries.
	LogLocale   string
	LatestLimit int
	FeedBacklog int
	// Seed fixes the dice sequence; 0 draws a fresh seed.
	Seed            int64
	ShutdownTimeout time.Duration
}

func (cfg RuntimeConfig) normalized() RuntimeConfig {
	cfg.HTTPAddr = strings.TrimSpace(cfg.HTTPAddr)
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	cfg.LogLocale = strings.TrimSpace(cfg.LogLocale)
	if cfg.LogLocale == "" {
		cfg.LogLocale = catalog.BaseLocale
	}
	if cfg.LatestLimit <= 0 {
		cfg.LatestLimit = httpapi.DefaultLatestLimit
	}
	if cfg.FeedBacklog < 0 {
		cfg.FeedBacklog = httpapi.DefaultFeedBacklog
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = timeouts.Shutdown
	}
	return cfg
}

// Server hosts the keeper HTTP process and owns its store and feed.
type Server struct {
	listener        net.Listener
	shutdownTimeout time.Duration
	httpServer      *http.Server
	store           *sqlite.Store
	feed            *feed.Hub
}

// NewServer opens storage and binds the listen address.
func NewServer(cfg RuntimeConfig) (*Server, error) {
	cfg = cfg.normalized()
	if !catalog.Default().HasLocale(cfg.LogLocale) {
		return nil, fmt.Errorf("unsupported log locale %q", cfg.LogLocale)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create keeper storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open keeper sqlite store: %w", err)
	}

	seed, err := random.SeedOrNew(cfg.Seed)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed dice: %w", err)
	}
	hub := feed.NewHub(feed.DefaultBuffer)
	svc, err := service.New(service.Config{
		Investigators: store,
		Logs:          store,
		Dice:          dice.NewSource(seed),
		Feed:          hub,
		Locale:        cfg.LogLocale,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	handler, err := httpapi.NewHandler(httpapi.Config{
		Service:     svc,
		Feed:        hub,
		Locale:      cfg.LogLocale,
		LatestLimit: cfg.LatestLimit,
		FeedBacklog: cfg.FeedBacklog,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	return &Server{
		listener:        listener,
		shutdownTimeout: cfg.ShutdownTimeout,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		store: store,
		feed:  hub,
	}, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ListenAndServe serves HTTP until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("keeper server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("keeper server listening on %s", s.Addr())
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		// Feed viewers hold hijacked connections that Shutdown does not wait
		// for; closing the hub ends them.
		s.feed.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases the feed and the store.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.feed != nil {
		s.feed.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close keeper sqlite store: %v", err)
		}
	}
}

// Run starts the keeper server and blocks until ctx is canceled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	server, err := NewServer(cfg)
	if err != nil {
		return err
	}
	defer server.Close()
	return server.ListenAndServe(ctx)
}
