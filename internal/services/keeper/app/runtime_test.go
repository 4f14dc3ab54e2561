package app

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRuntimeConfigNormalized(t *testing.T) {
	cfg := RuntimeConfig{FeedBacklog: -1}.normalized()
	if cfg.HTTPAddr != ":8095" || cfg.DBPath != "data/keeper.db" || cfg.LogLocale != "en-US" {
		t.Fatalf("normalized = %+v", cfg)
	}
	if cfg.LatestLimit != 40 || cfg.FeedBacklog != 20 || cfg.ShutdownTimeout <= 0 {
		t.Fatalf("normalized limits = %+v", cfg)
	}
}

func TestNewServerRejectsUnknownLocale(t *testing.T) {
	_, err := NewServer(RuntimeConfig{
		HTTPAddr:  "127.0.0.1:0",
		DBPath:    filepath.Join(t.TempDir(), "keeper.db"),
		LogLocale: "xx-YY",
	})
	if err == nil {
		t.Fatal("expected locale error")
	}
}

func TestServerServesUntilCanceled(t *testing.T) {
	server, err := NewServer(RuntimeConfig{
		HTTPAddr: "127.0.0.1:0",
		DBPath:   filepath.Join(t.TempDir(), "nested", "keeper.db"),
		Seed:     42,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.ListenAndServe(ctx)
	}()

	base := "http://" + server.Addr()
	resp, err := http.Get(base + "/up")
	if err != nil {
		t.Fatalf("get /up: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Fatalf("up = %d %q", resp.StatusCode, body)
	}

	resp, err = http.Post(base+"/rolls/custom", "application/json", strings.NewReader(`{"sides":20}`))
	if err != nil {
		t.Fatalf("post custom roll: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("custom roll status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("listen and serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestListenAndServeRequiresServer(t *testing.T) {
	var server *Server
	if err := server.ListenAndServe(context.Background()); err == nil {
		t.Fatal("expected error for nil server")
	}
}
