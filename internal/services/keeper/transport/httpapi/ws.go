package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/keeperdesk/keeperdesk/internal/platform/timeouts"
	"golang.org/x/net/websocket"
)

const (
	frameTypeBacklog = "backlog"
	frameTypeLog     = "log"
	frameTypeError   = "error"
)

type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsPeer struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	encoder *json.Encoder
}

func newWSPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{conn: conn, encoder: json.NewEncoder(conn)}
}

func (p *wsPeer) writeFrame(frameType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(timeouts.FeedWrite))
	return p.encoder.Encode(wsFrame{Type: frameType, Payload: data})
}

// serveFeed sends the recent backlog, oldest first, then every entry
// committed while the viewer stays connected. Entries already covered by the
// backlog are not repeated.
func (h *handler) serveFeed(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()
	peer := newWSPeer(conn)

	// Subscribe before reading the backlog so nothing committed in between
	// is lost.
	sub := h.feed.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithCancel(conn.Request().Context())
	defer cancel()
	go func() {
		defer cancel()
		// Viewers only listen; reading detects the close.
		_, _ = io.Copy(io.Discard, conn)
	}()

	sent := map[int64]struct{}{}
	if h.feedBacklog > 0 {
		entries, err := h.svc.FetchLatestLog(ctx, h.feedBacklog, "")
		if err != nil {
			log.Printf("keeper feed: load backlog: %v", err)
			_ = peer.writeFrame(frameTypeError, errorBody{Code: "UNKNOWN", Message: "backlog unavailable"})
			return
		}
		backlog := make([]entryResponse, 0, len(entries))
		for i := len(entries) - 1; i >= 0; i-- {
			backlog = append(backlog, newEntryResponse(entries[i]))
			sent[entries[i].ID] = struct{}{}
		}
		if err := peer.writeFrame(frameTypeBacklog, logsResponse{Entries: backlog}); err != nil {
			return
		}
	} else if err := peer.writeFrame(frameTypeBacklog, logsResponse{Entries: []entryResponse{}}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-sub.Events():
			if !ok {
				return
			}
			if _, ok := sent[entry.ID]; ok {
				delete(sent, entry.ID)
				continue
			}
			if err := peer.writeFrame(frameTypeLog, newEntryResponse(entry)); err != nil {
				log.Printf("keeper feed: write log %d: %v", entry.ID, err)
				return
			}
		}
	}
}
