package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/midway/internal/adapters/nats"
	"github.com/samirrijal/midway/internal/pkg/metrics"
)

// wsEvent is what clients receive on /ws/sessions/:id.
type wsEvent struct {
	Type    string          `json:"type"` // "snapshot" | "resolved" | "error"
	Session any             `json:"session,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SessionRelayHandler streams the meeting points resolved for one session.
// The client first gets the current snapshot, then every new result
// published on the session's subject, in publish order.
func SessionRelayHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID := c.Params("id")
		log := slog.Default().With("session_id", sessionID, "remote", c.RemoteAddr().String())

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		sess, err := deps.Sessions.Get(sessionID)
		if err != nil {
			_ = writeJSON(wsEvent{Type: "error", Error: err.Error()})
			return
		}
		if err := writeJSON(wsEvent{Type: "snapshot", Session: sess}); err != nil {
			return
		}

		if deps.NATS == nil {
			_ = writeJSON(wsEvent{Type: "error", Error: "live updates unavailable"})
			return
		}
		sub, err := deps.NATS.Subscribe(natsadapter.SessionSubject(sessionID), func(msg *nats.Msg) {
			_ = writeJSON(wsEvent{Type: "resolved", Result: json.RawMessage(msg.Data)})
		})
		if err != nil {
			log.Warn("ws subscribe failed", "error", err)
			_ = writeJSON(wsEvent{Type: "error", Error: "subscribe failed"})
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		log.Debug("ws client connected")

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// The relay is one-way; reading only detects the close.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		log.Debug("ws client disconnected")
	}
}
