package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/thumbstick/internal/log"
	"github.com/ayusman/thumbstick/internal/signal"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool, any page may connect
	},
}

type vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SignalMessage is the wire form of a signal snapshot.
type SignalMessage struct {
	Direction vector  `json:"direction"`
	Magnitude float64 `json:"magnitude"`
	Active    bool    `json:"active"`
	Timestamp int64   `json:"timestamp"`
}

// NewSignalMessage converts s taken at ts.
func NewSignalMessage(s signal.Signal, ts time.Time) SignalMessage {
	return SignalMessage{
		Direction: vector{X: s.Direction.X, Y: s.Direction.Y, Z: s.Direction.Z},
		Magnitude: s.Magnitude,
		Active:    s.Active,
		Timestamp: ts.UnixMilli(),
	}
}

// SignalStream polls a provider every tick and broadcasts the snapshot to
// every connected WebSocket client.
type SignalStream struct {
	provider SignalProvider
	tick     time.Duration
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

// NewSignalStream returns a stream over provider. Call Run to start
// broadcasting.
func NewSignalStream(provider SignalProvider, tick time.Duration) *SignalStream {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &SignalStream{
		provider: provider,
		tick:     tick,
		logger:   log.With("component", "signal-stream"),
		clients:  make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects.
func (h *SignalStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Clients returns the number of connected clients.
func (h *SignalStream) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run broadcasts until ctx is cancelled.
func (h *SignalStream) Run(ctx context.Context) {
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.Broadcast(now)
		}
	}
}

// Broadcast sends one snapshot to every client.
func (h *SignalStream) Broadcast(now time.Time) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(NewSignalMessage(h.provider.Signal(), now))
	if err != nil {
		h.logger.Error("encoding signal", "error", err)
		return
	}

	for conn := range h.clients {
		conn.SetWriteDeadline(now.Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("websocket write", "error", err)
			conn.Close()
		}
	}
}
