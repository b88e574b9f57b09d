package server

import (
	"net/http"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// telemetryWriteTimeout bounds a single websocket write.
const telemetryWriteTimeout = 2 * time.Second

// TelemetryHandler pushes the published demo state to WebSocket clients.
type TelemetryHandler struct {
	hub *Hub
	log logs.Log
}

// NewTelemetryHandler creates a new TelemetryHandler reading from hub.
func NewTelemetryHandler(hub *Hub, log logs.Log) *TelemetryHandler {
	return &TelemetryHandler{hub: hub, log: log}
}

// ServeHTTP upgrades the request and sends the state JSON after every publish.
func (h *TelemetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("Telemetry websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	// Drain client messages so close frames are noticed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var sent uint64
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-updates:
		}

		_, state, seq := h.hub.Latest()
		if len(state) == 0 || seq == sent {
			continue
		}
		sent = seq

		conn.SetWriteDeadline(time.Now().Add(telemetryWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, state); err != nil {
			return
		}
	}
}
