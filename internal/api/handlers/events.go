package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/duallens/analytics/internal/refresh"
	"github.com/duallens/analytics/pkg/logger"
)

const writeWait = 10 * time.Second

// EventsHandler streams refresh events over a websocket
type EventsHandler struct {
	hub      *refresh.Hub
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *refresh.Hub, log *logger.Logger) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from another origin in development
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Stream upgrades the connection and forwards refresh events until the
// client disconnects
// GET /ws/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	events := h.hub.Subscribe()
	defer h.hub.Unsubscribe(events)

	// Drain client frames so close messages are processed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
