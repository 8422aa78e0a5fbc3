package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-report-service/internal/events"
)

// WSHandler streams live report events to connected clients. The stream
// is best-effort; clients reconcile through the list endpoint.
type WSHandler struct {
	broadcaster events.Broadcaster
	logger      *zap.Logger
}

// NewWSHandler constructs handler.
func NewWSHandler(broadcaster events.Broadcaster, logger *zap.Logger) *WSHandler {
	return &WSHandler{broadcaster: broadcaster, logger: logger}
}

// Upgrade rejects plain HTTP requests to the websocket route.
func (h *WSHandler) Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Stream subscribes the connection to the broadcaster and writes each
// event as JSON until the client disconnects.
func (h *WSHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ch, leave := h.broadcaster.Subscribe()
		defer leave()

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
			case event, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(event); err != nil {
					h.logger.Debug("websocket write failed", zap.Error(err))
					return
				}
			}
		}
	})
}
