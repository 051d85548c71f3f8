package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/histpatch/backend/internal/diagnostic"
	"github.com/histpatch/backend/pkg/logger"
)

// WebSocketHandler streams diagnostics with the staged "scanning" status
// lines the terminal UI plays before the result. The pacing is fixed
// sleeps between status frames; the provider is still called exactly once.
type WebSocketHandler struct {
	service   *diagnostic.Service
	scanDelay time.Duration
}

func NewWebSocketHandler(service *diagnostic.Service, scanDelayMS int) *WebSocketHandler {
	return &WebSocketHandler{
		service:   service,
		scanDelay: time.Duration(scanDelayMS) * time.Millisecond,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type   string `json:"type"`
			Prompt string `json:"prompt"`
			UserID string `json:"user_id"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "diagnostic" || msg.Prompt == "" {
			continue
		}

		if err := h.streamDiagnostic(c, msg.Prompt, msg.UserID); err != nil {
			logger.Error("Failed to stream diagnostic", zap.Error(err))
			h.send(c, map[string]interface{}{
				"type":  "error",
				"error": "DIAGNOSTIC ERROR: signal lost. Re-submit to retry.",
			})
		}
	}
}

func (h *WebSocketHandler) streamDiagnostic(c *websocket.Conn, prompt, userID string) error {
	for _, stage := range diagnostic.ScanStages {
		if err := h.send(c, map[string]interface{}{
			"type":    "status",
			"content": stage,
		}); err != nil {
			return err
		}
		time.Sleep(h.scanDelay)
	}

	resp, err := h.service.Run(context.Background(), prompt, userID)
	if err != nil {
		return err
	}

	words := strings.Fields(resp.Text)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := h.send(c, map[string]interface{}{
			"type":    "chunk",
			"content": chunk,
		}); err != nil {
			return err
		}
	}

	return h.send(c, map[string]interface{}{
		"type":          "complete",
		"diagnostic_id": resp.ID,
		"cached":        resp.Cached,
	})
}

func (h *WebSocketHandler) send(c *websocket.Conn, msg map[string]interface{}) error {
	return c.WriteJSON(msg)
}
