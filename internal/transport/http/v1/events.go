package v1

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmulondo/sema-core/internal/domain"
)

// BroadcastEvent pushes an event onto the bus.
// POST /v1/events/broadcast
func (h *Handler) BroadcastEvent(c echo.Context) error {
	var event domain.RealtimeEvent
	if err := c.Bind(&event); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if event.Type == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "type is required"})
	}

	h.hub.Broadcast(event)
	return c.JSON(http.StatusAccepted, map[string]string{"status": "broadcast"})
}

// EventHistory returns recent events, newest first.
// GET /v1/events/history?user_id=&session_id=&limit=
func (h *Handler) EventHistory(c echo.Context) error {
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	events := h.hub.EventHistory(c.QueryParam("user_id"), c.QueryParam("session_id"), limit)
	return c.JSON(http.StatusOK, map[string]any{"events": events})
}

// StreamEvents opens a long-lived SSE stream filtered to the caller's
// user or session. Every frame is `data: <json>\n\n`; the first frame is
// the connection handshake. The subscription is deregistered before the
// handler returns, so no event is delivered after teardown.
// GET /v1/events/stream?user_id=&session_id=
func (h *Handler) StreamEvents(c echo.Context) error {
	userID := c.QueryParam("user_id")
	sessionID := c.QueryParam("session_id")
	if userID == "" && sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id or session_id is required"})
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	if err := writeSSEFrame(c, map[string]any{
		"type":      "connection_established",
		"timestamp": time.Now().UTC(),
		"userId":    userID,
		"sessionId": sessionID,
	}); err != nil {
		return err
	}

	sub := h.hub.Subscribe(userID, sessionID)
	defer sub.Close()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			// Client disconnected.
			return nil
		case event, ok := <-sub.Events():
			if !ok {
				// Hub shut down.
				return nil
			}
			if err := writeSSEFrame(c, event); err != nil {
				log.Printf("ERROR: failed to write SSE frame: %v", err)
				return nil
			}
		}
	}
}

// writeSSEFrame serializes v and writes one `data: <json>\n\n` frame.
func writeSSEFrame(c echo.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE frame: %w", err)
	}
	if _, err := fmt.Fprintf(c.Response().Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	if flusher, ok := c.Response().Writer.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
