package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// GetConversation returns the in-memory session ledger.
// GET /v1/conversations/:session_id
func (h *Handler) GetConversation(c echo.Context) error {
	sessionID := c.Param("session_id")

	conv, ok := h.service.GetConversation(sessionID)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
	}

	return c.JSON(http.StatusOK, conv)
}

// ActiveConversations lists active ledgers, most recently active first.
// GET /v1/conversations/active
func (h *Handler) ActiveConversations(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"conversations": h.service.ActiveConversations(),
	})
}

// GetArchivedTranscript reads the persisted transcript for a session.
// GET /v1/conversations/:session_id/archive?limit=
func (h *Handler) GetArchivedTranscript(c echo.Context) error {
	if h.archive == nil {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "archive not configured"})
	}

	sessionID := c.Param("session_id")
	limit := 100
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	messages, err := h.archive.GetSessionMessages(c.Request().Context(), sessionID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{"messages": messages})
}
