// Package v1 provides the HTTP boundary of the triage core.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmulondo/sema-core/internal/realtime"
	"github.com/dmulondo/sema-core/internal/service"
	"github.com/dmulondo/sema-core/internal/store"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	hub     *realtime.Hub
	archive store.Store
}

// NewHandler creates a new handler. archive may be nil.
func NewHandler(svc *service.Service, hub *realtime.Hub, archive store.Store) *Handler {
	return &Handler{
		service: svc,
		hub:     hub,
		archive: archive,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Triage pipeline
	e.POST("/v1/messages", h.HandleInbound)
	e.POST("/v1/language/detect", h.DetectLanguage)

	// Approval workflow
	e.POST("/v1/approvals", h.CreateApproval)
	e.POST("/v1/approvals/:request_id/approve", h.ApproveRequest)
	e.POST("/v1/approvals/:request_id/reject", h.RejectRequest)
	e.GET("/v1/approvals/pending", h.ListPendingApprovals)
	e.GET("/v1/approvals/stats", h.ApprovalStats)
	e.GET("/v1/approvals/archive", h.ListArchivedApprovals)

	// Conversations
	e.GET("/v1/conversations/active", h.ActiveConversations)
	e.GET("/v1/conversations/:session_id", h.GetConversation)
	e.GET("/v1/conversations/:session_id/archive", h.GetArchivedTranscript)

	// Realtime
	e.POST("/v1/events/broadcast", h.BroadcastEvent)
	e.GET("/v1/events/history", h.EventHistory)
	e.GET("/v1/events/stream", h.StreamEvents)
	e.GET("/v1/ws", h.HandleWebSocket)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "healthy",
		"connections": h.hub.ConnectionCount(),
		"subscribers": h.hub.SubscriberCount(),
	})
}
