package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dmulondo/sema-core/internal/domain"
	"github.com/dmulondo/sema-core/internal/service"
)

type decisionRequest struct {
	AdminID       string `json:"admin_id"`
	AdminResponse string `json:"admin_response"`
	Reason        string `json:"reason"`
}

// CreateApproval opens an approval request directly.
// POST /v1/approvals
func (h *Handler) CreateApproval(c echo.Context) error {
	var in service.CreateRequestInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	req, err := h.service.CreateRequest(c.Request().Context(), in)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, req)
}

// ApproveRequest approves a pending request.
// POST /v1/approvals/:request_id/approve
func (h *Handler) ApproveRequest(c echo.Context) error {
	requestID := c.Param("request_id")

	var in decisionRequest
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if in.AdminID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "admin_id is required"})
	}

	if !h.service.Approve(c.Request().Context(), requestID, in.AdminID, in.AdminResponse) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "approval is not pending"})
	}

	req, _ := h.service.GetRequest(requestID)
	return c.JSON(http.StatusOK, req)
}

// RejectRequest rejects a pending request.
// POST /v1/approvals/:request_id/reject
func (h *Handler) RejectRequest(c echo.Context) error {
	requestID := c.Param("request_id")

	var in decisionRequest
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if in.AdminID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "admin_id is required"})
	}

	if !h.service.Reject(c.Request().Context(), requestID, in.AdminID, in.Reason) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "approval is not pending"})
	}

	req, _ := h.service.GetRequest(requestID)
	return c.JSON(http.StatusOK, req)
}

// ListPendingApprovals returns the pending queue, most urgent first.
// GET /v1/approvals/pending
func (h *Handler) ListPendingApprovals(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"approvals": h.service.ListPending(),
	})
}

// ApprovalStats returns aggregate workflow counters.
// GET /v1/approvals/stats
func (h *Handler) ApprovalStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Stats())
}

// ListArchivedApprovals reads the persistent archive.
// GET /v1/approvals/archive?status=&limit=
func (h *Handler) ListArchivedApprovals(c echo.Context) error {
	if h.archive == nil {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "archive not configured"})
	}

	status := domain.ApprovalStatus(c.QueryParam("status"))
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	approvals, err := h.archive.ListApprovals(c.Request().Context(), status, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{"approvals": approvals})
}
