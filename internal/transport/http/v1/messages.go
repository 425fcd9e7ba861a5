package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmulondo/sema-core/internal/service"
)

// HandleInbound runs one customer message through the triage pipeline.
// POST /v1/messages
func (h *Handler) HandleInbound(c echo.Context) error {
	var in service.InboundMessage
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	result, err := h.service.HandleInbound(c.Request().Context(), in)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}

type detectRequest struct {
	Text string `json:"text"`
}

// DetectLanguage classifies a text without side effects.
// POST /v1/language/detect
func (h *Handler) DetectLanguage(c echo.Context) error {
	var in detectRequest
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	return c.JSON(http.StatusOK, h.service.Detector().Detect(in.Text))
}
