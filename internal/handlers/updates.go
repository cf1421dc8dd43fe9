package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/relay/internal/broadcast"
	"github.com/nfrund/relay/internal/dispatch"
	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/middleware"
)

// UpdateRequester queues updates for broadcast.
type UpdateRequester interface {
	RequestUpdate(ctx context.Context, req dispatch.UpdateRequested) error
}

// UpdatesHandler accepts domain updates from the API layer.
type UpdatesHandler struct {
	requester  UpdateRequester
	validation broadcast.Validation
}

// NewUpdatesHandler creates an UpdatesHandler.
func NewUpdatesHandler(requester UpdateRequester, validation broadcast.Validation) *UpdatesHandler {
	return &UpdatesHandler{requester: requester, validation: validation}
}

// Post validates an update and queues it on the bus. The broadcast itself
// happens asynchronously, so 202 means accepted, not delivered.
func (h *UpdatesHandler) Post(c echo.Context) error {
	logger := middleware.FromContext(c.Request().Context())

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "request body must be a JSON object"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Code: "invalid_category", Message: err.Error()})
	}
	if err := category.ValidateAction(req.Action); err != nil {
		if h.validation != broadcast.Permissive || !errors.Is(err, domain.ErrInvalidAction) {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Code: "invalid_action", Message: err.Error()})
		}
		logger.Warn("forwarding unrecognized action", "category", category, "action", req.Action)
	}
	if err := domain.ValidateData(req.Data); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Code: "invalid_payload", Message: err.Error()})
	}

	err = h.requester.RequestUpdate(c.Request().Context(), dispatch.UpdateRequested{
		Category: req.Category,
		Action:   req.Action,
		Room:     req.Room,
		Data:     req.Data,
	})
	if err != nil {
		logger.Error("failed to queue update", "category", category, "action", req.Action, "error", err)
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: "unavailable", Message: "update could not be queued"})
	}

	return c.JSON(http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}
