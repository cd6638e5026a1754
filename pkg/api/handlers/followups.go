package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jordanlanch/leadtriage/pkg/api/errors"
	"github.com/jordanlanch/leadtriage/pkg/workflow"
	"github.com/labstack/echo/v4"
)

const followUpTimeout = 15 * time.Minute

// FollowUpHandler handles follow-up batches
type FollowUpHandler struct {
	flow      *workflow.FollowUps
	runner    *workflow.Runner
	validator *validator.Validate
}

// NewFollowUpHandler creates a new follow-up handler
func NewFollowUpHandler(flow *workflow.FollowUps, runner *workflow.Runner) *FollowUpHandler {
	return &FollowUpHandler{
		flow:      flow,
		runner:    runner,
		validator: validator.New(),
	}
}

// Add godoc
// @Summary Add follow-up rounds to campaigns
// @Description Duplicates each campaign's sequence as a new follow-up round, optionally raising the
// @Description follow-up percentage of campaigns that have sent to at least 70% of their leads.
// @Description Per-campaign failures are reported in the response, they do not fail the request.
// @Tags Follow-ups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body workflow.FollowUpRequest true "Campaigns and options"
// @Success 200 {object} workflow.FollowUpReport
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 409 {object} models.ErrorResponse "A follow-up batch is already running"
// @Router /followups [post]
func (h *FollowUpHandler) Add(c echo.Context) error {
	var req workflow.FollowUpRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	release, err := h.runner.Start("followups")
	if err != nil {
		return errors.FromDomain(c, err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(c.Request().Context(), followUpTimeout)
	defer cancel()

	report, err := h.flow.Run(ctx, req, nil)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	return c.JSON(http.StatusOK, report)
}
