package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jordanlanch/leadtriage/pkg/api/errors"
	"github.com/jordanlanch/leadtriage/pkg/classifier"
	"github.com/jordanlanch/leadtriage/pkg/leadimport"
	"github.com/jordanlanch/leadtriage/pkg/models"
	"github.com/jordanlanch/leadtriage/pkg/session"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
	"github.com/jordanlanch/leadtriage/pkg/workflow"
	"github.com/labstack/echo/v4"
)

// MaxUploadBytes is the largest lead file accepted by Classify
const MaxUploadBytes = 10 << 20

const (
	classifyTimeout = 15 * time.Minute
	removeTimeout   = 2 * time.Minute
)

// FilterSessionHandler drives filter-leads sessions. Session state lives in the
// session store between requests.
type FilterSessionHandler struct {
	flow      *workflow.FilterLeads
	store     session.Store
	runner    *workflow.Runner
	csv       leadimport.CSVConfig
	validator *validator.Validate
}

// NewFilterSessionHandler creates a new filter session handler
func NewFilterSessionHandler(flow *workflow.FilterLeads, store session.Store, runner *workflow.Runner, csvCfg leadimport.CSVConfig) *FilterSessionHandler {
	return &FilterSessionHandler{
		flow:      flow,
		store:     store,
		runner:    runner,
		csv:       csvCfg,
		validator: validator.New(),
	}
}

// Create godoc
// @Summary Start a filter session
// @Tags Filter Sessions
// @Produce json
// @Security BearerAuth
// @Success 201 {object} workflow.FilterState
// @Router /filter-sessions [post]
func (h *FilterSessionHandler) Create(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	st := workflow.NewFilterState()
	if err := h.store.Save(ctx, st.ID, st); err != nil {
		return errors.InternalError(c, err)
	}

	return c.JSON(http.StatusCreated, st)
}

// Get godoc
// @Summary Get a filter session
// @Tags Filter Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} workflow.FilterState
// @Failure 404 {object} models.ErrorResponse "Session not found or expired"
// @Router /filter-sessions/{id} [get]
func (h *FilterSessionHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	st, err := h.load(ctx, c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}

	return c.JSON(http.StatusOK, st)
}

// Delete godoc
// @Summary Discard a filter session
// @Tags Filter Sessions
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204
// @Router /filter-sessions/{id} [delete]
func (h *FilterSessionHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.store.Delete(ctx, c.Param("id")); err != nil {
		return errors.InternalError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SelectOrganization godoc
// @Summary Choose the organization of a session
// @Description Loads the organization's campaigns. Campaigns that could not be fetched are listed in campaign_failures.
// @Tags Filter Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.SelectOrganizationRequest true "Organization"
// @Success 200 {object} workflow.FilterState
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 404 {object} models.ErrorResponse "Session or organization not found"
// @Failure 409 {object} models.ErrorResponse "Session busy"
// @Router /filter-sessions/{id}/organization [post]
func (h *FilterSessionHandler) SelectOrganization(c echo.Context) error {
	var req models.SelectOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	id := c.Param("id")
	release, err := h.runner.Start("filter:" + id)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	st, err := h.load(ctx, id)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	next, err := h.flow.SelectOrganization(ctx, st, req.OrganizationID)
	return h.saveAndRespond(c, next, err)
}

// SelectCampaign godoc
// @Summary Choose the campaign of a session
// @Tags Filter Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.SelectCampaignRequest true "Campaign"
// @Success 200 {object} workflow.FilterState
// @Failure 409 {object} models.ErrorResponse "No organization selected, campaign not in organization or session busy"
// @Router /filter-sessions/{id}/campaign [post]
func (h *FilterSessionHandler) SelectCampaign(c echo.Context) error {
	var req models.SelectCampaignRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	id := c.Param("id")
	release, err := h.runner.Start("filter:" + id)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	st, err := h.load(ctx, id)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	next, err := h.flow.SelectCampaign(st, req.CampaignID)
	return h.saveAndRespond(c, next, err)
}

// Classify godoc
// @Summary Classify an uploaded lead file
// @Description Flags leads against the filter lists, archives them and matches them against the campaign's leads.
// @Description A partial campaign listing still returns 200 with last_error set.
// @Tags Filter Sessions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param file formData file true "Lead CSV"
// @Param blocklisted_industries formData string false "Semicolon separated industries to remove"
// @Param whitelisted_industries formData string false "Semicolon separated industries to keep"
// @Param whitelisted_areas formData string false "Semicolon separated areas to keep"
// @Success 200 {object} workflow.FilterState
// @Failure 400 {object} models.ErrorResponse "Invalid lead file"
// @Failure 409 {object} models.ErrorResponse "No campaign selected or session busy"
// @Router /filter-sessions/{id}/classify [post]
func (h *FilterSessionHandler) Classify(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "missing_file",
			Message: "A lead file is required",
		})
	}
	if file.Size > MaxUploadBytes {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "file_too_large",
			Message: fmt.Sprintf("Lead files are limited to %d MB", MaxUploadBytes>>20),
		})
	}

	src, err := file.Open()
	if err != nil {
		return errors.InternalError(c, err)
	}
	defer src.Close()

	leads, err := leadimport.ParseCSV(src, h.csv)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	criteria := classifier.Criteria{
		BlocklistedIndustries: c.FormValue("blocklisted_industries"),
		WhitelistedIndustries: c.FormValue("whitelisted_industries"),
		WhitelistedAreas:      c.FormValue("whitelisted_areas"),
	}

	id := c.Param("id")
	release, err := h.runner.Start("filter:" + id)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(c.Request().Context(), classifyTimeout)
	defer cancel()

	st, err := h.load(ctx, id)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	next, err := h.flow.Classify(ctx, st, leads, criteria, nil)
	return h.saveAndRespond(c, next, err)
}

// Remove godoc
// @Summary Remove the matched leads from the campaign
// @Description Deletes the matched leads. A session can remove leads once.
// @Tags Filter Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} workflow.FilterState
// @Failure 409 {object} models.ErrorResponse "Nothing to remove, already removed or session busy"
// @Router /filter-sessions/{id}/remove [post]
func (h *FilterSessionHandler) Remove(c echo.Context) error {
	id := c.Param("id")
	release, err := h.runner.Start("filter:" + id)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(c.Request().Context(), removeTimeout)
	defer cancel()

	st, err := h.load(ctx, id)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	next, err := h.flow.ConfirmRemoval(ctx, st)
	return h.saveAndRespond(c, next, err)
}

func (h *FilterSessionHandler) load(ctx context.Context, id string) (workflow.FilterState, error) {
	var st workflow.FilterState
	err := h.store.Load(ctx, id, &st)
	return st, err
}

// saveAndRespond persists the state returned by a step, including the
// LastError of a failed step, then writes the step outcome. A partial lead
// listing is not a failure.
func (h *FilterSessionHandler) saveAndRespond(c echo.Context, st workflow.FilterState, stepErr error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 5*time.Second)
	defer cancel()

	if err := h.store.Save(ctx, st.ID, st); err != nil {
		return errors.InternalError(c, err)
	}

	var pageErr *smartlead.PaginationError
	if stepErr != nil && !stderrors.As(stepErr, &pageErr) {
		return errors.FromDomain(c, stepErr)
	}
	return c.JSON(http.StatusOK, st)
}
