package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/api/errors"
	"github.com/jordanlanch/leadtriage/pkg/directory"
	"github.com/jordanlanch/leadtriage/pkg/models"
	"github.com/labstack/echo/v4"
)

// OrganizationLister lists the organizations an operator can pick from
type OrganizationLister interface {
	ActiveOrganizations(ctx context.Context) ([]directory.Organization, error)
}

// OrganizationHandler handles organization endpoints
type OrganizationHandler struct {
	organizations OrganizationLister
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(organizations OrganizationLister) *OrganizationHandler {
	return &OrganizationHandler{organizations: organizations}
}

// List godoc
// @Summary List organizations
// @Description Returns the organizations that own at least one campaign and are not paused
// @Tags Organizations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.OrganizationsResponse
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /organizations [get]
func (h *OrganizationHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	orgs, err := h.organizations.ActiveOrganizations(ctx)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	if orgs == nil {
		orgs = []directory.Organization{}
	}

	return c.JSON(http.StatusOK, models.OrganizationsResponse{Organizations: orgs, Total: len(orgs)})
}
