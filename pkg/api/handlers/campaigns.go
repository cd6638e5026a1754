package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/api/errors"
	"github.com/jordanlanch/leadtriage/pkg/models"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
	"github.com/jordanlanch/leadtriage/pkg/workflow"
	"github.com/labstack/echo/v4"
)

// CampaignService is the campaign platform surface exposed over HTTP
type CampaignService interface {
	ListCampaigns(ctx context.Context) ([]smartlead.Campaign, error)
	RefreshCampaigns(ctx context.Context) ([]smartlead.Campaign, error)
	GetCampaign(ctx context.Context, campaignID int) (*smartlead.Campaign, error)
	GetCampaignStatistics(ctx context.Context, campaignID int) (*smartlead.Statistics, error)
}

// CampaignHandler handles campaign endpoints
type CampaignHandler struct {
	campaigns CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaigns CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// StatisticsResponse is a campaign's send statistics with the follow-up gate applied
type StatisticsResponse struct {
	CampaignID           int                   `json:"campaign_id"`
	Statistics           *smartlead.Statistics `json:"statistics"`
	SentRatio            float64               `json:"sent_ratio"`
	QualifiesForFollowUp bool                  `json:"qualifies_for_follow_up"`
}

// List godoc
// @Summary List campaigns
// @Description Returns every campaign of the account. Served from cache when available.
// @Tags Campaigns
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.CampaignsResponse
// @Failure 502 {object} models.ErrorResponse "Campaign platform error"
// @Router /campaigns [get]
func (h *CampaignHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	campaigns, err := h.campaigns.ListCampaigns(ctx)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	return c.JSON(http.StatusOK, models.CampaignsResponse{Campaigns: campaigns, Total: len(campaigns)})
}

// Refresh godoc
// @Summary Refresh campaigns
// @Description Reloads the campaign list from the platform and replaces the cached copy
// @Tags Campaigns
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.CampaignsResponse
// @Failure 502 {object} models.ErrorResponse "Campaign platform error"
// @Router /campaigns/refresh [post]
func (h *CampaignHandler) Refresh(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	campaigns, err := h.campaigns.RefreshCampaigns(ctx)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	return c.JSON(http.StatusOK, models.CampaignsResponse{Campaigns: campaigns, Total: len(campaigns)})
}

// Get godoc
// @Summary Get campaign
// @Tags Campaigns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} smartlead.Campaign
// @Failure 400 {object} models.ErrorResponse "Invalid campaign ID"
// @Failure 404 {object} models.ErrorResponse "Campaign not found"
// @Router /campaigns/{id} [get]
func (h *CampaignHandler) Get(c echo.Context) error {
	id, ok := campaignID(c)
	if !ok {
		return invalidCampaignID(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	campaign, err := h.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	return c.JSON(http.StatusOK, campaign)
}

// Statistics godoc
// @Summary Get campaign statistics
// @Description Returns send statistics and whether the campaign qualifies for a raised follow-up percentage
// @Tags Campaigns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} StatisticsResponse
// @Failure 400 {object} models.ErrorResponse "Invalid campaign ID"
// @Router /campaigns/{id}/statistics [get]
func (h *CampaignHandler) Statistics(c echo.Context) error {
	id, ok := campaignID(c)
	if !ok {
		return invalidCampaignID(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	stats, err := h.campaigns.GetCampaignStatistics(ctx, id)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	return c.JSON(http.StatusOK, StatisticsResponse{
		CampaignID:           id,
		Statistics:           stats,
		SentRatio:            stats.SentRatio(),
		QualifiesForFollowUp: workflow.ShouldRaiseFollowUp(stats),
	})
}

func campaignID(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	return id, err == nil && id > 0
}

func invalidCampaignID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_id",
		Message: "Campaign ID must be a positive number",
	})
}
