package models

import (
	"github.com/jordanlanch/leadtriage/pkg/directory"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
)

// SelectOrganizationRequest picks the organization of a filter session
type SelectOrganizationRequest struct {
	OrganizationID string `json:"organization_id" validate:"required"`
}

// SelectCampaignRequest picks the campaign of a filter session
type SelectCampaignRequest struct {
	CampaignID int `json:"campaign_id" validate:"required,gt=0"`
}

// CampaignsResponse lists campaigns
type CampaignsResponse struct {
	Campaigns []smartlead.Campaign `json:"campaigns"`
	Total     int                  `json:"total"`
}

// OrganizationsResponse lists the active organizations
type OrganizationsResponse struct {
	Organizations []directory.Organization `json:"organizations"`
	Total         int                      `json:"total"`
}
