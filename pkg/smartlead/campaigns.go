package smartlead

import (
	"context"
	"fmt"
	"net/http"
)

// GetCampaign fetches and validates one campaign
func (cl *Client) GetCampaign(ctx context.Context, campaignID int) (*Campaign, error) {
	raw, err := cl.do(ctx, call{
		api:      publicAPI,
		method:   http.MethodGet,
		endpoint: fmt.Sprintf("campaigns/%d", campaignID),
	})
	if err != nil {
		return nil, err
	}

	campaign, err := DecodeCampaign(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid campaign data for ID %d: %w", campaignID, err)
	}
	return campaign, nil
}

// ListCampaigns fetches every campaign visible to the API key
func (cl *Client) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	raw, err := cl.do(ctx, call{
		api:      publicAPI,
		method:   http.MethodGet,
		endpoint: "campaigns",
	})
	if err != nil {
		return nil, err
	}
	return DecodeCampaigns(raw)
}

// GetCampaignStatistics fetches a campaign's analytics summary
func (cl *Client) GetCampaignStatistics(ctx context.Context, campaignID int) (*Statistics, error) {
	raw, err := cl.do(ctx, call{
		api:      publicAPI,
		method:   http.MethodGet,
		endpoint: fmt.Sprintf("campaigns/%d/analytics", campaignID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign statistics for campaign %d: %w", campaignID, err)
	}

	stats, err := DecodeStatistics(raw)
	if err != nil {
		return nil, fmt.Errorf("campaign statistics for %d: %w", campaignID, err)
	}
	return stats, nil
}
