package smartlead

import (
	"context"
	"fmt"
	"time"
)

const (
	campaignListKey   = "smartlead:campaigns"
	campaignKeyFormat = "smartlead:campaign:%d"
)

// JSONCache is the subset of the Redis cache used for campaign reads
type JSONCache interface {
	GetJSON(ctx context.Context, key string, v any) error
	SetJSON(ctx context.Context, key string, v any, expiration time.Duration) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// CachedClient serves campaign reads through a read-through cache. All other
// operations go straight to the embedded Client.
type CachedClient struct {
	*Client
	cache JSONCache
	ttl   time.Duration
}

// NewCachedClient wraps c. A nil cache disables caching.
func NewCachedClient(c *Client, cache JSONCache, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedClient{Client: c, cache: cache, ttl: ttl}
}

// Caching reports whether reads go through a cache
func (cc *CachedClient) Caching() bool { return cc.cache != nil }

// GetCampaign returns a cached campaign or fetches and caches it
func (cc *CachedClient) GetCampaign(ctx context.Context, campaignID int) (*Campaign, error) {
	key := fmt.Sprintf(campaignKeyFormat, campaignID)
	if cc.cache != nil {
		var cached Campaign
		if err := cc.cache.GetJSON(ctx, key, &cached); err == nil {
			cc.metrics.RecordCacheHit("campaign")
			return &cached, nil
		}
		cc.metrics.RecordCacheMiss("campaign")
	}

	campaign, err := cc.Client.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	cc.store(ctx, key, campaign)
	return campaign, nil
}

// ListCampaigns returns the cached campaign list or fetches and caches it
func (cc *CachedClient) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	if cc.cache != nil {
		var cached []Campaign
		if err := cc.cache.GetJSON(ctx, campaignListKey, &cached); err == nil {
			cc.metrics.RecordCacheHit("campaigns")
			return cached, nil
		}
		cc.metrics.RecordCacheMiss("campaigns")
	}
	return cc.RefreshCampaigns(ctx)
}

// RefreshCampaigns reloads the campaign list from the API and replaces the cached
// list and per-campaign entries
func (cc *CachedClient) RefreshCampaigns(ctx context.Context) ([]Campaign, error) {
	campaigns, err := cc.Client.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	cc.store(ctx, campaignListKey, campaigns)
	for i := range campaigns {
		cc.store(ctx, fmt.Sprintf(campaignKeyFormat, campaigns[i].ID), &campaigns[i])
	}
	return campaigns, nil
}

// Invalidate drops every cached campaign entry
func (cc *CachedClient) Invalidate(ctx context.Context) error {
	if cc.cache == nil {
		return nil
	}
	_, err := cc.cache.DeletePattern(ctx, "smartlead:*")
	return err
}

func (cc *CachedClient) store(ctx context.Context, key string, v any) {
	if cc.cache == nil {
		return
	}
	if err := cc.cache.SetJSON(ctx, key, v, cc.ttl); err != nil {
		cc.logger.Warn("failed to cache campaign data", "key", key, "error", err)
	}
}
