package smartlead

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/domain"
)

// PageRetry bounds how often a failed lead page is re-requested on the same offset
type PageRetry struct {
	MaxAttempts int           // default: 5
	BaseDelay   time.Duration // default: 500ms, doubled after every failed attempt
	MaxDelay    time.Duration // default: 8s
}

func (r PageRetry) withDefaults() PageRetry {
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = 5
	}
	if r.BaseDelay <= 0 {
		r.BaseDelay = 500 * time.Millisecond
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = 8 * time.Second
	}
	return r
}

func (r PageRetry) delay(attempt int) time.Duration {
	d := r.BaseDelay << (attempt - 1)
	if d <= 0 || d > r.MaxDelay {
		return r.MaxDelay
	}
	return d
}

// LeadFilter narrows the campaign leads listing
type LeadFilter struct {
	LeadCategoryID *int
	EventTimeGT    string // ISO timestamp, leads with events after it
}

func (f LeadFilter) values() url.Values {
	v := url.Values{}
	if f.LeadCategoryID != nil {
		v.Set("lead_category_id", strconv.Itoa(*f.LeadCategoryID))
	}
	if f.EventTimeGT != "" {
		v.Set("event_time_gt", f.EventTimeGT)
	}
	return v
}

// PaginationError reports a lead page that kept failing after every retry
type PaginationError struct {
	CampaignID int
	Offset     int
	Attempts   int
	Err        error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("leads for campaign %d stopped at offset %d after %d attempts: %v",
		e.CampaignID, e.Offset, e.Attempts, e.Err)
}

func (e *PaginationError) Unwrap() error {
	return e.Err
}

var errEmptyPage = errors.New("empty page before reported total")

// ListLeads collects every lead mapped to a campaign. Pages are requested with an
// offset equal to the number of leads collected so far until the reported total is
// reached.
//
// A failing first page is logged and yields an empty result. A failing later page
// is retried on the same offset with backoff; when retries run out the leads
// collected so far are returned together with a *PaginationError.
func (cl *Client) ListLeads(ctx context.Context, campaignID int, filter LeadFilter) ([]CampaignLead, error) {
	log := cl.logger.With("campaign_id", campaignID)
	leads := []CampaignLead{}

	first, err := cl.leadsPage(ctx, campaignID, filter, 0)
	if err != nil {
		if domain.IsConfiguration(err) || ctx.Err() != nil {
			return leads, err
		}
		log.Error("error fetching first page of campaign leads", "error", err)
		return leads, nil
	}
	leads = append(leads, first.Data...)
	total := first.TotalLeads

	for len(leads) < total {
		page, err := cl.leadsPageWithRetry(ctx, campaignID, filter, len(leads))
		if err != nil {
			return leads, err
		}
		leads = append(leads, page.Data...)
	}

	log.Debug("campaign leads collected", "count", len(leads), "total", total)
	return leads, nil
}

func (cl *Client) leadsPageWithRetry(ctx context.Context, campaignID int, filter LeadFilter, offset int) (*LeadsPage, error) {
	retry := cl.cfg.PageRetry
	var lastErr error

	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		page, err := cl.leadsPage(ctx, campaignID, filter, offset)
		if err == nil && len(page.Data) == 0 {
			err = errEmptyPage
		}
		if err == nil {
			return page, nil
		}
		lastErr = err

		if domain.IsConfiguration(err) {
			break
		}
		cl.logger.Warn("error getting campaign leads page",
			"campaign_id", campaignID,
			"offset", offset,
			"attempt", attempt,
			"error", err)

		if attempt == retry.MaxAttempts {
			break
		}
		cl.metrics.RecordLeadPageRetry()

		timer := time.NewTimer(retry.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &PaginationError{CampaignID: campaignID, Offset: offset, Attempts: attempt, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	attempts := retry.MaxAttempts
	if domain.IsConfiguration(lastErr) {
		attempts = 1
	}
	return nil, &PaginationError{CampaignID: campaignID, Offset: offset, Attempts: attempts, Err: lastErr}
}

func (cl *Client) leadsPage(ctx context.Context, campaignID int, filter LeadFilter, offset int) (*LeadsPage, error) {
	query := filter.values()
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	raw, err := cl.do(ctx, call{
		api:      publicAPI,
		method:   http.MethodGet,
		endpoint: fmt.Sprintf("campaigns/%d/leads", campaignID),
		query:    query,
	})
	if err != nil {
		return nil, err
	}
	return DecodeLeadsPage(raw)
}
