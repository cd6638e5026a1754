package workflow

import (
	"context"
	"fmt"

	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/jordanlanch/leadtriage/pkg/metrics"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
)

const (
	// FollowUpRatioThreshold is the sent ratio at which the follow-up percentage is raised
	FollowUpRatioThreshold = 0.70
	// RaisedFollowUpPercentage is the follow-up percentage applied once a campaign qualifies
	RaisedFollowUpPercentage = 90

	defaultFollowUpError = "Error adding follow-ups"
	notApplicable        = "N/A"
)

// CampaignLabel is how a campaign is named in selection lists and reports
func CampaignLabel(id int, name string) string {
	return fmt.Sprintf("Campaign ID: %d, name: %s", id, name)
}

// AnalyticsLink is the platform page of a campaign
func AnalyticsLink(id int) string {
	return fmt.Sprintf("https://app.smartlead.ai/app/email-campaign/%d/analytics", id)
}

// ShouldRaiseFollowUp is true for campaigns without leads or with at least
// 70% of their leads sent
func ShouldRaiseFollowUp(stats *smartlead.Statistics) bool {
	if stats.CampaignLeadStats.Total == 0 {
		return true
	}
	return stats.SentRatio() >= FollowUpRatioThreshold
}

// FollowUpClient is the campaign platform surface used by the follow-up workflow
type FollowUpClient interface {
	ListCampaigns(ctx context.Context) ([]smartlead.Campaign, error)
	GetCampaignStatistics(ctx context.Context, campaignID int) (*smartlead.Statistics, error)
	UpdateFollowUpPercentage(ctx context.Context, campaignID, percentage int) (int, error)
}

// SequenceDuplicator appends follow-up rounds
type SequenceDuplicator interface {
	Duplicate(ctx context.Context, campaignID, delayDays int, expectedLength *int) (bool, error)
}

// FollowUpNotifier is told about finished batches
type FollowUpNotifier interface {
	NotifyFollowUpsComplete(ctx context.Context, successful, failed []string) error
}

// FollowUpRequest selects the campaigns to extend
type FollowUpRequest struct {
	CampaignIDs              []int `json:"campaign_ids" validate:"required,min=1,dive,gt=0"`
	DelayPeriod              int   `json:"delay_period" validate:"min=0"`
	ChangeFollowUpPercentage bool  `json:"change_follow_up_percentage"`
	ExpectedSequenceLength   *int  `json:"expected_sequence_length,omitempty" validate:"omitempty,min=1"`
}

// CampaignOutcome is one row of a follow-up report
type CampaignOutcome struct {
	CampaignID       int    `json:"campaign_id"`
	CampaignName     string `json:"campaign_name"`
	Link             string `json:"link"`
	Error            string `json:"error"`
	FollowUpsAdded   bool   `json:"follow_ups_added"`
	PercentageRaised bool   `json:"percentage_raised"`
}

// FollowUpReport is the running result of a follow-up batch
type FollowUpReport struct {
	Successful []CampaignOutcome `json:"successful"`
	Failed     []CampaignOutcome `json:"failed"`
	Processed  int               `json:"processed"`
	Total      int               `json:"total"`
}

// FollowUpProgress is called after every campaign
type FollowUpProgress func(processed, total int, label string)

// FollowUps adds follow-up rounds to a batch of campaigns
type FollowUps struct {
	client     FollowUpClient
	duplicator SequenceDuplicator
	notifier   FollowUpNotifier
	logger     logger.Logger
	metrics    *metrics.Metrics
}

// NewFollowUps creates the follow-up orchestrator. notifier may be nil.
func NewFollowUps(client FollowUpClient, duplicator SequenceDuplicator, notifier FollowUpNotifier, log logger.Logger, m *metrics.Metrics) *FollowUps {
	if log == nil {
		log = logger.Default()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &FollowUps{
		client:     client,
		duplicator: duplicator,
		notifier:   notifier,
		logger:     log.With("component", "followups"),
		metrics:    m,
	}
}

// Labels resolves campaign labels from the campaign list. Campaigns missing from
// the list, or every campaign when the list cannot be loaded, are labelled by id.
func (f *FollowUps) Labels(ctx context.Context, ids []int) map[int]string {
	labels := make(map[int]string, len(ids))
	for _, id := range ids {
		labels[id] = fmt.Sprintf("Campaign ID: %d", id)
	}

	campaigns, err := f.client.ListCampaigns(ctx)
	if err != nil {
		f.logger.Warn("failed to load campaign names", "error", err)
		return labels
	}
	for _, c := range campaigns {
		if _, ok := labels[c.ID]; ok {
			labels[c.ID] = CampaignLabel(c.ID, c.Name)
		}
	}
	return labels
}

// Run processes every campaign in order. A failing campaign is recorded in the
// report and the rest are still processed. Only an invalid request or a
// cancelled context returns an error.
func (f *FollowUps) Run(ctx context.Context, req FollowUpRequest, progress FollowUpProgress) (*FollowUpReport, error) {
	if len(req.CampaignIDs) == 0 {
		return nil, domain.NewValidationError("Please select at least one campaign.", nil)
	}
	if req.DelayPeriod < 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("delay period must be zero or more days, got %d", req.DelayPeriod), nil)
	}
	if progress == nil {
		progress = func(int, int, string) {}
	}

	labels := f.Labels(ctx, req.CampaignIDs)
	report := &FollowUpReport{
		Successful: []CampaignOutcome{},
		Failed:     []CampaignOutcome{},
		Total:      len(req.CampaignIDs),
	}

	for _, id := range req.CampaignIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome := CampaignOutcome{
			CampaignID:   id,
			CampaignName: labels[id],
			Link:         AnalyticsLink(id),
			Error:        notApplicable,
		}

		if err := f.process(ctx, req, &outcome); err != nil {
			outcome.Error = err.Error()
			if outcome.Error == "" {
				outcome.Error = defaultFollowUpError
			}
			f.logger.Error("failed to add follow-ups", "campaign_id", id, "error", err)
			report.Failed = append(report.Failed, outcome)
			f.metrics.RecordFollowUpOutcome(false)
		} else {
			report.Successful = append(report.Successful, outcome)
			f.metrics.RecordFollowUpOutcome(true)
		}

		report.Processed++
		progress(report.Processed, report.Total, outcome.CampaignName)
	}

	f.logger.Info("follow-up batch complete",
		"successful", len(report.Successful),
		"failed", len(report.Failed))
	f.notify(ctx, report)
	return report, nil
}

func (f *FollowUps) process(ctx context.Context, req FollowUpRequest, outcome *CampaignOutcome) error {
	if req.ChangeFollowUpPercentage {
		stats, err := f.client.GetCampaignStatistics(ctx, outcome.CampaignID)
		if err != nil {
			return err
		}
		if ShouldRaiseFollowUp(stats) {
			if _, err := f.client.UpdateFollowUpPercentage(ctx, outcome.CampaignID, RaisedFollowUpPercentage); err != nil {
				return err
			}
			outcome.PercentageRaised = true
		}
	}

	added, err := f.duplicator.Duplicate(ctx, outcome.CampaignID, req.DelayPeriod, req.ExpectedSequenceLength)
	if err != nil {
		return err
	}
	outcome.FollowUpsAdded = added
	return nil
}

func (f *FollowUps) notify(ctx context.Context, report *FollowUpReport) {
	if f.notifier == nil {
		return
	}
	successful := make([]string, len(report.Successful))
	for i, o := range report.Successful {
		successful[i] = o.CampaignName
	}
	failed := make([]string, len(report.Failed))
	for i, o := range report.Failed {
		failed[i] = o.CampaignName + ": " + o.Error
	}
	if err := f.notifier.NotifyFollowUpsComplete(ctx, successful, failed); err != nil {
		f.logger.Warn("failed to send follow-up notification", "error", err)
	}
}
