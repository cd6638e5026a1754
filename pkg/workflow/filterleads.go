package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/classifier"
	"github.com/jordanlanch/leadtriage/pkg/directory"
	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/export"
	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/jordanlanch/leadtriage/pkg/metrics"
	"github.com/jordanlanch/leadtriage/pkg/session"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
	"github.com/jordanlanch/leadtriage/pkg/storage"
)

// Stage of a filter-leads session
type Stage string

const (
	StageNew                  Stage = "new"
	StageOrganizationSelected Stage = "organization_selected"
	StageCampaignSelected     Stage = "campaign_selected"
	StageClassified           Stage = "classified"
	StageRemoved              Stage = "removed"
)

// CampaignDirectory lists the organizations and campaigns an operator can pick from
type CampaignDirectory interface {
	ActiveOrganizations(ctx context.Context) ([]directory.Organization, error)
	Organization(ctx context.Context, orgID string) (*directory.Organization, error)
	CampaignIDsForOrganization(ctx context.Context, orgID string) ([]int, error)
}

// LeadClient is the campaign platform surface used by the filter workflow
type LeadClient interface {
	GetCampaign(ctx context.Context, campaignID int) (*smartlead.Campaign, error)
	ListLeads(ctx context.Context, campaignID int, filter smartlead.LeadFilter) ([]smartlead.CampaignLead, error)
	DeleteLeads(ctx context.Context, campaignID int, leadIDs, leadMapIDs []int) (map[string]any, error)
}

// LeadClassifier flags uploaded leads
type LeadClassifier interface {
	Classify(ctx context.Context, leads []classifier.Lead, c classifier.Criteria, progress classifier.ProgressFunc) (*classifier.Result, error)
}

// LeadArchiver stores flagged leads for review
type LeadArchiver interface {
	ArchiveFilteredLeads(ctx context.Context, campaignLabel string, leads []classifier.Lead, format export.Format, now time.Time) (*storage.Artifact, error)
}

// RemovalNotifier is told about completed removals
type RemovalNotifier interface {
	NotifyLeadsRemoved(ctx context.Context, campaignLabel string, removed int, artifactURL string) error
}

// CampaignOption is a selectable campaign of the chosen organization
type CampaignOption struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CampaignFailure is a campaign whose details could not be loaded
type CampaignFailure struct {
	CampaignID int    `json:"campaign_id"`
	Error      string `json:"error"`
}

// LeadRef identifies a campaign lead eligible for deletion
type LeadRef struct {
	LeadID    int    `json:"lead_id"`
	LeadMapID int    `json:"lead_map_id"`
	Email     string `json:"email"`
}

// FilterState is the value carried between filter-leads steps. Every step takes
// the current state and returns the next one.
type FilterState struct {
	ID               string              `json:"id"`
	Stage            Stage               `json:"stage"`
	OrganizationID   string              `json:"organization_id,omitempty"`
	OrganizationName string              `json:"organization_name,omitempty"`
	Campaigns        []CampaignOption    `json:"campaigns,omitempty"`
	CampaignFailures []CampaignFailure   `json:"campaign_failures,omitempty"`
	CampaignID       int                 `json:"campaign_id,omitempty"`
	CampaignName     string              `json:"campaign_name,omitempty"`
	Criteria         classifier.Criteria `json:"criteria"`
	Uploaded         int                 `json:"uploaded"`
	LeadsToRemove    []classifier.Lead   `json:"leads_to_remove,omitempty"`
	Matched          []LeadRef           `json:"matched,omitempty"`
	ArtifactURL      string              `json:"artifact_url,omitempty"`
	RemovedCount     int                 `json:"removed_count"`
	LastError        string              `json:"last_error,omitempty"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// NewFilterState starts a session
func NewFilterState() FilterState {
	return FilterState{ID: session.NewID(), Stage: StageNew, UpdatedAt: time.Now().UTC()}
}

// resetResults clears everything downstream of the campaign choice
func (st *FilterState) resetResults() {
	st.Criteria = classifier.Criteria{}
	st.Uploaded = 0
	st.LeadsToRemove = nil
	st.Matched = nil
	st.ArtifactURL = ""
	st.RemovedCount = 0
	st.LastError = ""
}

func (st FilterState) hasCampaign(id int) (CampaignOption, bool) {
	for _, c := range st.Campaigns {
		if c.ID == id {
			return c, true
		}
	}
	return CampaignOption{}, false
}

// FilterLeads drives the classify-then-remove workflow for one campaign
type FilterLeads struct {
	directory  CampaignDirectory
	client     LeadClient
	classifier LeadClassifier
	archiver   LeadArchiver
	notifier   RemovalNotifier
	logger     logger.Logger
	metrics    *metrics.Metrics
	format     export.Format
	now        func() time.Time
}

// FilterLeadsConfig configures NewFilterLeads. Notifier may be nil.
type FilterLeadsConfig struct {
	Directory  CampaignDirectory
	Client     LeadClient
	Classifier LeadClassifier
	Archiver   LeadArchiver
	Notifier   RemovalNotifier
	Format     export.Format // default: TSV
}

// NewFilterLeads creates the filter-leads orchestrator
func NewFilterLeads(cfg FilterLeadsConfig, log logger.Logger, m *metrics.Metrics) *FilterLeads {
	if log == nil {
		log = logger.Default()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if cfg.Format == "" {
		cfg.Format = export.FormatTSV
	}
	return &FilterLeads{
		directory:  cfg.Directory,
		client:     cfg.Client,
		classifier: cfg.Classifier,
		archiver:   cfg.Archiver,
		notifier:   cfg.Notifier,
		logger:     log.With("component", "filter_leads"),
		metrics:    m,
		format:     cfg.Format,
		now:        time.Now,
	}
}

// Organizations lists the active organizations
func (f *FilterLeads) Organizations(ctx context.Context) ([]directory.Organization, error) {
	return f.directory.ActiveOrganizations(ctx)
}

// SelectOrganization loads the organization's campaigns. A campaign whose
// details cannot be fetched is reported in CampaignFailures and left out of
// Campaigns.
func (f *FilterLeads) SelectOrganization(ctx context.Context, st FilterState, orgID string) (FilterState, error) {
	org, err := f.directory.Organization(ctx, orgID)
	if err != nil {
		return st, err
	}
	ids, err := f.directory.CampaignIDsForOrganization(ctx, orgID)
	if err != nil {
		return st, err
	}

	st.OrganizationID = org.ID
	st.OrganizationName = org.Name
	st.Campaigns = []CampaignOption{}
	st.CampaignFailures = nil
	st.CampaignID = 0
	st.CampaignName = ""
	st.resetResults()

	for _, id := range ids {
		campaign, err := f.client.GetCampaign(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return st, ctx.Err()
			}
			f.logger.Warn("error fetching campaign", "campaign_id", id, "error", err)
			st.CampaignFailures = append(st.CampaignFailures, CampaignFailure{
				CampaignID: id,
				Error:      fmt.Sprintf("Error fetching campaign %d: %v", id, err),
			})
			continue
		}
		st.Campaigns = append(st.Campaigns, CampaignOption{ID: campaign.ID, Name: campaign.Name})
	}

	st.Stage = StageOrganizationSelected
	st.UpdatedAt = f.now().UTC()
	return st, nil
}

// SelectCampaign picks one of the organization's campaigns
func (f *FilterLeads) SelectCampaign(st FilterState, campaignID int) (FilterState, error) {
	if st.OrganizationID == "" {
		return st, domain.NewPreconditionError("select an organization first")
	}
	campaign, ok := st.hasCampaign(campaignID)
	if !ok {
		return st, domain.NewPreconditionError(fmt.Sprintf("campaign %d does not belong to organization %s", campaignID, st.OrganizationID))
	}

	st.CampaignID = campaign.ID
	st.CampaignName = campaign.Name
	st.resetResults()
	st.Stage = StageCampaignSelected
	st.UpdatedAt = f.now().UTC()
	return st, nil
}

// Classify runs the classifier over the uploaded leads. When leads are flagged
// they are archived and matched by email against the leads currently mapped to
// the campaign. A *smartlead.PaginationError is returned together with a state
// holding the partial match.
func (f *FilterLeads) Classify(ctx context.Context, st FilterState, uploaded []classifier.Lead, criteria classifier.Criteria, progress classifier.ProgressFunc) (FilterState, error) {
	if st.CampaignID == 0 {
		return st, domain.NewPreconditionError("select a campaign first")
	}
	log := f.logger.With("campaign_id", st.CampaignID)

	st.resetResults()
	st.Criteria = criteria
	st.Uploaded = len(uploaded)
	st.UpdatedAt = f.now().UTC()

	result, err := f.classifier.Classify(ctx, uploaded, criteria, progress)
	if err != nil {
		st.LastError = fmt.Sprintf("Failed to filter leads: %v", err)
		return st, err
	}

	st.Stage = StageClassified
	if len(result.Flagged) == 0 {
		log.Info("no leads matched the filter criteria", "uploaded", len(uploaded))
		return st, nil
	}

	artifact, err := f.archiver.ArchiveFilteredLeads(ctx, st.CampaignName, result.Flagged, f.format, f.now())
	if err != nil {
		st.Stage = StageCampaignSelected
		st.LastError = fmt.Sprintf("Failed to upload filtered leads: %v", err)
		return st, err
	}
	st.LeadsToRemove = result.Flagged
	st.ArtifactURL = artifact.URL

	campaignLeads, listErr := f.client.ListLeads(ctx, st.CampaignID, smartlead.LeadFilter{})
	var pageErr *smartlead.PaginationError
	if listErr != nil && !errors.As(listErr, &pageErr) {
		st.LastError = fmt.Sprintf("Failed to list campaign leads: %v", listErr)
		return st, listErr
	}

	st.Matched = MatchByEmail(result.Flagged, campaignLeads)
	log.Info("filtered leads ready for removal",
		"flagged", len(result.Flagged),
		"matched", len(st.Matched),
		"artifact", artifact.Name)

	if pageErr != nil {
		st.LastError = fmt.Sprintf("Only %d campaign leads could be listed: %v", len(campaignLeads), pageErr)
		return st, listErr
	}
	return st, nil
}

// MatchByEmail returns the campaign leads whose email exactly equals the Email
// column of a flagged lead. Flagged leads without an email match nothing.
func MatchByEmail(flagged []classifier.Lead, campaignLeads []smartlead.CampaignLead) []LeadRef {
	emails := make(map[string]struct{}, len(flagged))
	for _, l := range flagged {
		if e := l.Email(); e != "" {
			emails[e] = struct{}{}
		}
	}

	matched := []LeadRef{}
	for _, cl := range campaignLeads {
		if _, ok := emails[cl.Lead.Email]; ok {
			matched = append(matched, LeadRef{
				LeadID:    cl.Lead.ID,
				LeadMapID: cl.CampaignLeadMapID,
				Email:     cl.Lead.Email,
			})
		}
	}
	return matched
}

// ConfirmRemoval deletes the matched leads from the campaign. The match is not
// re-checked against the campaign, so leads changed since Classify are deleted
// as they were matched.
func (f *FilterLeads) ConfirmRemoval(ctx context.Context, st FilterState) (FilterState, error) {
	if st.Stage == StageRemoved {
		return st, domain.NewPreconditionError(fmt.Sprintf("leads were already removed from %s", st.CampaignName))
	}
	if len(st.Matched) == 0 {
		return st, domain.NewPreconditionError("no matched leads to remove")
	}

	leadIDs := make([]int, len(st.Matched))
	mapIDs := make([]int, len(st.Matched))
	for i, m := range st.Matched {
		leadIDs[i] = m.LeadID
		mapIDs[i] = m.LeadMapID
	}

	st.UpdatedAt = f.now().UTC()
	if _, err := f.client.DeleteLeads(ctx, st.CampaignID, leadIDs, mapIDs); err != nil {
		st.LastError = fmt.Sprintf("Failed to remove leads from campaign %s: %v", st.CampaignName, err)
		f.logger.Error("failed to remove leads", "campaign_id", st.CampaignID, "error", err)
		return st, err
	}

	st.Stage = StageRemoved
	st.RemovedCount = len(st.Matched)
	st.LastError = ""
	f.metrics.RecordLeadsRemoved(st.RemovedCount)
	f.logger.Info("leads removed", "campaign_id", st.CampaignID, "removed", st.RemovedCount)

	if f.notifier != nil {
		label := CampaignLabel(st.CampaignID, st.CampaignName)
		if err := f.notifier.NotifyLeadsRemoved(ctx, label, st.RemovedCount, st.ArtifactURL); err != nil {
			f.logger.Warn("failed to send removal notification", "error", err)
		}
	}
	return st, nil
}
