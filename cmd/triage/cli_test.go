package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/auth"
	"github.com/jordanlanch/leadtriage/pkg/classifier"
	"github.com/jordanlanch/leadtriage/pkg/directory"
	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/export"
	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
	"github.com/jordanlanch/leadtriage/pkg/storage"
	"github.com/jordanlanch/leadtriage/pkg/testdata"
	"github.com/jordanlanch/leadtriage/pkg/workflow"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	campaigns []smartlead.Campaign
	leads     []smartlead.CampaignLead
	deleted   []int
	err       error
}

func (f *fakePlatform) ListCampaigns(ctx context.Context) ([]smartlead.Campaign, error) {
	return f.campaigns, f.err
}

func (f *fakePlatform) GetCampaign(ctx context.Context, id int) (*smartlead.Campaign, error) {
	for _, c := range f.campaigns {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, domain.NewHTTPError(404, fmt.Sprintf("Campaign %d not found", id))
}

func (f *fakePlatform) GetCampaignStatistics(ctx context.Context, id int) (*smartlead.Statistics, error) {
	if id == 3 {
		return nil, errors.New("stats unavailable")
	}
	return &smartlead.Statistics{ID: id}, nil
}

func (f *fakePlatform) UpdateFollowUpPercentage(ctx context.Context, id, pct int) (int, error) {
	return id, nil
}

func (f *fakePlatform) ListLeads(ctx context.Context, id int, filter smartlead.LeadFilter) ([]smartlead.CampaignLead, error) {
	return f.leads, nil
}

func (f *fakePlatform) DeleteLeads(ctx context.Context, id int, leadIDs, mapIDs []int) (map[string]any, error) {
	f.deleted = append(f.deleted, leadIDs...)
	return map[string]any{}, nil
}

type okDuplicator struct{}

func (okDuplicator) Duplicate(ctx context.Context, id, delay int, expected *int) (bool, error) {
	return true, nil
}

type oneOrgDirectory struct{}

func (oneOrgDirectory) ActiveOrganizations(ctx context.Context) ([]directory.Organization, error) {
	return []directory.Organization{{ID: "org-1", Name: "Acme"}}, nil
}

func (oneOrgDirectory) Organization(ctx context.Context, id string) (*directory.Organization, error) {
	if id != "org-1" {
		return nil, domain.NewNotFoundError("organization " + id)
	}
	return &directory.Organization{ID: "org-1", Name: "Acme"}, nil
}

func (oneOrgDirectory) CampaignIDsForOrganization(ctx context.Context, id string) ([]int, error) {
	return []int{1, 7}, nil
}

// roofingClassifier flags every Roofing lead
type roofingClassifier struct{}

func (roofingClassifier) Classify(ctx context.Context, leads []classifier.Lead, c classifier.Criteria, progress classifier.ProgressFunc) (*classifier.Result, error) {
	res := &classifier.Result{Decisions: make([]classifier.Decision, len(leads)), Batches: 1}
	for i, l := range leads {
		if l.Industry() == "Roofing" {
			res.Flagged = append(res.Flagged, l)
			res.Decisions[i] = classifier.Decision{Remove: true, Reason: classifier.ReasonBlocklistedIndustry}
		}
	}
	if progress != nil {
		progress(classifier.Progress{Batch: 1, TotalBatches: 1, BatchSize: len(leads), Flagged: len(res.Flagged), Done: true})
	}
	return res, nil
}

type memArchiver struct{}

func (memArchiver) ArchiveFilteredLeads(ctx context.Context, label string, leads []classifier.Lead, format export.Format, now time.Time) (*storage.Artifact, error) {
	name := storage.ArtifactName(label, format, now)
	return &storage.Artifact{Name: name, URL: "file:///tmp/" + name}, nil
}

func TestRunCampaignsList(t *testing.T) {
	platform := &fakePlatform{campaigns: []smartlead.Campaign{
		{ID: 1, Name: "Spring", Status: smartlead.StatusActive, FollowUpPercentage: 40},
		{ID: 2, Name: "Summer", Status: smartlead.StatusPaused},
	}}

	tests := []struct {
		name    string
		status  string
		want    []string
		notWant []string
	}{
		{"all", "", []string{"Spring", "Summer", "2 campaigns"}, nil},
		{"status filter is case insensitive", "active", []string{"Spring", "1 campaigns"}, []string{"Summer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, runCampaignsList(context.Background(), &out, platform, tt.status))
			for _, s := range tt.want {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestRunCampaignsList_Error(t *testing.T) {
	err := runCampaignsList(context.Background(), &bytes.Buffer{}, &fakePlatform{err: errors.New("down")}, "")
	assert.EqualError(t, err, "down")
}

func TestRunFollowUpsAdd(t *testing.T) {
	platform := &fakePlatform{campaigns: []smartlead.Campaign{{ID: 1, Name: "Spring"}, {ID: 3, Name: "Fall"}}}
	flow := workflow.NewFollowUps(platform, okDuplicator{}, nil, logger.Nop(), nil)

	var out bytes.Buffer
	err := runFollowUpsAdd(context.Background(), &out, flow, workflow.FollowUpRequest{
		CampaignIDs:              []int{1, 3},
		ChangeFollowUpPercentage: true,
	})

	assert.EqualError(t, err, "1 of 2 campaigns failed")
	assert.Contains(t, out.String(), "[1/2] Campaign ID: 1, name: Spring")
	assert.Contains(t, out.String(), "[2/2] Campaign ID: 3, name: Fall")
	assert.Contains(t, out.String(), "1 succeeded")
	assert.Contains(t, out.String(), "stats unavailable")
}

func TestRunFollowUpsAdd_Invalid(t *testing.T) {
	flow := workflow.NewFollowUps(&fakePlatform{}, okDuplicator{}, nil, logger.Nop(), nil)
	err := runFollowUpsAdd(context.Background(), &bytes.Buffer{}, flow, workflow.FollowUpRequest{})
	assert.True(t, domain.IsValidation(err))
}

func newLeadFixture() (*workflow.FilterLeads, *fakePlatform, []classifier.Lead) {
	leads := testdata.GenerateLeads(testdata.LeadGeneratorConfig{Count: 4, Seed: 11, Industries: []string{"Roofing"}, EmailChance: 1})
	platform := &fakePlatform{
		campaigns: []smartlead.Campaign{{ID: 1, Name: "Spring"}},
		leads:     testdata.CampaignLeads(leads[:2], 50),
	}
	flow := workflow.NewFilterLeads(workflow.FilterLeadsConfig{
		Directory:  oneOrgDirectory{},
		Client:     platform,
		Classifier: roofingClassifier{},
		Archiver:   memArchiver{},
	}, logger.Nop(), nil)
	return flow, platform, leads
}

func TestRunLeadsFilter(t *testing.T) {
	tests := []struct {
		name        string
		confirm     bool
		wantDeleted []int
		wantOut     string
	}{
		{"dry run", false, nil, "Dry run, pass --yes"},
		{"confirmed", true, []int{50, 51}, "Removed 2 leads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow, platform, leads := newLeadFixture()

			var out bytes.Buffer
			err := runLeadsFilter(context.Background(), &out, flow, leadsFilterInput{
				OrganizationID: "org-1",
				CampaignID:     1,
				Leads:          leads,
				Confirm:        tt.confirm,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantDeleted, platform.deleted)
			assert.Contains(t, out.String(), "4 of 4 leads flagged, 2 found in Campaign ID: 1, name: Spring")
			assert.Contains(t, out.String(), "Error fetching campaign 7", "campaign 7 is not on the platform")
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestRunLeadsFilter_SelectionErrors(t *testing.T) {
	flow, _, leads := newLeadFixture()

	err := runLeadsFilter(context.Background(), &bytes.Buffer{}, flow, leadsFilterInput{OrganizationID: "org-9", CampaignID: 1, Leads: leads})
	assert.True(t, domain.IsNotFound(err))

	err = runLeadsFilter(context.Background(), &bytes.Buffer{}, flow, leadsFilterInput{OrganizationID: "org-1", CampaignID: 99, Leads: leads})
	assert.True(t, domain.IsPrecondition(err))
}

func TestRunToken(t *testing.T) {
	secret := "test-secret-key-minimum-32-characters-long"

	var out bytes.Buffer
	require.NoError(t, runToken(&out, secret, "ops@example.com", time.Hour))

	claims, err := auth.ValidateJWT(string(bytes.TrimSpace(out.Bytes())), secret)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Operator)

	assert.True(t, domain.IsConfiguration(runToken(&bytes.Buffer{}, "", "ops@example.com", time.Hour)))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"campaigns", "list"},
		{"followups", "add"},
		{"leads", "filter"},
		{"token"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	for _, flag := range []string{"organization", "campaign", "file"} {
		f := leadsFilterCmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, []string{"true"}, f.Annotations[cobra.BashCompOneRequiredFlag])
	}
}
