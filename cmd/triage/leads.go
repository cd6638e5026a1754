package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jordanlanch/leadtriage/pkg/classifier"
	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/leadimport"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
	"github.com/jordanlanch/leadtriage/pkg/workflow"
	"github.com/spf13/cobra"
)

var (
	filterOrganization string
	filterCampaign     int
	filterFile         string
	filterCriteria     classifier.Criteria
	filterConfirm      bool
)

// leadsCmd groups lead commands
var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Work with campaign leads",
}

// leadsFilterCmd classifies a lead file and optionally removes the flagged leads
var leadsFilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Flag off-target leads of a campaign and remove them",
	Long: `Classify a lead file against semicolon separated filter lists, archive the
flagged leads and match them by email against the campaign's leads.

Without --yes the matched leads are only listed. With --yes they are removed
from the campaign.`,
	Example: `  triage leads filter --organization org-1 --campaign 101 --file leads.csv \
    --blocklisted-industries "Roofing;Pest Control" --whitelisted-areas "Texas"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(filterFile)
		if err != nil {
			return err
		}
		defer f.Close()

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if a.FilterLeads == nil {
			return domain.NewConfigurationError("DATABASE_URL is required to filter leads")
		}

		leads, err := leadimport.ParseCSV(f, a.CSV)
		if err != nil {
			return err
		}
		return runLeadsFilter(cmd.Context(), cmd.OutOrStdout(), a.FilterLeads, leadsFilterInput{
			OrganizationID: filterOrganization,
			CampaignID:     filterCampaign,
			Leads:          leads,
			Criteria:       filterCriteria,
			Confirm:        filterConfirm,
		})
	},
}

func init() {
	flags := leadsFilterCmd.Flags()
	flags.StringVar(&filterOrganization, "organization", "", "organization id owning the campaign")
	flags.IntVar(&filterCampaign, "campaign", 0, "campaign id")
	flags.StringVar(&filterFile, "file", "", "lead CSV file")
	flags.StringVar(&filterCriteria.BlocklistedIndustries, "blocklisted-industries", "", "industries to remove")
	flags.StringVar(&filterCriteria.WhitelistedIndustries, "whitelisted-industries", "", "industries to keep")
	flags.StringVar(&filterCriteria.WhitelistedAreas, "whitelisted-areas", "", "areas to keep")
	flags.BoolVar(&filterConfirm, "yes", false, "remove the matched leads")
	_ = leadsFilterCmd.MarkFlagRequired("organization")
	_ = leadsFilterCmd.MarkFlagRequired("campaign")
	_ = leadsFilterCmd.MarkFlagRequired("file")
	leadsCmd.AddCommand(leadsFilterCmd)
}

type leadsFilterInput struct {
	OrganizationID string
	CampaignID     int
	Leads          []classifier.Lead
	Criteria       classifier.Criteria
	Confirm        bool
}

// leadFilter is the filter-leads workflow as driven from the terminal
type leadFilter interface {
	SelectOrganization(ctx context.Context, st workflow.FilterState, orgID string) (workflow.FilterState, error)
	SelectCampaign(st workflow.FilterState, campaignID int) (workflow.FilterState, error)
	Classify(ctx context.Context, st workflow.FilterState, uploaded []classifier.Lead, criteria classifier.Criteria, progress classifier.ProgressFunc) (workflow.FilterState, error)
	ConfirmRemoval(ctx context.Context, st workflow.FilterState) (workflow.FilterState, error)
}

func runLeadsFilter(ctx context.Context, out io.Writer, flow leadFilter, in leadsFilterInput) error {
	st, err := flow.SelectOrganization(ctx, workflow.NewFilterState(), in.OrganizationID)
	if err != nil {
		return err
	}
	for _, f := range st.CampaignFailures {
		fmt.Fprintf(out, "⚠️  %s\n", f.Error)
	}

	st, err = flow.SelectCampaign(st, in.CampaignID)
	if err != nil {
		return err
	}

	st, err = flow.Classify(ctx, st, in.Leads, in.Criteria, func(p classifier.Progress) {
		if p.Done {
			fmt.Fprintf(out, "[%d/%d] %d flagged\n", p.Batch, p.TotalBatches, p.Flagged)
		}
	})
	var pageErr *smartlead.PaginationError
	if err != nil && !errors.As(err, &pageErr) {
		return err
	}
	if st.LastError != "" {
		fmt.Fprintf(out, "⚠️  %s\n", st.LastError)
	}

	fmt.Fprintf(out, "%d of %d leads flagged, %d found in %s\n",
		len(st.LeadsToRemove), st.Uploaded, len(st.Matched), workflow.CampaignLabel(st.CampaignID, st.CampaignName))
	if st.ArtifactURL != "" {
		fmt.Fprintf(out, "Filtered leads: %s\n", st.ArtifactURL)
	}
	for _, m := range st.Matched {
		fmt.Fprintf(out, "  %d\t%s\n", m.LeadID, m.Email)
	}

	if len(st.Matched) == 0 {
		return nil
	}
	if !in.Confirm {
		fmt.Fprintln(out, "Dry run, pass --yes to remove these leads")
		return nil
	}

	st, err = flow.ConfirmRemoval(ctx, st)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "🧹 Removed %d leads\n", st.RemovedCount)
	return nil
}
