package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jordanlanch/leadtriage/pkg/smartlead"
	"github.com/spf13/cobra"
)

var campaignStatus string

// campaignsCmd groups campaign commands
var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "Inspect campaigns",
}

// campaignsListCmd lists campaigns
var campaignsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	Long: `List every campaign of the account.

Use --status to show only campaigns in one state (ACTIVE, PAUSED, COMPLETED, DRAFTED, ARCHIVED).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runCampaignsList(cmd.Context(), cmd.OutOrStdout(), a.Smartlead, campaignStatus)
	},
}

func init() {
	campaignsListCmd.Flags().StringVar(&campaignStatus, "status", "", "only list campaigns with this status")
	campaignsCmd.AddCommand(campaignsListCmd)
}

type campaignLister interface {
	ListCampaigns(ctx context.Context) ([]smartlead.Campaign, error)
}

func runCampaignsList(ctx context.Context, out io.Writer, lister campaignLister, status string) error {
	campaigns, err := lister.ListCampaigns(ctx)
	if err != nil {
		return err
	}

	status = strings.ToUpper(status)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tFOLLOW-UP %\tNAME")
	shown := 0
	for _, c := range campaigns {
		if status != "" && string(c.Status) != status {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", c.ID, c.Status, c.FollowUpPercentage, c.Name)
		shown++
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d campaigns\n", shown)
	return nil
}
