package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jordanlanch/leadtriage/pkg/workflow"
	"github.com/spf13/cobra"
)

var (
	followUpCampaigns      []int
	followUpDelay          int
	followUpRaise          bool
	followUpExpectedLength int
)

// followupsCmd groups follow-up commands
var followupsCmd = &cobra.Command{
	Use:   "followups",
	Short: "Manage follow-up rounds",
}

// followupsAddCmd appends a follow-up round to each campaign
var followupsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a follow-up round to campaigns",
	Long: `Duplicate each campaign's sequence as a new follow-up round.

With --raise-percentage, campaigns that have sent to at least 70% of their
leads (or have no leads) get their follow-up percentage raised to 90 first.
A campaign that fails is reported and the rest are still processed.`,
	Example: `  triage followups add --campaign 101 --campaign 102 --delay 3 --raise-percentage`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		req := workflow.FollowUpRequest{
			CampaignIDs:              followUpCampaigns,
			DelayPeriod:              followUpDelay,
			ChangeFollowUpPercentage: followUpRaise,
		}
		if cmd.Flags().Changed("expected-length") {
			req.ExpectedSequenceLength = &followUpExpectedLength
		}
		return runFollowUpsAdd(cmd.Context(), cmd.OutOrStdout(), a.FollowUps, req)
	},
}

func init() {
	followupsAddCmd.Flags().IntSliceVar(&followUpCampaigns, "campaign", nil, "campaign id (repeatable)")
	followupsAddCmd.Flags().IntVar(&followUpDelay, "delay", 0, "days between the last step and the new round")
	followupsAddCmd.Flags().BoolVar(&followUpRaise, "raise-percentage", false, "raise the follow-up percentage of qualifying campaigns")
	followupsAddCmd.Flags().IntVar(&followUpExpectedLength, "expected-length", 0, "skip campaigns that already have at least this many steps")
	followupsCmd.AddCommand(followupsAddCmd)
}

type followUpRunner interface {
	Run(ctx context.Context, req workflow.FollowUpRequest, progress workflow.FollowUpProgress) (*workflow.FollowUpReport, error)
}

func runFollowUpsAdd(ctx context.Context, out io.Writer, flow followUpRunner, req workflow.FollowUpRequest) error {
	report, err := flow.Run(ctx, req, func(processed, total int, label string) {
		fmt.Fprintf(out, "[%d/%d] %s\n", processed, total, label)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n✅ %d succeeded, ❌ %d failed\n", len(report.Successful), len(report.Failed))
	for _, o := range report.Failed {
		fmt.Fprintf(out, "  %s: %s\n", o.CampaignName, o.Error)
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d campaigns failed", len(report.Failed), report.Total)
	}
	return nil
}
