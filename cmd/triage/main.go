// Command triage runs the lead triage workflows from a terminal
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jordanlanch/leadtriage/config"
	"github.com/jordanlanch/leadtriage/pkg/app"
	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/spf13/cobra"
)

var logLevel string

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Remove off-target leads and add follow-up rounds to campaigns",
	Long: `triage runs the operator workflows against the campaign platform.

Available commands:
  campaigns - List campaigns and their follow-up eligibility
  followups - Add follow-up rounds to campaigns
  leads     - Classify an uploaded lead file and remove flagged leads
  token     - Mint an operator token for the API`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(campaignsCmd, followupsCmd, leadsCmd, tokenCmd)
}

// newApp loads configuration from the environment and wires the services
func newApp(ctx context.Context) (*app.App, error) {
	cfg := config.Load()
	return app.New(ctx, cfg, logger.NewWithFormat(logLevel, "text", os.Stderr))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
