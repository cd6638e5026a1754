package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jordanlanch/leadtriage/config"
	"github.com/jordanlanch/leadtriage/pkg/auth"
	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/secrets"
	"github.com/spf13/cobra"
)

var (
	tokenOperator string
	tokenTTL      time.Duration
)

// tokenCmd mints an operator JWT signed with OPERATOR_JWT_SECRET
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator token for the API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if sc := secrets.AutoDetectConfig(); sc.Backend != "env" {
			mgr, err := secrets.NewManager(sc)
			if err != nil {
				return err
			}
			if _, err := secrets.Fill(cmd.Context(), mgr, map[string]*string{"OPERATOR_JWT_SECRET": &cfg.OperatorJWTSecret}); err != nil {
				return err
			}
		}
		return runToken(cmd.OutOrStdout(), cfg.OperatorJWTSecret, tokenOperator, tokenTTL)
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "operator identity, usually an email")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("operator")
}

func runToken(out io.Writer, secret, operator string, ttl time.Duration) error {
	if secret == "" {
		return domain.NewConfigurationError("OPERATOR_JWT_SECRET is not set")
	}
	token, err := auth.GenerateJWT(operator, secret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
