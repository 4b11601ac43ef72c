package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"payoff/internal/cli"
	"payoff/internal/core"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare Snowball and Avalanche on minimum payments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			cmp, err := s.plans.Comparison(ctx, s.user)
			if errors.Is(err, core.ErrNoEligibleDebts) {
				fmt.Fprint(cmd.OutOrStdout(), cli.RenderEmptyState("Nothing to compare: no eligible debts."))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderComparison(cmp))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
}
