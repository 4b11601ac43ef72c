package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"payoff/internal/cli"
	"payoff/internal/core"
	"payoff/internal/services"
)

var (
	flagMethod   string
	flagExtra    string
	flagTimeline bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the action plan for the chosen method",
	Long: "Show the action plan for the chosen method and stored extra payment.\n" +
		"With --method the plan is a preview and stored preferences are left alone.",
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&flagMethod, "method", "", "Preview with this method (snowball|avalanche)")
	planCmd.Flags().StringVar(&flagExtra, "extra", "0", "Extra monthly payment for a preview")
	planCmd.Flags().BoolVar(&flagTimeline, "timeline", false, "Print the month by month timeline")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		var (
			plan services.Plan
			err  error
		)
		if flagMethod != "" {
			method, perr := core.ParseMethod(flagMethod)
			if perr != nil {
				return perr
			}
			plan, err = s.plans.Preview(ctx, s.user, method, flagExtra)
		} else {
			plan, err = s.plans.ActionPlan(ctx, s.user)
		}
		if errors.Is(err, core.ErrNoEligibleDebts) {
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderEmptyState("Nothing to plan: no eligible debts."))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), cli.RenderPlan(plan, flagTimeline))
		return nil
	})
}
