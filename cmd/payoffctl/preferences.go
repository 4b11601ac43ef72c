package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"payoff/internal/core"
)

var chooseCmd = &cobra.Command{
	Use:   "choose <snowball|avalanche|none>",
	Short: "Choose the payoff method",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := args[0]
		if raw == "none" {
			raw = ""
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			method, err := s.plans.ChooseMethod(ctx, s.user, raw)
			if err != nil {
				return err
			}
			if method == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Payoff method cleared.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Payoff method set to %s.\n", method)
			return nil
		})
	},
}

var allocateCmd = &cobra.Command{
	Use:   "allocate <amount>",
	Short: "Set the extra monthly payment on top of minimums",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			extra, err := s.plans.SetAllocation(ctx, s.user, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extra payment set to %s/mo.\n", core.FormatMoney(extra))
			return nil
		})
	},
}

var markCmd = &cobra.Command{
	Use:   "mark <debt-id>",
	Short: "Toggle the paid-off mark on a debt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			toggled, err := s.plans.TogglePaidOff(ctx, s.user, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s.\n", toggled.DebtID, toggled.State)
			if !toggled.Persisted {
				return fmt.Errorf("mark on %s could not be saved", toggled.DebtID)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(chooseCmd, allocateCmd, markCmd)
}
