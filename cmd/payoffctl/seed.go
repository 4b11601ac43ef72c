package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"payoff/internal/ledger"
	"payoff/internal/log"
)

var flagSeedDir string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load <user>.json transaction files into the configured backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		seed, err := ledger.ReadSeedDir(flagSeedDir)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			users := make([]string, 0, len(seed))
			for user := range seed {
				users = append(users, user)
			}
			sort.Strings(users)
			for _, user := range users {
				if err := s.backend.Backend.PutTransactions(ctx, user, seed[user]); err != nil {
					return fmt.Errorf("seed %s: %w", user, err)
				}
				s.logger.Info("Seeded transactions", log.FieldOperation, log.OpSeed, log.FieldUser, user, "count", len(seed[user]))
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d transaction(s)\n", user, len(seed[user]))
			}
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&flagSeedDir, "dir", "./data/seed", "Directory of <user>.json files")
	rootCmd.AddCommand(seedCmd)
}
