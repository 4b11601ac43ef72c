package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"payoff/internal/cli"
	"payoff/internal/config"
	"payoff/internal/storage"
)

var milestonesCmd = &cobra.Command{
	Use:   "milestones",
	Short: "List recorded paid-off milestones (sqlite backend)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		if cfg.DataBackend != config.BackendSQLite {
			return fmt.Errorf("milestones are only stored by the sqlite backend")
		}
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return err
		}
		defer repo.Close()

		user := flagUser
		if user == "" {
			user = cfg.DefaultUser
		}
		ms, err := repo.ListMilestones(cmd.Context(), user)
		if err != nil {
			return err
		}
		if len(ms) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No milestones recorded.")
			return nil
		}

		rows := make([][]string, 0, len(ms))
		for _, m := range ms {
			rows = append(rows, []string{m.DebtID, m.Kind, m.OccurredAt.Local().Format(time.DateTime)})
		}
		fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.Table{
			Title:   "Milestones for " + user,
			Headers: []string{"Debt", "Event", "At"},
			Rows:    rows,
		}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(milestonesCmd)
}
