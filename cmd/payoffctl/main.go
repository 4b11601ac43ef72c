// Command payoffctl runs payoff comparisons and edits preferences from the
// terminal against the configured backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"payoff/internal/backend"
	"payoff/internal/cli"
	"payoff/internal/config"
	"payoff/internal/log"
	"payoff/internal/progress"
	"payoff/internal/services"
)

var (
	flagUser    string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "payoffctl",
	Short:         "Debt payoff planner",
	Long:          "Compare Snowball and Avalanche payoff strategies and manage your payoff plan.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	cli.LoadEnvFile()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User id (defaults to DEFAULT_USER)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log to stderr at debug level")
}

// session bundles what a command needs and how to release it.
type session struct {
	cfg     *config.Config
	user    string
	logger  *log.Logger
	backend *backend.BackendResult
	plans   *services.PlanService
	close   func()
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentCLI,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	})

	res, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	var notifier progress.Notifier
	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Warn("AMQP unavailable, progress events will not be published", log.FieldError, err)
	} else if amqpClient != nil {
		notifier = amqpClient
	}

	user := flagUser
	if user == "" {
		user = cfg.DefaultUser
	}

	return &session{
		cfg:     cfg,
		user:    user,
		logger:  logger,
		backend: res,
		plans: services.NewPlanService(res.Backend, res.Backend, services.PlanOptions{
			Notifier:     notifier,
			WriteRetries: cfg.ProgressWriteRetries,
			Logger:       logger,
		}),
		close: func() {
			if amqpClient != nil {
				amqpClient.Close()
			}
			if res.Cleanup != nil {
				res.Cleanup()
			}
		},
	}, nil
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(ctx, s)
}
