package main

import (
	"fmt"
	"os"
	"time"

	"payoff/internal/cli"
	"payoff/internal/log"
	"payoff/internal/storage"
	"payoff/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting payoff-worker", log.FieldOperation, log.OpStartup)

	if !cfg.UsesAMQP() {
		logger.Error("AMQP_URL is required for the milestone worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		repo.Close()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	w := worker.NewMilestoneWorker(repo, logger)
	runErr := w.Run(ctx, amqpClient)

	amqpClient.Close()
	repo.Close()
	if runErr != nil {
		logger.Error("Milestone worker failed", log.FieldError, runErr)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
