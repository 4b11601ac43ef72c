package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"payoff/internal/cache"
	"payoff/internal/cli"
	"payoff/internal/core"
	apphttp "payoff/internal/http"
	"payoff/internal/log"
	"payoff/internal/progress"
	"payoff/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting payoff server", log.FieldOperation, log.OpStartup,
		"port", cfg.Port, "backend", cfg.DataBackend, "preferences", cfg.PreferencesBackend)

	backend, err := cli.InitBackend(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}

	// The API keeps serving without a broker; marks are still stored.
	var notifier progress.Notifier
	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Warn("AMQP unavailable, progress events will not be published", log.FieldError, err)
	} else if amqpClient != nil {
		notifier = amqpClient
	}

	comparisonMemo := cache.NewLRUCache[core.ComparisonResult](cfg.PlanCacheSize, cfg.PlanCacheTTL)
	planMemo := cache.NewLRUCache[core.SimulationResult](cfg.PlanCacheSize, cfg.PlanCacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(comparisonMemo)
	cacheManager.Register(planMemo)
	cacheManager.StartCleanup(cfg.PlanCacheTTL)

	svc := services.NewPlanService(backend.Backend, backend.Backend, services.PlanOptions{
		Notifier:       notifier,
		ComparisonMemo: comparisonMemo,
		PlanMemo:       planMemo,
		WriteRetries:   cfg.ProgressWriteRetries,
		Logger:         logger,
	})

	checks := map[string]apphttp.Check{"storage": backend.Backend.Ping}
	if amqpClient != nil {
		checks["amqp"] = func(context.Context) error { return amqpClient.Ping() }
	}
	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.ServerOptions{
		Logger:         logger,
		DefaultUser:    cfg.DefaultUser,
		ReadyChecks:    checks,
		TrustedProxies: cfg.TrustedProxies,
		Caches: map[string]apphttp.StatsReporter{
			"comparison": comparisonMemo,
			"plan":       planMemo,
		},
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if backend.Cleanup != nil {
			if err := backend.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
