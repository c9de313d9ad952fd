package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/gasdrop-backend/internal/agents"
	"github.com/angelmondragon/gasdrop-backend/internal/cron"
	"github.com/angelmondragon/gasdrop-backend/internal/orders"
	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	"github.com/angelmondragon/gasdrop-backend/pkg/db"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
	"github.com/angelmondragon/gasdrop-backend/pkg/metrics"
	"github.com/angelmondragon/gasdrop-backend/pkg/migrate"
	"github.com/angelmondragon/gasdrop-backend/pkg/outbox"
	"github.com/angelmondragon/gasdrop-backend/pkg/redis"
)

const lockName = "cron-worker"

type options struct {
	once bool
	job  string
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:           "cron-worker",
		Short:         "Runs scheduled maintenance jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}
	cmd.Flags().BoolVar(&opts.once, "once", false, "run every job once and exit")
	cmd.Flags().StringVar(&opts.job, "job", "", "run a single named job and exit")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		return err
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		return err
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		return err
	}

	location := cfg.Cron.Location()
	agentStats, err := cron.NewAgentStatsJob(cron.AgentStatsJobParams{
		Logger:    logg,
		Agents:    agents.NewRepository(dbClient.DB()),
		Orders:    orders.NewRepository(dbClient.DB()),
		WeekStart: cfg.Cron.WeekStart(),
		Location:  location,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create agent stats job", err)
		return err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outbox.NewRepository(dbClient.DB()),
		Retention:  cfg.Outbox.Retention,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:       logg,
		Registry:     cron.NewRegistry(agentStats, retention),
		Lock:         lock,
		Metrics:      metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Schedule:     cfg.Cron.Schedule,
		Location:     location,
		RunOnStartup: cfg.Cron.RunOnStartup,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	switch {
	case opts.job != "":
		logg.Info(ctx, "running single cron job")
		return service.RunJob(ctx, opts.job)
	case opts.once:
		logg.Info(ctx, "running cron jobs once")
		return service.RunOnce(ctx)
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		return err
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
	return nil
}
