package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/scheduler"
)

const (
	requestTimeout  = 15 * time.Minute
	shutdownTimeout = 30 * time.Second
)

func main() {
	once := flag.Bool("once", false, "Trigger one batch sync and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()
	log = log.Named("sync-cron")

	if cfg.Sync.CronSecret == "" {
		log.Fatal("STORESYNC_SYNC_CRON_SECRET is required; the gateway refuses cron calls without it")
	}

	gateway := scheduler.NewGatewayClient(cfg.Sync.GatewayURL, cfg.Sync.CronSecret, requestTimeout)
	trigger, err := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
		Schedule:   cfg.Sync.CronSchedule,
		RunTimeout: requestTimeout,
	}, gateway, log)
	if err != nil {
		log.Fatal("Failed to create cron trigger", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if _, err := trigger.RunOnce(ctx); err != nil {
			log.Error("Batch sync failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := trigger.Start(ctx); err != nil {
		log.Fatal("Failed to start cron trigger", zap.Error(err))
	}
	log.Info("Waiting for schedule", zap.String("gateway_url", cfg.Sync.GatewayURL))

	<-ctx.Done()
	log.Info("Shutting down sync cron...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := trigger.Stop(shutdownCtx); err != nil {
		log.Error("Cron trigger did not stop cleanly", zap.Error(err))
	}
}
