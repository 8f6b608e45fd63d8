// The worker sweeps claimable publications on a cron schedule: due
// scheduled publications are promoted and published, failed ones are
// retried until their budget runs out.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/yazgan/pressgen/internal/config"
	"github.com/yazgan/pressgen/internal/logger"
	"github.com/yazgan/pressgen/internal/publisher"
	"github.com/yazgan/pressgen/internal/storage"
	"github.com/yazgan/pressgen/internal/wordpress"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: cfg.LogFile,
		Pretty: cfg.Env == "development",
	}); err != nil {
		panic(err)
	}

	log := logger.Get()

	if !cfg.HasWordPressTarget() {
		log.Fatal().Msg("worker requires a configured publish target")
	}

	publicationRepo, err := storage.NewPublicationRepo(cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize publication storage")
	}

	svc := publisher.NewService(publicationRepo, wordpress.NewClient(cfg.HTTPTimeout), publisher.LogSink{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New()
	sweeping := make(chan struct{}, 1)
	_, err = c.AddFunc(cfg.WorkerSchedule, func() {
		// Skip a tick while the previous sweep is still running;
		// the aggregate expects a single writer.
		select {
		case sweeping <- struct{}{}:
		default:
			log.Warn().Msg("previous sweep still running, skipping tick")
			return
		}
		defer func() { <-sweeping }()

		if err := svc.ProcessDue(ctx); err != nil {
			log.Error().Err(err).Msg("sweep failed")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.WorkerSchedule).Msg("invalid worker schedule")
	}

	c.Start()
	log.Info().Str("schedule", cfg.WorkerSchedule).Msg("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("stopping worker")
	cancel()
	<-c.Stop().Done()
	log.Info().Msg("worker exited")
}
