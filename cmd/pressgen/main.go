package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yazgan/pressgen/internal/ai"
	"github.com/yazgan/pressgen/internal/api"
	"github.com/yazgan/pressgen/internal/archive"
	"github.com/yazgan/pressgen/internal/cache"
	"github.com/yazgan/pressgen/internal/config"
	"github.com/yazgan/pressgen/internal/feed"
	"github.com/yazgan/pressgen/internal/image"
	"github.com/yazgan/pressgen/internal/logger"
	"github.com/yazgan/pressgen/internal/middleware"
	"github.com/yazgan/pressgen/internal/pipeline"
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
	log.Info().Str("env", cfg.Env).Msg("starting pressgen")

	var processed cache.ProcessedCache
	processed, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory dedupe cache")
		processed = cache.NewMemoryCache()
	}
	defer func() {
		if err := processed.Close(); err != nil {
			log.Error().Err(err).Msg("error closing dedupe cache")
		}
	}()

	articleRepo, err := storage.NewArticleRepo(cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize article storage")
	}
	publicationRepo, err := storage.NewPublicationRepo(cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize publication storage")
	}
	imageRepo, err := storage.NewImageRepo(cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize image storage")
	}

	provider := ai.NewClient(cfg.AIApiKey, cfg.AIModel,
		ai.WithTimeout(cfg.AITimeout),
		ai.WithGenerationParams(cfg.Temperature, cfg.AIMaxTokens),
	)

	wpClient := wordpress.NewClient(cfg.HTTPTimeout)

	var imageOpts []image.PipelineOption
	if cfg.ImageSearchAPIKey != "" {
		imageOpts = append(imageOpts, image.WithSearchProvider(image.NewPexelsProvider(cfg.ImageSearchAPIKey)))
	}
	if cfg.ImageGenAPIKey != "" {
		imageOpts = append(imageOpts, image.WithGenerationProvider(
			image.NewDallEProvider(cfg.ImageGenAPIKey, cfg.ImageGenModel), cfg.ImageSize))
	}
	imagePipeline := image.NewPipeline(imageOpts...)
	downloader := image.NewDownloader(cfg.DownloadTimeout)

	orchestratorOpts := []pipeline.Option{
		pipeline.WithImageStage(imagePipeline, downloader, wpClient, imageRepo),
	}
	if cfg.HasR2Archive() {
		r2, err := archive.NewR2Archive(context.Background(), archive.Config{
			Endpoint:  cfg.R2Endpoint,
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
		})
		if err != nil {
			log.Warn().Err(err).Msg("media archive disabled")
		} else {
			orchestratorOpts = append(orchestratorOpts, pipeline.WithArchiver(r2))
		}
	}
	orchestrator := pipeline.NewOrchestrator(provider, orchestratorOpts...)

	pubService := publisher.NewService(publicationRepo, wpClient, publisher.LogSink{})

	handlers := api.NewHandlers(cfg,
		feed.NewProcessor(processed),
		orchestrator,
		pubService,
		articleRepo,
		publicationRepo,
		imageRepo,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: middleware.ErrorHandler,
	})

	api.SetupRoutes(app, handlers, cfg.AdminAPIKey)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
