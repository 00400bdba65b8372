package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/YvesMatteo/GapIntel-sub002/internal/analysis"
	"github.com/YvesMatteo/GapIntel-sub002/internal/config"
	"github.com/YvesMatteo/GapIntel-sub002/internal/db"
	"github.com/YvesMatteo/GapIntel-sub002/internal/handler"
	"github.com/YvesMatteo/GapIntel-sub002/internal/llm"
	"github.com/YvesMatteo/GapIntel-sub002/internal/metrics"
	"github.com/YvesMatteo/GapIntel-sub002/internal/middleware"
	"github.com/YvesMatteo/GapIntel-sub002/internal/platform"
	"github.com/YvesMatteo/GapIntel-sub002/internal/repository"
	"github.com/YvesMatteo/GapIntel-sub002/internal/router"
	"github.com/YvesMatteo/GapIntel-sub002/internal/service"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "gapintel")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	metrics.Init(pool)

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	jobRepo := repository.NewJobRepo(pool)
	reportRepo := repository.NewReportRepo(pool)

	platformClient := platform.NewClient(cfg.PlatformAPIURL, cfg.PlatformAPIKey)
	trendClient := platform.NewTrendClient(platformClient)
	llmClient := llm.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey)

	ingest := service.NewIngestService(platformClient)
	jobSvc := service.NewJobService(jobRepo, reportRepo, cache, cfg.Pipeline.StuckThreshold)
	pipeline := service.NewPipelineService(
		jobRepo, reportRepo, ingest,
		analysis.Gate{MinVideos: cfg.Pipeline.MinVideos, MinComments: cfg.Pipeline.MinComments},
		cfg.Pipeline.ScorerParallelism,
		llmClient, trendClient, llmClient,
	)

	jobWorker := service.NewJobWorker(pool, jobRepo, pipeline,
		cfg.Pipeline.PollInterval, cfg.Pipeline.JobConcurrency)
	recoveryWorker := service.NewRecoveryWorker(jobRepo, cfg.Pipeline)
	go jobWorker.Start(ctx)
	go recoveryWorker.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "GapIntel API",
		ServerHeader: "GapIntel",
	})

	h := &router.Handlers{
		Job:    handler.NewJobHandler(jobSvc, cache),
		Report: handler.NewReportHandler(jobSvc),
		Stats:  handler.NewStatsHandler(jobSvc),
		Health: handler.NewHealthHandler(pool, cache.Client()),
	}
	router.Setup(app, h, cfg.CORSOrigins)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
		os.Exit(1)
	}
}
