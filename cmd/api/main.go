package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/histpatch/backend/internal/api/handlers"
	"github.com/histpatch/backend/internal/cache/redis"
	"github.com/histpatch/backend/internal/contributors"
	"github.com/histpatch/backend/internal/dataset"
	"github.com/histpatch/backend/internal/diagnostic"
	"github.com/histpatch/backend/internal/metrics"
	"github.com/histpatch/backend/internal/middleware/ratelimit"
	"github.com/histpatch/backend/internal/middleware/security"
	"github.com/histpatch/backend/internal/middleware/validation"
	"github.com/histpatch/backend/internal/preview"
	"github.com/histpatch/backend/internal/storage/sqlite"
	"github.com/histpatch/backend/pkg/config"
	appLogger "github.com/histpatch/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting HistPatch API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	var enricher *dataset.Enricher
	if cfg.Dataset.EnrichKeywords {
		enricher = dataset.NewEnricher()
	}

	store := dataset.NewStore(
		cfg.Dataset.BaseURL,
		cfg.Dataset.ManifestPath,
		cfg.Dataset.LogsPath,
		time.Duration(cfg.Dataset.FetchTimeout)*time.Second,
		enricher,
	)

	// Manifest failure is fatal: without the shard index there is no feed.
	if err := store.LoadManifest(context.Background()); err != nil {
		appLogger.Fatal("Failed to load dataset manifest", zap.Error(err))
	}

	var provider diagnostic.Provider
	if cfg.Diagnostic.Provider == "relay" {
		provider = diagnostic.NewRelayProvider(cfg.Diagnostic.RelayURL, cfg.Diagnostic.TimeoutSec)
	} else {
		provider = diagnostic.NewOpenAIProvider(
			cfg.Diagnostic.APIKey,
			cfg.Diagnostic.Model,
			cfg.Diagnostic.Temperature,
			cfg.Diagnostic.MaxTokens,
			cfg.Diagnostic.TimeoutSec,
		)
	}

	diagnosticService := diagnostic.NewService(provider, cacheClient, sqliteClient, cfg.Diagnostic.CacheTTLSec)

	contributorsClient := contributors.NewClient(
		cfg.Contributors.APIBaseURL,
		cfg.Contributors.Owner,
		cfg.Contributors.Repo,
		cfg.Contributors.TimeoutSec,
		cfg.Contributors.CacheTTLSec,
		cacheClient,
	)

	previewClient := preview.NewClient(10 * time.Second)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: []string{cfg.Dataset.BaseURL},
	}))

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()
	app.Use(rateLimiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	feedHandler := handlers.NewFeedHandler(store)
	tickerHandler := handlers.NewTickerHandler(store)
	diagnosticHandler := handlers.NewDiagnosticHandler(diagnosticService, sqliteClient)
	contributorsHandler := handlers.NewContributorsHandler(contributorsClient)
	previewHandler := handlers.NewPreviewHandler(store, previewClient)
	wsHandler := handlers.NewWebSocketHandler(diagnosticService, cfg.Diagnostic.ScanDelayMS)

	api := app.Group("/api/v1")

	api.Get("/manifest", feedHandler.GetManifest)
	api.Get("/feed", feedHandler.GetFeed)
	api.Get("/ticker", tickerHandler.GetTicker)
	api.Get("/logs/:id/preview", previewHandler.GetPreview)

	api.Post("/diagnostic", diagnosticHandler.RunDiagnostic)
	api.Get("/diagnostic/history", diagnosticHandler.GetHistory)

	api.Get("/contributors", contributorsHandler.GetContributors)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/diagnostic", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
