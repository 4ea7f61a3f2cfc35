// Package main is the entry point of the bundlehub HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bundlehub/internal/config"
	"bundlehub/internal/events"
	"bundlehub/internal/handlers"
	"bundlehub/internal/logger"
	"bundlehub/internal/metrics"
	"bundlehub/internal/middleware"
	"bundlehub/internal/repositories"
	"bundlehub/internal/repositories/cache"
	"bundlehub/internal/routes"
	"bundlehub/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, err := repositories.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	if err := repositories.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cacheService := cache.NewCacheService(redisClient, cfg.Redis.WalletTTL)
	defer func() {
		if err := cacheService.Close(); err != nil {
			log.Warn("failed to close redis", zap.Error(err))
		}
	}()

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := cacheService.HealthCheck(pingCtx); err != nil {
		// Balances fall back to the database; invalidation failures are logged.
		log.Warn("redis unavailable at startup", zap.Error(err))
	}
	cancel()

	publisher := newPublisher(cfg.Events, redisClient, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:      "bundlehub",
		ErrorHandler: handlers.ErrorHandler(log),
		ReadTimeout:  30 * time.Second,
		// Covers the longest delivery schedule: three 15s attempts plus backoff.
		WriteTimeout: 90 * time.Second,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	authLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, "RATE_LIMITED",
				"Too many requests. Please try again later.", true)
		},
	})
	app.Use("/api/auth/register", authLimiter)
	app.Use("/api/auth/login", authLimiter)

	if err := routes.SetupRoutes(app, routes.Dependencies{
		Config:    cfg,
		DB:        db,
		Cache:     cacheService,
		Publisher: publisher,
		Metrics:   metrics.NewCollector(),
		Logger:    log,
	}); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	return app.ShutdownWithTimeout(shutdownTimeout)
}

func newPublisher(cfg config.EventsConfig, client redis.UniversalClient, log *zap.Logger) events.Publisher {
	switch cfg.Driver {
	case "kafka":
		log.Info("publishing events to kafka", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
		return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, log.Named("kafka"))
	case "redis":
		log.Info("publishing events to redis", zap.String("channel", cfg.Channel))
		return events.NewRedisPublisher(client, cfg.Channel)
	default:
		return events.NoopPublisher{}
	}
}
