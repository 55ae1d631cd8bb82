// Package main is the entrypoint for the interaction ingestion worker.
//
// In queued mode the API enqueues interaction events to Redis and this
// worker drains them into Postgres. Delivery is at-least-once; the
// repository deduplicates by event ID, so redelivered events are
// absorbed without double counting.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/learnloop/learnloop-core/config"
	"github.com/learnloop/learnloop-core/internal/infrastructure/persistence/postgres"
	"github.com/learnloop/learnloop-core/internal/infrastructure/persistence/redis"
	"github.com/learnloop/learnloop-core/internal/infrastructure/worker"
	"github.com/learnloop/learnloop-core/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	}).With(logger.Component("worker"))

	if cfg.Ingestion.Mode != config.IngestQueued {
		// Sync deployments persist inside the request; there is nothing
		// for a worker to drain.
		return fmt.Errorf("worker requires INGEST_MODE=queued, got %q", cfg.Ingestion.Mode)
	}

	log.Info("starting ingestion worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("queue", cfg.Ingestion.QueueName),
		logger.Int("concurrency", cfg.Ingestion.ConsumerConcurrency),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 2. POSTGRES
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.Connect(ctx, cfg.Database.URL, postgres.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	interactionRepo := postgres.NewInteractionRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS QUEUE
	// ─────────────────────────────────────────────────────────────────────────
	redisClient, err := newRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	queue := redis.NewQueue(redisClient, cfg.Ingestion.QueueName)

	// Requeue anything a crashed worker left in flight.
	recovered, err := queue.RecoverInFlight(ctx)
	if err != nil {
		log.Warn("in-flight recovery failed", logger.Err(err))
	} else if recovered > 0 {
		log.Info("recovered in-flight interactions", logger.Int("count", recovered))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. CONSUMER
	// ─────────────────────────────────────────────────────────────────────────
	consumer := worker.NewConsumer(queue, interactionRepo, worker.Config{
		BlockTimeout: cfg.Ingestion.ConsumerBlockTimeout,
		Concurrency:  cfg.Ingestion.ConsumerConcurrency,
		Logger:       log,
	})

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("consumer stopped: %w", err)
	}

	stats := consumer.Stats()
	log.Info("worker stopped",
		logger.Int64("persisted", stats.Persisted),
		logger.Int64("duplicates", stats.Duplicates),
		logger.Int64("malformed", stats.Malformed),
		logger.Int64("rejected", stats.Rejected),
	)

	return nil
}

// newRedisClient connects using the URL when present, otherwise the
// individual host settings.
func newRedisClient(cfg *config.Config) (*goredis.Client, error) {
	if cfg.Redis.URL != "" {
		return redis.NewClientFromURL(cfg.Redis.URL)
	}

	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return redis.NewClient(rc)
}
