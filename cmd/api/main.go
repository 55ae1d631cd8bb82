// Package main is the entrypoint for the learning platform API server.
//
// The API serves the learner-facing REST surface: auth, content
// delivery, hints, quizzes, interaction ingestion, reports, the
// dashboard, and the payment webhook.
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
	"github.com/learnloop/learnloop-core/internal/application/command"
	"github.com/learnloop/learnloop-core/internal/application/eventhandler"
	"github.com/learnloop/learnloop-core/internal/application/query"
	"github.com/learnloop/learnloop-core/internal/application/saga"
	"github.com/learnloop/learnloop-core/internal/domain/interaction"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
	"github.com/learnloop/learnloop-core/internal/infrastructure/external/drive"
	"github.com/learnloop/learnloop-core/internal/infrastructure/external/engine"
	"github.com/learnloop/learnloop-core/internal/infrastructure/ingest"
	"github.com/learnloop/learnloop-core/internal/infrastructure/messaging"
	"github.com/learnloop/learnloop-core/internal/infrastructure/persistence/postgres"
	"github.com/learnloop/learnloop-core/internal/infrastructure/persistence/redis"
	httpapi "github.com/learnloop/learnloop-core/internal/interface/http"
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
	})
	log.Info("starting API server",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("ingest_mode", string(cfg.Ingestion.Mode)),
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
		log.Info("database schema is up to date")
	}

	learnerRepo := postgres.NewLearnerRepository(dbConn)
	contentRepo := postgres.NewContentRepository(dbConn)
	attemptRepo := postgres.NewAttemptRepository(dbConn)
	interactionRepo := postgres.NewInteractionRepository(dbConn)
	reportRepo := postgres.NewReportRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS
	// ─────────────────────────────────────────────────────────────────────────
	redisClient, err := newRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient)
	sessionStore := redis.NewSessionStore(redisClient, cfg.Auth.SessionTTL)
	contentCache := redis.NewContentCache(cache)
	queue := redis.NewQueue(redisClient, cfg.Ingestion.QueueName)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EXTERNAL CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	engineClient := engine.NewClient(engineClientConfig(cfg))

	driveCfg := drive.DefaultConfig(cfg.Drive.BaseURL, cfg.Drive.APIKey)
	driveCfg.Timeout = cfg.Drive.RequestTimeout
	driveClient := drive.NewClient(driveCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	eventBus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	defer eventBus.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	var sink interaction.Sink
	if cfg.Ingestion.Mode == config.IngestQueued {
		sink = ingest.NewQueuedSink(queue)
	} else {
		sink = ingest.NewSyncSink(interactionRepo)
	}

	reportGenerator := engine.NewReportGenerator(engineClient)
	triggerReport := command.NewTriggerReportHandler(reportGenerator, reportRepo, learnerRepo)

	deps := httpapi.Dependencies{
		RegisterLearner:   command.NewRegisterLearnerHandler(learnerRepo, sessionStore, eventBus, cfg.Auth.BcryptCost),
		Login:             command.NewLoginHandler(learnerRepo, sessionStore),
		UseHint:           command.NewUseHintHandler(learnerRepo, eventBus),
		SubmitInteraction: command.NewSubmitInteractionHandler(sink, eventBus),
		GenerateQuiz:      command.NewGenerateQuizHandler(contentRepo, attemptRepo, engineClient),
		SubmitQuiz:        command.NewSubmitQuizHandler(attemptRepo, engineClient, eventBus),
		ApplyPayment:      command.NewApplyPaymentHandler(learnerRepo, eventBus),
		TriggerReport:     triggerReport,

		GetContent:   query.NewGetContentHandler(contentRepo, contentCache, driveClient, log),
		NextContent:  query.NewNextContentHandler(engine.NewRecommender(engineClient), contentRepo, cfg.Features),
		ListReports:  query.NewListReportsHandler(reportRepo, learnerRepo),
		GetReport:    query.NewGetReportHandler(reportRepo, learnerRepo),
		GetDashboard: query.NewGetDashboardHandler(learnerRepo, interactionRepo, cfg.Features),

		Sessions: sessionStore,
		Flags:    cfg.Features,
		Health: &readinessProbe{
			db:     dbConn,
			cache:  cache,
			engine: engineClient,
			drive:  driveClient,
		},
		Logger: log,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT SUBSCRIPTIONS
	// ─────────────────────────────────────────────────────────────────────────
	subscribers := []interface {
		EventType() shared.EventType
		Handle(shared.Event) error
	}{
		eventhandler.NewOnLearnerRegisteredHandler(log),
		eventhandler.NewOnTierUpgradedHandler(log),
		eventhandler.NewOnQuizScoredHandler(log),
		saga.NewMasteryFlowSaga(triggerReport, log, saga.DefaultMasteryFlowConfig()),
	}
	for _, sub := range subscribers {
		if err := eventBus.Subscribe(sub.EventType(), sub.Handle); err != nil {
			return fmt.Errorf("failed to subscribe %s handler: %w", sub.EventType(), err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER & SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	server := httpapi.NewServer(httpapi.FromAppConfig(cfg), deps)
	errCh := server.StartAsync()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
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

// engineClientConfig maps application config onto the engine client.
func engineClientConfig(cfg *config.Config) engine.ClientConfig {
	ec := engine.DefaultClientConfig(cfg.Engine.BaseURL, cfg.Engine.APIKey)
	ec.Timeout = cfg.Engine.RequestTimeout
	ec.RateLimiterConfig.RequestsPerSecond = float64(cfg.Engine.RateLimit) / 60
	ec.RateLimiterConfig.BurstSize = cfg.Engine.RateLimitBurst
	ec.CircuitBreakerConfig.FailureThreshold = cfg.Engine.CircuitBreakerThreshold
	ec.CircuitBreakerConfig.OpenTimeout = cfg.Engine.CircuitBreakerTimeout
	ec.CircuitBreakerConfig.HalfOpenMaxCalls = cfg.Engine.CircuitBreakerHalfOpenMax
	ec.RetryConfig.MaxRetries = cfg.Engine.MaxRetries
	ec.RetryConfig.InitialBackoff = cfg.Engine.RetryBaseDelay
	ec.RetryConfig.MaxBackoff = cfg.Engine.RetryMaxDelay
	return ec
}

// readinessProbe aggregates dependency health for /ready.
type readinessProbe struct {
	db     *postgres.Connection
	cache  *redis.Cache
	engine *engine.Client
	drive  *drive.Client
}

func (p *readinessProbe) Readiness(ctx context.Context) map[string]bool {
	return map[string]bool{
		"postgres": p.db.Ping(ctx) == nil,
		"redis":    p.cache.Ping(ctx) == nil,
		"engine":   p.engine.IsHealthy(ctx),
		"drive":    p.drive.IsHealthy(ctx),
	}
}
