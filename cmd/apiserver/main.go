// API server entry point for VendorIQ-Intelligence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/VendorIQ-Intelligence/internal/application/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/config"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/recommendation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/registry"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/remote"
	httpserver "github.com/turtacn/VendorIQ-Intelligence/internal/interfaces/http"
	"github.com/turtacn/VendorIQ-Intelligence/internal/interfaces/http/handlers"
)

const (
	defaultConfigPath = "configs/config.yaml"
	appVersion        = "0.1.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg := loadConfig(*configPath)
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: outputPaths(cfg.Log.Output),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	logger.Info("starting VendorIQ-Intelligence API server",
		logging.String("version", appVersion),
		logging.Int("port", cfg.Server.Port),
	)

	// Metrics.
	metrics := prometheus.NewNopAppMetrics()
	var collector prometheus.MetricsCollector
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
			EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
		}, logger)
		if err != nil {
			logger.Fatal("failed to initialize metrics collector", logging.Err(err))
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	// PostgreSQL.
	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", logging.Err(err))
	}
	defer func() { _ = conn.Close() }()

	if cfg.Database.MigrationPath != "" {
		if err := conn.RunMigrations(cfg.Database.MigrationPath); err != nil {
			logger.Fatal("failed to run migrations", logging.Err(err))
		}
	}

	supplierRepo := repositories.NewPostgresSupplierRepo(conn, metrics, logger)
	evalRepo := repositories.NewPostgresEvaluationRepo(conn, metrics, logger)
	logRepo := repositories.NewPostgresAnalysisLogRepo(conn, metrics, logger)
	sourceRepo := repositories.NewPostgresSourceRecordRepo(conn, metrics, logger)
	recRepo := repositories.NewPostgresRecommendationRepo(conn, metrics, logger)

	// Redis.
	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", logging.Err(err))
	}
	defer func() { _ = redisClient.Close() }()

	cache := redis.NewCache(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL, logger)
	locks := redis.NewLockFactory(redisClient, "", cfg.Evaluation.LockTTL, logger)

	// Registry collection via the remote answering service.
	remoteClient := remote.NewClient(cfg.Remote, metrics, logger)
	sources := registry.NewSources(cfg.Registry.Sources, remoteClient)
	registryCollector := registry.NewCollector(sources, sourceRepo, cfg.Registry, metrics, logger)

	// Kafka producer for analysis lifecycle events.
	producer, err := kafka.NewProducer(cfg.Kafka, metrics, logger)
	if err != nil {
		logger.Fatal("failed to initialize kafka producer", logging.Err(err))
	}
	defer func() { _ = producer.Close() }()

	// Application services.
	invalidator := evaluation.NewViewCacheInvalidator(cache, logger)
	orchestrator := evaluation.NewOrchestrator(
		supplierRepo, evalRepo, logRepo,
		registryCollector, locks, producer, invalidator,
		metrics, logger,
		evaluation.OrchestratorConfig{BatchConcurrency: cfg.Evaluation.BatchConcurrency},
	)
	queries := evaluation.NewQueryService(
		supplierRepo, evalRepo, sourceRepo, logRepo, recRepo,
		cache, cfg.Evaluation.CacheTTL, metrics, logger,
	)
	recommendations := recommendation.NewService(recRepo, evalRepo, metrics, logger)

	// HTTP layer.
	healthHandler := handlers.NewHealthHandler(appVersion,
		handlers.NamedCheck{CheckName: "postgres", Fn: conn.HealthCheck},
		handlers.NamedCheck{CheckName: "redis", Fn: redisClient.HealthCheck},
	)
	routerCfg := httpserver.RouterConfig{
		EvaluationHandler:     handlers.NewEvaluationHandler(orchestrator, queries, logger),
		RecommendationHandler: handlers.NewRecommendationHandler(recommendations, logger),
		HealthHandler:         healthHandler,
		Logger:                logger,
	}
	if collector != nil {
		routerCfg.Metrics = metrics
		routerCfg.MetricsHandler = collector.Handler()
	}

	server := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server error", logging.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}

	logger.Info("API server stopped")
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg
	}
	fmt.Fprintf(os.Stderr, "warning: %v; falling back to environment configuration\n", err)

	cfg, err = config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func outputPaths(output string) []string {
	if output == "" {
		return nil
	}
	return []string{output}
}
