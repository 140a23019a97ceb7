// Background worker entry point: consumes analysis requests from Kafka and
// runs the evaluation pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/VendorIQ-Intelligence/internal/application/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/config"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/registry"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/remote"
)

const (
	defaultConfigPath = "configs/config.yaml"
	appVersion        = "0.1.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg := loadConfig(*configPath)

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
	logger = logger.Named("worker")

	logger.Info("starting VendorIQ-Intelligence worker",
		logging.String("version", appVersion),
		logging.String("group_id", cfg.Kafka.GroupID),
	)

	metrics := prometheus.NewNopAppMetrics()
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
			EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
		}, logger)
		if err != nil {
			logger.Fatal("failed to initialize metrics collector", logging.Err(err))
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", logging.Err(err))
	}
	defer func() { _ = conn.Close() }()

	supplierRepo := repositories.NewPostgresSupplierRepo(conn, metrics, logger)
	evalRepo := repositories.NewPostgresEvaluationRepo(conn, metrics, logger)
	logRepo := repositories.NewPostgresAnalysisLogRepo(conn, metrics, logger)
	sourceRepo := repositories.NewPostgresSourceRecordRepo(conn, metrics, logger)

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", logging.Err(err))
	}
	defer func() { _ = redisClient.Close() }()

	cache := redis.NewCache(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL, logger)
	locks := redis.NewLockFactory(redisClient, "", cfg.Evaluation.LockTTL, logger)

	remoteClient := remote.NewClient(cfg.Remote, metrics, logger)
	sources := registry.NewSources(cfg.Registry.Sources, remoteClient)
	registryCollector := registry.NewCollector(sources, sourceRepo, cfg.Registry, metrics, logger)

	producer, err := kafka.NewProducer(cfg.Kafka, metrics, logger)
	if err != nil {
		logger.Fatal("failed to initialize kafka producer", logging.Err(err))
	}
	defer func() { _ = producer.Close() }()

	invalidator := evaluation.NewViewCacheInvalidator(cache, logger)
	orchestrator := evaluation.NewOrchestrator(
		supplierRepo, evalRepo, logRepo,
		registryCollector, locks, producer, invalidator,
		metrics, logger,
		evaluation.OrchestratorConfig{BatchConcurrency: cfg.Worker.Concurrency},
	)

	consumer, err := kafka.NewWorker(cfg.Kafka, cfg.Worker, orchestrator, logger)
	if err != nil {
		logger.Fatal("failed to initialize kafka consumer", logging.Err(err))
	}

	if err := consumer.Start(context.Background()); err != nil {
		logger.Fatal("failed to start consumer", logging.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutdown signal received",
		logging.Duration("grace", cfg.Worker.ShutdownGrace))

	stopped := make(chan error, 1)
	go func() { stopped <- consumer.Stop() }()
	select {
	case err := <-stopped:
		if err != nil {
			logger.Error("consumer shutdown error", logging.Err(err))
		}
	case <-time.After(cfg.Worker.ShutdownGrace):
		logger.Warn("consumer did not stop within shutdown grace")
	}

	logger.Info("worker stopped")
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
