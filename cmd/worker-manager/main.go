// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	awsclients "dealmatch-workers/internal/common/aws"
	"dealmatch-workers/internal/common/camunda"
	"dealmatch-workers/internal/common/config"
	"dealmatch-workers/internal/common/database"
	"dealmatch-workers/internal/common/logger"
	"dealmatch-workers/internal/common/observability"
	"dealmatch-workers/internal/common/validation"
	"dealmatch-workers/internal/repository"
	"dealmatch-workers/pkg/registry"

	// Data access workers
	qe "dealmatch-workers/internal/workers/data-access/query-elasticsearch"
	qp "dealmatch-workers/internal/workers/data-access/query-postgresql"

	// Matching workers
	"dealmatch-workers/internal/workers/matching/candidates"
	cms "dealmatch-workers/internal/workers/matching/calculate-match-score"
	mbl "dealmatch-workers/internal/workers/matching/match-buyer-to-listings"
	mlb "dealmatch-workers/internal/workers/matching/match-listing-to-buyers"

	// Notification workers
	smn "dealmatch-workers/internal/workers/notification/send-match-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(observability.Config{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		SampleRatio:    cfg.Observability.SampleRatio,
	}, zapLog)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.UsePlaintextConnection,
			ConnectionTimeout:      time.Duration(cfg.Camunda.ConnectionTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("zeebe client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		zapLog.Fatal("postgres migration failed", zap.Error(err))
	}
	zapLog.Info("postgres connected")

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	if err := esClient.EnsureIndices(ctx, map[string]string{
		cfg.Matching.ListingsIndex: database.ListingsMapping,
		cfg.Matching.BuyersIndex:   database.BuyersMapping,
	}); err != nil {
		zapLog.Fatal("elasticsearch index setup failed", zap.Error(err))
	}
	zapLog.Info("elasticsearch connected")

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("redis connected")

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err), zap.String("path", cfg.RegistryPath))
	}
	validator, err := validation.NewValidator(reg)
	if err != nil {
		zapLog.Fatal("schema compilation failed", zap.Error(err))
	}

	// --- Shared matching services ---
	store := repository.NewProfileStore(pg.DB, redis.Client, cfg.Matching.CacheDuration(), log)
	var searcher candidates.Searcher
	if cfg.Matching.UseSearch {
		searcher = candidates.NewElasticsearchSearcher(esClient.Client, cfg.Matching.ListingsIndex, cfg.Matching.BuyersIndex)
	}
	resolver := candidates.NewResolver(store, searcher, cfg.Matching.MaxCandidates, log)

	// --- AWS ---
	awsCfg, err := awsclients.LoadConfig(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config load failed", zap.Error(err))
	}

	// --- Workers ---
	workerTimeout := func(taskType string) time.Duration {
		return time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond
	}

	var workers []worker.JobWorker
	start := func(taskType string, handler camunda.JobHandler) {
		wcfg, ok := cfg.Workers[taskType]
		if !ok || !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		workers = append(workers, camunda.OpenWorker(zeebe.Zeebe(), taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       workerTimeout(taskType),
		}, handler, obs, zapLog))
	}

	start(mbl.TaskType, mbl.NewHandler(&mbl.Config{
		Timeout:      workerTimeout(mbl.TaskType),
		DefaultLimit: cfg.Matching.DefaultLimit,
	}, resolver, validator, log))

	start(mlb.TaskType, mlb.NewHandler(&mlb.Config{
		Timeout:      workerTimeout(mlb.TaskType),
		DefaultLimit: cfg.Matching.DefaultLimit,
	}, resolver, validator, log))

	start(cms.TaskType, cms.NewHandler(&cms.Config{
		Timeout: workerTimeout(cms.TaskType),
	}, resolver, validator, log))

	notifyCfg := smn.LoadConfig()
	notifyCfg.Timeout = workerTimeout(smn.TaskType)
	notifyCfg.EmailEnabled = cfg.Notifications.Email.Enabled
	notifyCfg.FromEmail = cfg.Notifications.Email.FromEmail
	notifyCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
	notifyCfg.SenderID = cfg.Notifications.SMS.SenderID
	notifyCfg.HighScoreAlert = cfg.Matching.HighScoreAlert
	if cfg.Notifications.SendRate > 0 {
		notifyCfg.SendRate = cfg.Notifications.SendRate
	}
	start(smn.TaskType, smn.NewHandler(notifyCfg, store,
		awsclients.NewSESClient(awsCfg), awsclients.NewSNSClient(awsCfg), validator, log))

	start(qp.TaskType, qp.NewHandler(&qp.Config{
		Timeout:      workerTimeout(qp.TaskType),
		DefaultLimit: cfg.Matching.DefaultLimit,
	}, pg.DB, validator, log))

	start(qe.TaskType, qe.NewHandler(&qe.Config{
		Timeout:       workerTimeout(qe.TaskType),
		ListingsIndex: cfg.Matching.ListingsIndex,
		BuyersIndex:   cfg.Matching.BuyersIndex,
	}, esClient.Client, validator, log))

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr: cfg.Observability.MetricsAddress,
		Handler: newServeMux(map[string]pinger{
			"postgres":      pg,
			"redis":         redis,
			"elasticsearch": esClient,
			"zeebe":         pingFunc(zeebe.HealthCheck),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("health/metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, stopping workers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("health server shutdown failed", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("error closing zeebe client", zap.Error(err))
	}

	zapLog.Info("worker manager stopped")
}
