package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fekuna/stockwatch-sync-service/config"
	"github.com/fekuna/stockwatch-sync-service/internal/bsale"
	"github.com/fekuna/stockwatch-sync-service/pkg/broker"
	"github.com/fekuna/stockwatch-sync-service/pkg/cache"
	"github.com/fekuna/stockwatch-sync-service/pkg/database/postgres"
	"github.com/fekuna/stockwatch-sync-service/pkg/logger"
	"github.com/fekuna/stockwatch-sync-service/pkg/metrics"
	"github.com/fekuna/stockwatch-sync-service/pkg/search"

	alertRepoPkg "github.com/fekuna/stockwatch-sync-service/internal/alert/repository"
	alertUCPkg "github.com/fekuna/stockwatch-sync-service/internal/alert/usecase"
	consRepoPkg "github.com/fekuna/stockwatch-sync-service/internal/consumption/repository"
	consUCPkg "github.com/fekuna/stockwatch-sync-service/internal/consumption/usecase"
	"github.com/fekuna/stockwatch-sync-service/internal/plan"
	planRepoPkg "github.com/fekuna/stockwatch-sync-service/internal/plan/repository"
	syncRepoPkg "github.com/fekuna/stockwatch-sync-service/internal/sync/repository"
	syncUCPkg "github.com/fekuna/stockwatch-sync-service/internal/sync/usecase"
	thresholdRepoPkg "github.com/fekuna/stockwatch-sync-service/internal/threshold/repository"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Metrics + Logger
	metrics.InitMetrics("stockwatch")

	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka Producer
	producer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.AlertTopic,
	})
	defer producer.Close()
	appLogger.Info("Connected to Kafka Producer",
		zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.AlertTopic))

	// 6. Initialize Elasticsearch
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (variant search indexing disabled)", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 7. Initialize Provider Client
	apiClient := bsale.NewClient(&bsale.Config{
		BaseURL:      cfg.Bsale.BaseURL,
		PageSize:     cfg.Bsale.PageSize,
		MaxRetries:   cfg.Bsale.MaxRetries,
		RetryDelay:   cfg.Bsale.RetryDelay,
		RequestDelay: cfg.Bsale.RequestDelay,
		BatchSize:    cfg.Bsale.BatchSize,
		BatchFanout:  cfg.Bsale.BatchFanout,
		Timeout:      cfg.Bsale.ClientTimeout,
	}, appLogger)

	// 8. Initialize Repositories
	tenantRepo := syncRepoPkg.NewPGTenantRepository(db)
	snapshotRepo := syncRepoPkg.NewPGSnapshotRepository(db)
	consumptionRepo := consRepoPkg.NewPGRepository(db)
	thresholdRepo := thresholdRepoPkg.NewPGRepository(db)
	alertRepo := alertRepoPkg.NewPGRepository(db)
	billing := planRepoPkg.NewPGBillingService(db)

	// 9. Initialize UseCases
	limiter := plan.NewLimiter(thresholdRepo, billing, redisClient, cfg.Alerts.PlanCacheTTL, appLogger)
	var indexer syncUCPkg.VariantIndexer
	if esClient != nil {
		indexer = esClient
	}
	syncUC := syncUCPkg.NewSyncUseCase(tenantRepo, snapshotRepo, apiClient, redisClient, indexer, syncUCPkg.Config{
		SnapshotBatchSize: cfg.Sync.SnapshotBatchSize,
		TenantDelay:       cfg.Sync.TenantDelay,
		LockTTL:           cfg.Sync.LockTTL,
		RetentionDays:     cfg.Sync.RetentionDays,
	}, appLogger)
	consumptionUC := consUCPkg.NewConsumptionUseCase(consumptionRepo, apiClient, appLogger)
	alertUC := alertUCPkg.NewAlertUseCase(alertRepo, snapshotRepo, thresholdRepo, limiter, producer, appLogger)

	// 10. Run one full pass. The daily scheduler invokes this binary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tenants, err := tenantRepo.ListActive(ctx)
	if err != nil {
		appLogger.Fatal("Could not list active tenants", zap.Error(err))
	}
	tenantsByID := make(map[string]model.Tenant, len(tenants))
	for _, t := range tenants {
		tenantsByID[t.ID] = t
	}

	summary, err := syncUC.SyncAllTenants(ctx)
	if err != nil {
		appLogger.Fatal("Sync run aborted", zap.Error(err))
	}

	// Consumption + alerts only for tenants whose snapshot sync succeeded.
	consumptionFrom := time.Now().Add(-24 * time.Hour)
	consumptionTo := time.Now()

	for _, result := range summary.Results {
		if !result.Success {
			continue
		}
		tenant, ok := tenantsByID[result.TenantID]
		if !ok {
			continue
		}

		if _, err := consumptionUC.SyncRange(ctx, &tenant, consumptionFrom, consumptionTo); err != nil {
			appLogger.Error("consumption sync failed",
				zap.String("tenant_id", tenant.ID), zap.Error(err))
		}

		alertSummary, err := alertUC.GenerateForTenant(ctx, tenant.ID)
		if err != nil {
			appLogger.Error("alert generation failed",
				zap.String("tenant_id", tenant.ID), zap.Error(err))
			continue
		}
		for _, msg := range alertSummary.Errors {
			appLogger.Warn("alert generation user error",
				zap.String("tenant_id", tenant.ID), zap.String("error", msg))
		}
	}

	appLogger.Info("Run finished",
		zap.Int("tenants", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
}
