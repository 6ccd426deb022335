package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchange/internal/exchange/application"
	"github.com/wyfcoding/exchange/internal/exchange/domain"
	"github.com/wyfcoding/exchange/internal/exchange/infrastructure/messaging"
	"github.com/wyfcoding/exchange/internal/exchange/infrastructure/persistence/mysql"
	exchangehttp "github.com/wyfcoding/exchange/internal/exchange/interfaces/http"
	"github.com/wyfcoding/exchange/pkg/cache"
	"github.com/wyfcoding/exchange/pkg/config"
	"github.com/wyfcoding/exchange/pkg/db"
	"github.com/wyfcoding/exchange/pkg/idgen"
	"github.com/wyfcoding/exchange/pkg/logger"
	"github.com/wyfcoding/exchange/pkg/metrics"
	"github.com/wyfcoding/exchange/pkg/middleware"
	"github.com/wyfcoding/exchange/pkg/mq"
	"github.com/wyfcoding/exchange/pkg/ratelimit"
)

func main() {
	configPath := flag.String("config", "configs/exchange/config.toml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting exchange service",
		"version", cfg.Version, "environment", cfg.Environment)

	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&domain.Account{},
		&domain.AssetHolding{},
		&domain.Order{},
		&domain.LedgerEntry{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database", "error", err)
	}

	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to connect Redis", "error", err)
	}
	defer redisCache.Close()

	idGen, err := idgen.New(cfg.NodeID)
	if err != nil {
		logger.Fatal(ctx, "Failed to create id generator", "error", err)
	}

	var publisher domain.EventPublisher = messaging.NopEventPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Fatal(ctx, "Failed to create Kafka producer", "error", err)
		}
		defer producer.Close()
		publisher = messaging.NewKafkaEventPublisher(producer, cfg.Trading.EventTopicPrefix)
	}

	m := metrics.New(cfg.ServiceName)
	if err := m.Register(); err != nil {
		logger.Fatal(ctx, "Failed to register metrics", "error", err)
	}
	if cfg.Metrics.Enabled {
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics server", "error", err)
		}
	}

	commissionRate, err := decimal.NewFromString(cfg.Trading.CommissionRate)
	if err != nil {
		logger.Fatal(ctx, "Invalid commission rate", "value", cfg.Trading.CommissionRate, "error", err)
	}

	orderRepo := mysql.NewOrderRepository(database.DB)
	accountRepo := mysql.NewAccountRepository(database.DB)
	assetRepo := mysql.NewAssetRepository(database.DB)
	ledgerRepo := mysql.NewLedgerRepository(database.DB)

	settlementService := application.NewSettlementService(
		orderRepo, accountRepo, assetRepo, ledgerRepo,
		publisher, idGen, commissionRate, m, logger.Get(),
	)
	orderService := application.NewOrderService(
		orderRepo, accountRepo, assetRepo, ledgerRepo,
		settlementService, publisher, idGen, cfg.Trading.Symbols, m, logger.Get(),
	)
	accountService := application.NewAccountService(
		accountRepo, assetRepo, ledgerRepo, idGen, logger.Get(),
	)

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinMetricsMiddleware(m),
		middleware.GinRateLimitMiddleware(
			ratelimit.NewRedisRateLimiter(redisCache.GetClient()),
			ratelimit.Limit{Rate: 100, Period: time.Second, Burst: 200},
		),
	)

	handler := exchangehttp.NewHandler(orderService, accountService)
	handler.RegisterRoutes(engine)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "Shutting down exchange service")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown failed", "error", err)
	}
	logger.Info(ctx, "Exchange service stopped")
}
