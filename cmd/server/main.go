package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/fekuna/omnipos-donation-service/config"
	"github.com/fekuna/omnipos-donation-service/internal/server"
	"github.com/fekuna/omnipos-donation-service/internal/stock"
	"github.com/fekuna/omnipos-donation-service/internal/stock/listener"
	"github.com/fekuna/omnipos-donation-service/internal/upload"
	"github.com/fekuna/omnipos-donation-service/locales"
	"github.com/fekuna/omnipos-donation-service/migrations"
	"github.com/fekuna/omnipos-donation-service/pkg/broker"
	"github.com/fekuna/omnipos-donation-service/pkg/cache"
	"github.com/fekuna/omnipos-donation-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-donation-service/pkg/i18n"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
	"github.com/fekuna/omnipos-donation-service/pkg/search"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.IsDevelopment() {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Initialize i18n
	translator := i18n.New(language.English)
	if err := translator.LoadFS(locales.FS, "*.json"); err != nil {
		log.Fatalf("failed to load locales: %v", err)
	}

	// 4. Connect to Database
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

	if cfg.Postgres.RunMigrations {
		if err := migrations.Up(db.DB); err != nil {
			appLogger.Fatal("Could not apply migrations", zap.Error(err))
		}
		appLogger.Info("Database schema is up to date")
	}

	// 5. Initialize Redis
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}
	defer redisClient.Close()

	// 6. Initialize Elasticsearch
	var esClient *search.Client
	if cfg.Elastic.Enabled {
		esClient, err = search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, search falls back to the database", zap.Error(err))
			esClient = nil
		} else {
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 7. Initialize Kafka producer
	var publisher stock.Publisher
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.StockEventTopic,
		})
		defer producer.Close()
		publisher = producer
		appLogger.Info("Publishing stock events", zap.String("topic", producer.Topic()))
	}

	// 8. Upload store
	uploads, err := upload.NewStore(cfg.Upload.Dir)
	if err != nil {
		appLogger.Fatal("Could not prepare upload directory", zap.Error(err))
	}

	// 9. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, cfg.Postgres.DBName),
	)

	// 10. Build transports
	srv := server.New(&server.Deps{
		Config:     cfg,
		DB:         db,
		Cache:      redisClient,
		Search:     esClient,
		Publisher:  publisher,
		Translator: translator,
		Uploads:    uploads,
		Registry:   registry,
		Logger:     appLogger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start Kafka listener
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.DonationsTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		appLogger.Info("Listening for donation requests", zap.String("topic", consumer.Topic()))
		go listener.NewDonationListener(consumer, srv.Stock, appLogger).Start(ctx)
	}

	// 12. Start gRPC Server
	grpcLis, err := net.Listen("tcp", normalizePort(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", cfg.Server.GRPCPort))
		if err := srv.GRPC.Serve(grpcLis); err != nil {
			appLogger.Fatal("failed to serve gRPC", zap.Error(err))
		}
	}()

	// 13. Start HTTP Server
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.Server.HTTPPort))
		if err := srv.HTTP.Start(normalizePort(cfg.Server.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve HTTP", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	srv.Health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.HTTP.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	srv.GRPC.GracefulStop()
	appLogger.Info("Server stopped")
}

func normalizePort(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
