// Package server assembles the HTTP and gRPC transports on top of the
// repositories and usecases.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fekuna/omnipos-donation-service/config"
	assocRepoPkg "github.com/fekuna/omnipos-donation-service/internal/association/repository"
	assocUCPkg "github.com/fekuna/omnipos-donation-service/internal/association/usecase"
	"github.com/fekuna/omnipos-donation-service/internal/auth"
	catH "github.com/fekuna/omnipos-donation-service/internal/category/handler"
	catRepoPkg "github.com/fekuna/omnipos-donation-service/internal/category/repository"
	catUCPkg "github.com/fekuna/omnipos-donation-service/internal/category/usecase"
	prodH "github.com/fekuna/omnipos-donation-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-donation-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-donation-service/internal/product/usecase"
	reportH "github.com/fekuna/omnipos-donation-service/internal/report/handler"
	reportRepoPkg "github.com/fekuna/omnipos-donation-service/internal/report/repository"
	reportUCPkg "github.com/fekuna/omnipos-donation-service/internal/report/usecase"
	"github.com/fekuna/omnipos-donation-service/internal/respond"
	"github.com/fekuna/omnipos-donation-service/internal/stock"
	stockH "github.com/fekuna/omnipos-donation-service/internal/stock/handler"
	stockRepoPkg "github.com/fekuna/omnipos-donation-service/internal/stock/repository"
	stockUCPkg "github.com/fekuna/omnipos-donation-service/internal/stock/usecase"
	"github.com/fekuna/omnipos-donation-service/internal/upload"
	uploadH "github.com/fekuna/omnipos-donation-service/internal/upload/handler"
	"github.com/fekuna/omnipos-donation-service/pkg/cache"
	"github.com/fekuna/omnipos-donation-service/pkg/i18n"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
	"github.com/fekuna/omnipos-donation-service/pkg/metrics"
	"github.com/fekuna/omnipos-donation-service/pkg/search"
)

// Deps are the connections the server is built on. Cache, Search and
// Publisher are optional.
type Deps struct {
	Config     *config.Config
	DB         *sqlx.DB
	Cache      *cache.RedisClient
	Search     *search.Client
	Publisher  stock.Publisher
	Translator *i18n.Translator
	Uploads    *upload.Store
	Registry   *prometheus.Registry
	Logger     logger.ZapLogger
}

type Server struct {
	HTTP   *echo.Echo
	GRPC   *grpc.Server
	Health *health.Server
	// Stock is shared with the Kafka listener.
	Stock stock.UseCase
}

func New(d *Deps) *Server {
	cfg := d.Config
	resp := respond.New(d.Translator, d.Logger)
	prefix := cfg.Server.ServiceName

	// Repositories
	assocRepo := assocRepoPkg.NewPGRepository(d.DB)
	catRepo := catRepoPkg.NewPGRepository(d.DB)
	prodRepo := prodRepoPkg.NewPGRepository(d.DB)
	stockRepo := stockRepoPkg.NewPGRepository(d.DB)
	reportRepo := reportRepoPkg.NewPGRepository(d.DB)

	// UseCases
	assocUC := assocUCPkg.NewAssociationUseCase(assocRepo, d.Logger)
	catUC := catUCPkg.NewCategoryUseCase(catRepo, d.Cache, d.Logger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, catRepo, d.Cache, d.Search, d.Uploads, d.Logger)
	stockUC := stockUCPkg.NewStockUseCase(
		stockRepo, d.Cache, d.Publisher,
		stock.NewMetrics(prefix, d.Registry), d.Logger,
		stockUCPkg.WithAllOrNothing(cfg.Stock.AllOrNothing),
	)
	reportUC := reportUCPkg.NewReportUseCase(reportRepo, stockRepo, d.Cache, cfg.Stock.LowThreshold, cfg.Report.CacheTTL, d.Logger)

	authenticator := auth.NewAuthenticator(cfg.JWT.SecretKey, assocUC, d.Logger)

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(metrics.NewHTTPMetrics(prefix, d.Registry).Middleware())

	e.GET("/health", healthCheck(d.DB))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	uploads := uploadH.NewUploadHandler(d.Uploads, resp, d.Logger)
	uploads.Static(e)

	api := e.Group("/api/v1", authenticator.Middleware(resp))
	api.GET("/me", me)
	catH.NewCategoryHandler(catUC, resp, d.Logger).Register(api)
	prodH.NewProductHandler(prodUC, resp, d.Logger).Register(api)
	stockH.NewStockHandler(stockUC, resp, d.Logger).Register(api)
	reportH.NewReportHandler(reportUC, resp, d.Logger).Register(api)
	uploads.Register(api)

	// gRPC
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(authenticator.UnaryInterceptor()))
	stockH.RegisterStockServiceServer(grpcServer, stockH.NewStockGRPCHandler(stockUC, resp, d.Logger))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(stockH.StockServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	return &Server{
		HTTP:   e,
		GRPC:   grpcServer,
		Health: healthServer,
		Stock:  stockUC,
	}
}

// me returns the association resolved for the caller.
func me(c echo.Context) error {
	assoc, _ := auth.AssociationFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, assoc)
}

func healthCheck(db *sqlx.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

func requestLogger(log logger.ZapLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
