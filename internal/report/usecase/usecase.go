package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
	"github.com/fekuna/omnipos-donation-service/internal/cachekey"
	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/report"
	"github.com/fekuna/omnipos-donation-service/internal/report/dto"
	"github.com/fekuna/omnipos-donation-service/internal/stock"
	stockdto "github.com/fekuna/omnipos-donation-service/internal/stock/dto"
	"github.com/fekuna/omnipos-donation-service/pkg/cache"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

const (
	DefaultCategoryLimit    = 5
	DefaultTransactionLimit = 10
	maxLimit                = 50
	criticalProductLimit    = 5
)

var tracer = otel.Tracer("github.com/fekuna/omnipos-donation-service/internal/report")

type reportUseCase struct {
	repo      report.Repository
	ledger    stock.Repository
	cache     *cache.RedisClient
	threshold int
	ttl       time.Duration
	logger    logger.ZapLogger
}

// NewReportUseCase builds the read-only dashboard queries. Products with a
// quantity at or below threshold count as low stock.
func NewReportUseCase(
	repo report.Repository,
	ledger stock.Repository,
	cache *cache.RedisClient,
	threshold int,
	ttl time.Duration,
	log logger.ZapLogger,
) report.UseCase {
	return &reportUseCase{
		repo:      repo,
		ledger:    ledger,
		cache:     cache,
		threshold: threshold,
		ttl:       ttl,
		logger:    log,
	}
}

func (uc *reportUseCase) Overview(ctx context.Context, associationID string) (*dto.Overview, error) {
	return cached(ctx, uc, associationID, "overview", func(ctx context.Context) (*dto.Overview, error) {
		return uc.repo.Overview(ctx, associationID)
	})
}

func (uc *reportUseCase) StockSummary(ctx context.Context, associationID string) (*dto.StockSummary, error) {
	return cached(ctx, uc, associationID, "stock-summary", func(ctx context.Context) (*dto.StockSummary, error) {
		counts, err := uc.repo.StockCounts(ctx, associationID, uc.threshold)
		if err != nil {
			return nil, err
		}
		critical, err := uc.repo.CriticalProducts(ctx, associationID, uc.threshold, criticalProductLimit)
		if err != nil {
			return nil, err
		}
		return &dto.StockSummary{
			StockCounts:      *counts,
			Threshold:        uc.threshold,
			CriticalProducts: critical,
		}, nil
	})
}

func (uc *reportUseCase) CategoryDistribution(ctx context.Context, associationID string, limit int) ([]dto.CategoryCount, error) {
	limit = clampLimit(limit, DefaultCategoryLimit)
	return cached(ctx, uc, associationID, "category-distribution", func(ctx context.Context) ([]dto.CategoryCount, error) {
		return uc.repo.CategoryDistribution(ctx, associationID, limit)
	}, limit)
}

func (uc *reportUseCase) RecentTransactions(ctx context.Context, associationID string, limit int) ([]model.Transaction, error) {
	limit = clampLimit(limit, DefaultTransactionLimit)
	return cached(ctx, uc, associationID, "recent-transactions", func(ctx context.Context) ([]model.Transaction, error) {
		items, _, err := uc.ledger.ListTransactions(ctx, &stockdto.TransactionFilters{
			AssociationID: associationID,
			Page:          1,
			PageSize:      limit,
		})
		return items, err
	}, limit)
}

// cached serves a report from Redis when possible and stores fresh results
// for ttl. Cache failures fall through to the database.
func cached[T any](
	ctx context.Context,
	uc *reportUseCase,
	associationID, name string,
	load func(context.Context) (T, error),
	params ...any,
) (T, error) {
	var zero T
	ctx, span := tracer.Start(ctx, "report."+name, trace.WithAttributes(attribute.String("association_id", associationID)))
	defer span.End()

	if associationID == "" {
		return zero, apperr.NoAssociation()
	}

	key := cachekey.Report(associationID, name, params...)
	var hit T
	if ok, err := uc.cache.GetJSON(ctx, key, &hit); err != nil {
		uc.logger.Warn("report cache read failed", zap.String("report", name), zap.Error(err))
	} else if ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return hit, nil
	}

	result, err := load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		uc.logger.Error("failed to build report", zap.String("report", name), zap.Error(err))
		return zero, apperr.Internal(err)
	}

	if err := uc.cache.SetJSON(ctx, key, result, uc.ttl); err != nil {
		uc.logger.Warn("report cache write failed", zap.String("report", name), zap.Error(err))
	}
	return result, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
