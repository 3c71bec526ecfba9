package report

import (
	"context"

	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/report/dto"
)

type Repository interface {
	Overview(ctx context.Context, associationID string) (*dto.Overview, error)
	StockCounts(ctx context.Context, associationID string, threshold int) (*dto.StockCounts, error)
	// CriticalProducts returns products at or below threshold, lowest first.
	CriticalProducts(ctx context.Context, associationID string, threshold, limit int) ([]model.Product, error)
	CategoryDistribution(ctx context.Context, associationID string, limit int) ([]dto.CategoryCount, error)
}
