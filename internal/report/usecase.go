package report

import (
	"context"

	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/report/dto"
)

type UseCase interface {
	Overview(ctx context.Context, associationID string) (*dto.Overview, error)
	StockSummary(ctx context.Context, associationID string) (*dto.StockSummary, error)
	CategoryDistribution(ctx context.Context, associationID string, limit int) ([]dto.CategoryCount, error)
	RecentTransactions(ctx context.Context, associationID string, limit int) ([]model.Transaction, error)
}
