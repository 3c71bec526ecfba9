package stock

import (
	"context"

	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/stock/dto"
)

type UseCase interface {
	Replenish(ctx context.Context, input *dto.ReplenishInput) (*model.Transaction, error)
	DeductMany(ctx context.Context, input *dto.DeductManyInput) ([]model.Transaction, error)
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error)
}
