package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/stock/dto"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrDuplicateEvent is returned when a movement carries an EventKey
	// that was already recorded.
	ErrDuplicateEvent = errors.New("event already processed")
)

// ItemError describes why one movement of a batch was rejected. Err is
// ErrProductNotFound or ErrInsufficientStock.
type ItemError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
	Err         error
}

func (e *ItemError) Error() string {
	if errors.Is(e.Err, ErrInsufficientStock) {
		return fmt.Sprintf("%v for product %s: requested %d, available %d", e.Err, e.ProductID, e.Requested, e.Available)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.ProductID)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

type Repository interface {
	// ApplyMovements changes product quantities and appends one ledger row
	// per movement inside a single database transaction. OUT movements only
	// apply when enough stock remains; otherwise nothing is committed and an
	// *ItemError is returned. A movement whose EventKey is already recorded
	// rolls the transaction back with ErrDuplicateEvent. BalanceAfter is
	// filled on success.
	ApplyMovements(ctx context.Context, movements []*model.Transaction) error
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error)
}
