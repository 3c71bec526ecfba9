package product

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/product/dto"
)

// ErrNotFound is returned by Update and Delete when no row of the
// association matches the id.
var ErrNotFound = errors.New("product not found")

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, associationID, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	// Update writes the descriptive fields only. Quantity belongs to the
	// stock ledger.
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, associationID, id string) error
}

// ImageStore removes product images that are no longer referenced. Only
// images stored for associationID may be removed.
type ImageStore interface {
	Delete(associationID, publicPath string) error
}
