package category

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-donation-service/internal/category/dto"
	"github.com/fekuna/omnipos-donation-service/internal/model"
)

// ErrNotFound is returned by Update and Delete when no row of the
// association matches the id.
var ErrNotFound = errors.New("category not found")

type Repository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, associationID, id string) (*model.Category, error)
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, associationID, id string) error
}
