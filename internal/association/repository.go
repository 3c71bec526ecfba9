package association

import (
	"context"

	"github.com/fekuna/omnipos-donation-service/internal/model"
)

type Repository interface {
	FindByEmail(ctx context.Context, email string) (*model.Association, error)
	// CreateIfAbsent inserts a unless an association with the same email
	// exists. It never fails on the duplicate.
	CreateIfAbsent(ctx context.Context, a *model.Association) error
}
