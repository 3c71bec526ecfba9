package association

import (
	"context"

	"github.com/fekuna/omnipos-donation-service/internal/model"
)

type UseCase interface {
	ResolveOrCreate(ctx context.Context, email, name string) (*model.Association, error)
}
