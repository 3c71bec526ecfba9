package auth

import (
	"context"

	"github.com/fekuna/omnipos-donation-service/internal/model"
)

type associationKey struct{}

func WithAssociation(ctx context.Context, a *model.Association) context.Context {
	return context.WithValue(ctx, associationKey{}, a)
}

func AssociationFromContext(ctx context.Context) (*model.Association, bool) {
	a, ok := ctx.Value(associationKey{}).(*model.Association)
	return a, ok && a != nil
}

// GetAssociationID returns "" when the request carries no association.
func GetAssociationID(ctx context.Context) string {
	if a, ok := AssociationFromContext(ctx); ok {
		return a.ID
	}
	return ""
}
