package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
	"github.com/fekuna/omnipos-donation-service/internal/association"
	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

type associationUseCase struct {
	repo   association.Repository
	logger logger.ZapLogger
}

func NewAssociationUseCase(repo association.Repository, log logger.ZapLogger) association.UseCase {
	return &associationUseCase{
		repo:   repo,
		logger: log,
	}
}

// ResolveOrCreate maps a signed-in identity to its association. An unknown
// email with a name creates the association; without a name it is reported
// as NOT_FOUND. Concurrent first visits converge on a single row.
func (uc *associationUseCase) ResolveOrCreate(ctx context.Context, email, name string) (*model.Association, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, apperr.Validation("validation.email_required", "email is required")
	}

	a, err := uc.repo.FindByEmail(ctx, email)
	if err != nil {
		uc.logger.Error("failed to look up association", zap.String("email", email), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	if a != nil {
		return a, nil
	}
	if name == "" {
		return nil, apperr.NoAssociation()
	}

	err = uc.repo.CreateIfAbsent(ctx, &model.Association{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		uc.logger.Error("failed to create association", zap.String("email", email), zap.Error(err))
		return nil, apperr.Internal(err)
	}

	// Re-read: a concurrent request may have won the insert.
	a, err = uc.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if a == nil {
		return nil, apperr.NoAssociation()
	}
	uc.logger.Info("association resolved", zap.String("association_id", a.ID))
	return a, nil
}
