package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
	"github.com/fekuna/omnipos-donation-service/internal/cachekey"
	"github.com/fekuna/omnipos-donation-service/internal/category"
	"github.com/fekuna/omnipos-donation-service/internal/category/dto"
	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/pkg/cache"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

type categoryUseCase struct {
	repo   category.Repository
	cache  *cache.RedisClient
	logger logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, cache *cache.RedisClient, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if input.AssociationID == "" {
		return nil, apperr.NoAssociation()
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("validation.name_required", "name is required")
	}

	now := time.Now().UTC()
	cat := &model.Category{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		AssociationID: input.AssociationID,
		Name:          name,
		Description:   strings.TrimSpace(input.Description),
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		uc.logger.Error("failed to create category", zap.Error(err))
		return nil, apperr.Internal(err)
	}

	uc.invalidate(ctx, input.AssociationID)
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, associationID, id string) (*model.Category, error) {
	if associationID == "" {
		return nil, apperr.NoAssociation()
	}
	cat, err := uc.repo.FindByID(ctx, associationID, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if cat == nil {
		return nil, notFound()
	}
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	if filters.AssociationID == "" {
		return nil, 0, apperr.NoAssociation()
	}
	categories, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return categories, count, nil
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	if input.AssociationID == "" {
		return nil, apperr.NoAssociation()
	}
	if input.ID == "" {
		return nil, apperr.Validation("validation.id_required", "id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("validation.name_required", "name is required")
	}

	cat, err := uc.repo.FindByID(ctx, input.AssociationID, input.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if cat == nil {
		return nil, notFound()
	}

	cat.Name = name
	cat.Description = strings.TrimSpace(input.Description)
	cat.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, cat); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return nil, notFound()
		}
		uc.logger.Error("failed to update category", zap.String("category_id", input.ID), zap.Error(err))
		return nil, apperr.Internal(err)
	}

	uc.invalidate(ctx, input.AssociationID)
	return cat, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, associationID, id string) error {
	if associationID == "" {
		return apperr.NoAssociation()
	}
	if id == "" {
		return apperr.Validation("validation.id_required", "id is required")
	}

	if err := uc.repo.Delete(ctx, associationID, id); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return notFound()
		}
		uc.logger.Error("failed to delete category", zap.String("category_id", id), zap.Error(err))
		return apperr.Internal(err)
	}

	uc.invalidate(ctx, associationID)
	return nil
}

// invalidate clears cached product lists and reports, which embed
// category names and counts.
func (uc *categoryUseCase) invalidate(ctx context.Context, associationID string) {
	if err := cachekey.Invalidate(ctx, uc.cache, associationID); err != nil {
		uc.logger.Warn("failed to invalidate cache", zap.String("association_id", associationID), zap.Error(err))
	}
}

func notFound() *apperr.Error {
	return apperr.NotFound("category.not_found", "category not found")
}
