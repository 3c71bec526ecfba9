package usecase

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
	"github.com/fekuna/omnipos-donation-service/internal/cachekey"
	"github.com/fekuna/omnipos-donation-service/internal/category"
	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/product"
	"github.com/fekuna/omnipos-donation-service/internal/product/dto"
	"github.com/fekuna/omnipos-donation-service/internal/upload"
	"github.com/fekuna/omnipos-donation-service/pkg/cache"
	"github.com/fekuna/omnipos-donation-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
	"github.com/fekuna/omnipos-donation-service/pkg/search"
)

const listCacheTTL = 5 * time.Minute

// NUMERIC(12,2) holds at most ten integer digits.
var maxPrice = decimal.New(1, 10)

type productUseCase struct {
	repo       product.Repository
	categories category.Repository
	cache      *cache.RedisClient
	es         *search.Client
	images     product.ImageStore
	logger     logger.ZapLogger

	indexReady atomic.Bool
}

func NewProductUseCase(
	repo product.Repository,
	categories category.Repository,
	cache *cache.RedisClient,
	es *search.Client,
	images product.ImageStore,
	log logger.ZapLogger,
) product.UseCase {
	return &productUseCase{
		repo:       repo,
		categories: categories,
		cache:      cache,
		es:         es,
		images:     images,
		logger:     log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if input.AssociationID == "" {
		return nil, apperr.NoAssociation()
	}
	fields, err := uc.validate(ctx, input.AssociationID, input.Name, input.CategoryID, input.Price, input.ImageURL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		AssociationID: input.AssociationID,
		CategoryID:    input.CategoryID,
		Name:          fields.name,
		Description:   strings.TrimSpace(input.Description),
		Price:         fields.price,
		Quantity:      0,
		Unit:          strings.TrimSpace(input.Unit),
		ImageURL:      fields.imageURL,
		CategoryName:  fields.categoryName,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return nil, categoryNotFound()
		}
		uc.logger.Error("failed to create product", zap.Error(err))
		return nil, apperr.Internal(err)
	}

	uc.invalidate(ctx, p.AssociationID)
	uc.syncToElastic(ctx, p)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, associationID, id string) (*model.Product, error) {
	if associationID == "" {
		return nil, apperr.NoAssociation()
	}
	p, err := uc.repo.FindByID(ctx, associationID, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil {
		return nil, productNotFound()
	}
	return p, nil
}

type cachedList struct {
	Products []model.Product `json:"products"`
	Count    int             `json:"count"`
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	if filters.AssociationID == "" {
		return nil, 0, apperr.NoAssociation()
	}

	cacheKey, err := cachekey.ProductList(filters.AssociationID, filters)
	if err == nil {
		var cached cachedList
		if hit, err := uc.cache.GetJSON(ctx, cacheKey, &cached); err != nil {
			uc.logger.Warn("product list cache read failed", zap.Error(err))
		} else if hit {
			return cached.Products, cached.Count, nil
		}
	}

	query := *filters
	if query.SearchQuery != "" && uc.es != nil {
		ids, err := uc.searchIDs(ctx, query.AssociationID, query.SearchQuery)
		if err == nil {
			query.IDs = ids
		} else {
			uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
		}
	}

	products, count, err := uc.repo.FindAll(ctx, &query)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}

	if cacheKey != "" {
		if err := uc.cache.SetJSON(ctx, cacheKey, cachedList{Products: products, Count: count}, listCacheTTL); err != nil {
			uc.logger.Warn("product list cache write failed", zap.Error(err))
		}
	}
	return products, count, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	if input.AssociationID == "" {
		return nil, apperr.NoAssociation()
	}
	if input.ID == "" {
		return nil, apperr.Validation("validation.id_required", "id is required")
	}

	p, err := uc.repo.FindByID(ctx, input.AssociationID, input.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil {
		return nil, productNotFound()
	}

	fields, err := uc.validate(ctx, input.AssociationID, input.Name, input.CategoryID, input.Price, input.ImageURL)
	if err != nil {
		return nil, err
	}

	oldImage := p.ImageURL
	p.CategoryID = input.CategoryID
	p.CategoryName = fields.categoryName
	p.Name = fields.name
	p.Description = strings.TrimSpace(input.Description)
	p.Price = fields.price
	p.Unit = strings.TrimSpace(input.Unit)
	p.ImageURL = fields.imageURL
	p.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, p); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, productNotFound()
		}
		if postgres.IsForeignKeyViolation(err) {
			return nil, categoryNotFound()
		}
		uc.logger.Error("failed to update product", zap.String("product_id", p.ID), zap.Error(err))
		return nil, apperr.Internal(err)
	}

	if oldImage != "" && oldImage != p.ImageURL {
		uc.removeImage(p.AssociationID, oldImage)
	}
	uc.invalidate(ctx, p.AssociationID)
	uc.syncToElastic(ctx, p)
	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, associationID, id string) error {
	if associationID == "" {
		return apperr.NoAssociation()
	}
	if id == "" {
		return apperr.Validation("validation.id_required", "id is required")
	}

	p, err := uc.repo.FindByID(ctx, associationID, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if p == nil {
		return productNotFound()
	}

	if err := uc.repo.Delete(ctx, associationID, id); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return productNotFound()
		}
		uc.logger.Error("failed to delete product", zap.String("product_id", id), zap.Error(err))
		return apperr.Internal(err)
	}

	if p.ImageURL != "" {
		uc.removeImage(associationID, p.ImageURL)
	}
	uc.invalidate(ctx, associationID)
	uc.removeFromElastic(ctx, id)
	return nil
}

type validFields struct {
	name         string
	price        decimal.Decimal
	categoryName string
	imageURL     string
}

// validate checks the fields shared by create and update, including that
// the category and an uploaded image belong to the association.
func (uc *productUseCase) validate(ctx context.Context, associationID, name, categoryID, price, imageURL string) (*validFields, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("validation.name_required", "name is required")
	}
	if strings.TrimSpace(categoryID) == "" {
		return nil, apperr.Validation("validation.category_required", "category is required")
	}
	amount, err := ParsePrice(price)
	if err != nil {
		return nil, err
	}
	imageURL = strings.TrimSpace(imageURL)
	if err := upload.CheckImageURL(associationID, imageURL); err != nil {
		return nil, err
	}

	cat, err := uc.categories.FindByID(ctx, associationID, categoryID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if cat == nil {
		return nil, categoryNotFound()
	}
	return &validFields{name: name, price: amount, categoryName: cat.Name, imageURL: imageURL}, nil
}

// ParsePrice converts client text into a price with two decimals.
// Non-numeric, negative and oversized values are rejected.
func ParsePrice(text string) (decimal.Decimal, error) {
	invalid := apperr.Validation("validation.invalid_price", "price must be a non-negative number")
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, invalid
	}
	d, err := decimal.NewFromString(text)
	if err != nil || d.IsNegative() {
		return decimal.Zero, invalid
	}
	d = d.Round(2)
	if d.GreaterThanOrEqual(maxPrice) {
		return decimal.Zero, invalid
	}
	return d, nil
}

// removeImage deletes an uploaded image of the association. External
// URLs are left alone.
func (uc *productUseCase) removeImage(associationID, path string) {
	if uc.images == nil || !strings.HasPrefix(path, upload.PublicPrefix) {
		return
	}
	if err := uc.images.Delete(associationID, path); err != nil {
		uc.logger.Warn("failed to remove product image", zap.String("path", path), zap.Error(err))
	}
}

func (uc *productUseCase) invalidate(ctx context.Context, associationID string) {
	if err := cachekey.Invalidate(ctx, uc.cache, associationID); err != nil {
		uc.logger.Warn("failed to invalidate cache", zap.String("association_id", associationID), zap.Error(err))
	}
}

func productNotFound() *apperr.Error {
	return apperr.NotFound("product.not_found", "product not found")
}

func categoryNotFound() *apperr.Error {
	return apperr.NotFound("category.not_found", "category not found")
}
