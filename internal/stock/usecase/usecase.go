package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
	"github.com/fekuna/omnipos-donation-service/internal/cachekey"
	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/stock"
	"github.com/fekuna/omnipos-donation-service/internal/stock/dto"
	"github.com/fekuna/omnipos-donation-service/pkg/cache"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

var tracer = otel.Tracer("github.com/fekuna/omnipos-donation-service/internal/stock")

type stockUseCase struct {
	repo         stock.Repository
	cache        *cache.RedisClient
	publisher    stock.Publisher
	metrics      *stock.Metrics
	logger       logger.ZapLogger
	allOrNothing bool
	now          func() time.Time
}

type Option func(*stockUseCase)

// WithAllOrNothing makes every donation atomic, whatever the request asks.
func WithAllOrNothing(enabled bool) Option {
	return func(uc *stockUseCase) { uc.allOrNothing = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(uc *stockUseCase) { uc.now = now }
}

// NewStockUseCase wires the ledger operations. cache, publisher and metrics
// may be nil.
func NewStockUseCase(
	repo stock.Repository,
	cache *cache.RedisClient,
	publisher stock.Publisher,
	metrics *stock.Metrics,
	log logger.ZapLogger,
	opts ...Option,
) stock.UseCase {
	uc := &stockUseCase{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *stockUseCase) Replenish(ctx context.Context, input *dto.ReplenishInput) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "stock.Replenish", trace.WithAttributes(
		attribute.String("product_id", input.ProductID),
		attribute.Int("quantity", input.Quantity),
	))
	defer span.End()

	if input.AssociationID == "" {
		return nil, apperr.NoAssociation()
	}
	if input.ProductID == "" {
		return nil, apperr.Validation("validation.id_required", "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, invalidQuantity()
	}

	m := uc.newMovement(input.AssociationID, input.ProductID, model.TransactionIn, input.Quantity)
	if err := uc.repo.ApplyMovements(ctx, []*model.Transaction{m}); err != nil {
		return nil, uc.fail(span, err)
	}

	uc.afterCommit(ctx, input.AssociationID, []*model.Transaction{m})
	return m, nil
}

// DeductMany records a donation. The whole order is validated before any
// stock moves. Items are applied in order; the first rejected item stops
// the order and is reported with its product id. With an EventID, items
// already applied for that event are skipped and ErrDuplicateEvent is
// returned when nothing is left to apply.
func (uc *stockUseCase) DeductMany(ctx context.Context, input *dto.DeductManyInput) ([]model.Transaction, error) {
	allOrNothing := input.AllOrNothing || uc.allOrNothing
	ctx, span := tracer.Start(ctx, "stock.DeductMany", trace.WithAttributes(
		attribute.Int("items", len(input.Items)),
		attribute.Bool("all_or_nothing", allOrNothing),
	))
	defer span.End()

	if input.AssociationID == "" {
		return nil, apperr.NoAssociation()
	}
	if len(input.Items) == 0 {
		return nil, apperr.Validation("validation.empty_order", "donation has no items")
	}
	for _, item := range input.Items {
		if item.ProductID == "" {
			return nil, apperr.Validation("validation.id_required", "product id is required")
		}
		if item.Quantity <= 0 {
			return nil, invalidQuantity()
		}
	}

	movements := make([]*model.Transaction, 0, len(input.Items))
	for i, item := range input.Items {
		m := uc.newMovement(input.AssociationID, item.ProductID, model.TransactionOut, item.Quantity)
		if input.EventID != "" {
			m.EventKey = fmt.Sprintf("%s#%d", input.EventID, i)
		}
		movements = append(movements, m)
	}

	applied := movements
	if allOrNothing {
		if err := uc.repo.ApplyMovements(ctx, movements); err != nil {
			if errors.Is(err, stock.ErrDuplicateEvent) {
				return nil, err
			}
			return nil, uc.fail(span, err)
		}
	} else {
		applied = make([]*model.Transaction, 0, len(movements))
		for _, m := range movements {
			err := uc.repo.ApplyMovements(ctx, []*model.Transaction{m})
			if errors.Is(err, stock.ErrDuplicateEvent) {
				continue
			}
			if err != nil {
				// Earlier items are committed and stay applied.
				uc.afterCommit(ctx, input.AssociationID, applied)
				return nil, uc.fail(span, err)
			}
			applied = append(applied, m)
		}
		if len(applied) == 0 {
			return nil, stock.ErrDuplicateEvent
		}
	}

	uc.afterCommit(ctx, input.AssociationID, applied)

	out := make([]model.Transaction, len(applied))
	for i, m := range applied {
		out[i] = *m
	}
	return out, nil
}

func (uc *stockUseCase) ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error) {
	if filters.AssociationID == "" {
		return nil, 0, apperr.NoAssociation()
	}
	items, count, err := uc.repo.ListTransactions(ctx, filters)
	if err != nil {
		uc.logger.Error("failed to list transactions", zap.Error(err))
		return nil, 0, apperr.Internal(err)
	}
	return items, count, nil
}

func (uc *stockUseCase) newMovement(associationID, productID string, typ model.TransactionType, quantity int) *model.Transaction {
	return &model.Transaction{
		ID:            uuid.New().String(),
		AssociationID: associationID,
		ProductID:     productID,
		Type:          typ,
		Quantity:      quantity,
		CreatedAt:     uc.now(),
	}
}

// fail maps repository errors onto error kinds and marks the span.
func (uc *stockUseCase) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	var itemErr *stock.ItemError
	if !errors.As(err, &itemErr) {
		uc.logger.Error("stock movement failed", zap.Error(err))
		return apperr.Internal(err)
	}

	if errors.Is(itemErr.Err, stock.ErrInsufficientStock) {
		uc.metrics.RecordOutOfStock()
		uc.logger.Info("donation rejected for insufficient stock",
			zap.String("product_id", itemErr.ProductID),
			zap.Int("requested", itemErr.Requested),
			zap.Int("available", itemErr.Available),
		)
		return &apperr.Error{
			Kind:      apperr.KindOutOfStock,
			MessageID: "stock.out_of_stock",
			Message:   fmt.Sprintf("insufficient stock for %s", itemErr.ProductName),
			Data: map[string]any{
				"ProductName": itemErr.ProductName,
				"Requested":   itemErr.Requested,
				"Available":   itemErr.Available,
			},
			ProductID: itemErr.ProductID,
			Err:       err,
		}
	}

	return &apperr.Error{
		Kind:      apperr.KindNotFound,
		MessageID: "product.not_found",
		Message:   "product not found",
		ProductID: itemErr.ProductID,
		Err:       err,
	}
}

// afterCommit runs the side effects of committed movements. None of them
// can undo the movements, so failures are only logged.
func (uc *stockUseCase) afterCommit(ctx context.Context, associationID string, movements []*model.Transaction) {
	if len(movements) == 0 {
		return
	}
	for _, m := range movements {
		uc.metrics.RecordMovement(m)
		uc.publish(ctx, m)
	}
	if err := cachekey.Invalidate(ctx, uc.cache, associationID); err != nil {
		uc.logger.Warn("failed to invalidate cache", zap.String("association_id", associationID), zap.Error(err))
	}
}

func (uc *stockUseCase) publish(ctx context.Context, m *model.Transaction) {
	if uc.publisher == nil {
		return
	}
	event := stock.MovementEvent{
		EventID:   uuid.New().String(),
		EventType: stock.EventStockMovementRecorded,
		Payload:   *m,
		Timestamp: uc.now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		uc.logger.Error("failed to encode stock event", zap.Error(err))
		return
	}
	if err := uc.publisher.Publish(ctx, m.ProductID, data); err != nil {
		uc.logger.Error("failed to publish stock event",
			zap.String("transaction_id", m.ID),
			zap.Error(err),
		)
	}
}

func invalidQuantity() *apperr.Error {
	return apperr.Validation("validation.invalid_quantity", "quantity must be greater than zero")
}
