package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
	"github.com/fekuna/omnipos-donation-service/internal/stock"
	"github.com/fekuna/omnipos-donation-service/internal/stock/dto"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type DonationListener struct {
	consumer MessageReader
	uc       stock.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewDonationListener(consumer MessageReader, uc stock.UseCase, logger logger.ZapLogger) *DonationListener {
	return &DonationListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

// Start consumes donation requests until ctx is cancelled.
func (l *DonationListener) Start(ctx context.Context) {
	l.logger.Info("Starting donation Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping donation Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type DonationRequestedEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Payload   DonationRequestPayload `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

type DonationRequestPayload struct {
	AssociationID string           `json:"association_id"`
	Items         []dto.DeductItem `json:"items"`
	AllOrNothing  bool             `json:"all_or_nothing"`
}

// processMessage applies one donation. Rejected and redelivered donations
// are logged and skipped; the offset moves on either way.
func (l *DonationListener) processMessage(ctx context.Context, value []byte) {
	var event DonationRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != stock.EventDonationRequested {
		return
	}

	l.logger.Info("Processing DonationRequested event",
		zap.String("event_id", event.EventID),
		zap.String("association_id", event.Payload.AssociationID),
	)

	txns, err := l.uc.DeductMany(ctx, &dto.DeductManyInput{
		AssociationID: event.Payload.AssociationID,
		Items:         event.Payload.Items,
		AllOrNothing:  event.Payload.AllOrNothing,
		EventID:       event.EventID,
	})
	if errors.Is(err, stock.ErrDuplicateEvent) {
		l.logger.Info("Skipping already processed donation", zap.String("event_id", event.EventID))
		return
	}
	if err != nil {
		fields := []zap.Field{
			zap.String("event_id", event.EventID),
			zap.String("code", string(apperr.KindOf(err))),
			zap.Error(err),
		}
		if e, ok := apperr.As(err); ok && e.ProductID != "" {
			fields = append(fields, zap.String("product_id", e.ProductID))
		}
		l.logger.Error("Failed to apply donation", fields...)
		return
	}

	l.logger.Info("Donation applied",
		zap.String("event_id", event.EventID),
		zap.Int("transactions", len(txns)),
	)
}
