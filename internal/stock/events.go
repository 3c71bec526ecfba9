package stock

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-donation-service/internal/model"
)

const (
	EventDonationRequested     = "DonationRequested"
	EventStockMovementRecorded = "StockMovementRecorded"
)

// Publisher sends encoded events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type MovementEvent struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Payload   model.Transaction `json:"payload"`
	Timestamp time.Time         `json:"timestamp"`
}
