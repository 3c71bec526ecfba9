package listener

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/stock"
	"github.com/fekuna/omnipos-donation-service/internal/stock/dto"
	"github.com/fekuna/omnipos-donation-service/internal/stock/repository"
	"github.com/fekuna/omnipos-donation-service/internal/stock/usecase"
	"github.com/fekuna/omnipos-donation-service/internal/testutil"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

// fakeReader hands out queued messages, then blocks until ctx is done.
type fakeReader struct {
	mu       sync.Mutex
	messages []kafka.Message
	errs     []error
	drained  chan struct{}
}

func newFakeReader(values ...[]byte) *fakeReader {
	r := &fakeReader{drained: make(chan struct{})}
	for _, v := range values {
		r.messages = append(r.messages, kafka.Message{Value: v})
	}
	return r
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	select {
	case <-r.drained:
	default:
		close(r.drained)
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func encode(t *testing.T, eventType string, payload DonationRequestPayload) []byte {
	t.Helper()
	return encodeWithID(t, uuid.New().String(), eventType, payload)
}

func encodeWithID(t *testing.T, eventID, eventType string, payload DonationRequestPayload) []byte {
	t.Helper()
	data, err := json.Marshal(DonationRequestedEvent{
		EventID:   eventID,
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func run(t *testing.T, l *DonationListener, r *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	select {
	case <-r.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not drain its messages")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func newListener(t *testing.T, r *fakeReader) (*testutil.Fixture, *DonationListener) {
	t.Helper()
	f := testutil.NewFixture(t)
	uc := usecase.NewStockUseCase(repository.NewPGRepository(f.DB), nil, nil, nil, logger.NewNop())
	l := NewDonationListener(r, uc, logger.NewNop())
	l.backoff = time.Millisecond
	return f, l
}

func TestListenerAppliesDonations(t *testing.T) {
	r := newFakeReader()
	f, l := newListener(t, r)
	rice := testutil.SeedProduct(t, f.DB, f.Assoc.ID, f.Category.ID, "Rice", "2", 5)
	milk := testutil.SeedProduct(t, f.DB, f.Assoc.ID, f.Category.ID, "Milk", "1", 1)

	r.errs = []error{errors.New("broker unavailable")}
	r.messages = []kafka.Message{
		{Value: []byte("not json")},
		{Value: encode(t, "SomethingElse", DonationRequestPayload{
			AssociationID: f.Assoc.ID,
			Items:         []dto.DeductItem{{ProductID: rice.ID, Quantity: 5}},
		})},
		{Value: encode(t, stock.EventDonationRequested, DonationRequestPayload{
			AssociationID: f.Assoc.ID,
			Items:         []dto.DeductItem{{ProductID: rice.ID, Quantity: 2}},
		})},
		{Value: encode(t, stock.EventDonationRequested, DonationRequestPayload{
			AssociationID: f.Assoc.ID,
			Items:         []dto.DeductItem{{ProductID: rice.ID, Quantity: 1}, {ProductID: milk.ID, Quantity: 3}},
			AllOrNothing:  true,
		})},
	}

	run(t, l, r)

	if q := testutil.ProductQuantity(t, f.DB, rice.ID); q != 3 {
		t.Errorf("rice quantity = %d, want 3", q)
	}
	if q := testutil.ProductQuantity(t, f.DB, milk.ID); q != 1 {
		t.Errorf("milk quantity = %d, want 1", q)
	}
	if n := testutil.CountTransactions(t, f.DB, rice.ID, model.TransactionOut); n != 1 {
		t.Errorf("rice ledger rows = %d, want 1", n)
	}
}

func TestListenerSkipsRedeliveredEvent(t *testing.T) {
	r := newFakeReader()
	f, l := newListener(t, r)
	rice := testutil.SeedProduct(t, f.DB, f.Assoc.ID, f.Category.ID, "Rice", "2", 5)

	for _, allOrNothing := range []bool{false, true} {
		event := encodeWithID(t, uuid.New().String(), stock.EventDonationRequested, DonationRequestPayload{
			AssociationID: f.Assoc.ID,
			Items:         []dto.DeductItem{{ProductID: rice.ID, Quantity: 2}},
			AllOrNothing:  allOrNothing,
		})
		r.messages = append(r.messages, kafka.Message{Value: event}, kafka.Message{Value: event})
	}

	run(t, l, r)

	if q := testutil.ProductQuantity(t, f.DB, rice.ID); q != 1 {
		t.Errorf("rice quantity = %d, want 1", q)
	}
	if n := testutil.CountTransactions(t, f.DB, rice.ID, model.TransactionOut); n != 2 {
		t.Errorf("rice ledger rows = %d, want 2", n)
	}
}
