package stock

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fekuna/omnipos-donation-service/internal/model"
)

// Metrics counts ledger activity. A nil *Metrics records nothing.
type Metrics struct {
	movements  *prometheus.CounterVec
	units      *prometheus.CounterVec
	outOfStock prometheus.Counter
}

func NewMetrics(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		movements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_stock_movements_total",
				Help: "Ledger rows appended, by movement type",
			},
			[]string{"type"},
		),
		units: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_stock_units_total",
				Help: "Units moved in or out of stock",
			},
			[]string{"type"},
		),
		outOfStock: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_stock_out_of_stock_total",
				Help: "Donation items rejected for insufficient stock",
			},
		),
	}
}

func (m *Metrics) RecordMovement(t *model.Transaction) {
	if m == nil {
		return
	}
	m.movements.WithLabelValues(string(t.Type)).Inc()
	m.units.WithLabelValues(string(t.Type)).Add(float64(t.Quantity))
}

func (m *Metrics) RecordOutOfStock() {
	if m == nil {
		return
	}
	m.outOfStock.Inc()
}

// Units exposes the per-type unit counter, mostly for tests.
func (m *Metrics) Units(t model.TransactionType) prometheus.Counter {
	return m.units.WithLabelValues(string(t))
}

func (m *Metrics) OutOfStock() prometheus.Counter {
	return m.outOfStock
}
