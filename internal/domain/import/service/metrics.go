package service

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/sniffer"
)

const (
	outcomeImported    = "imported"
	outcomeEmpty       = "nothing_found"
	outcomeBusy        = "busy"
	outcomeUnsupported = "unsupported"
	outcomeFailed      = "failed"
)

// Metrics holds the Prometheus collectors for statement imports. A nil
// *Metrics records nothing.
type Metrics struct {
	imports      *prometheus.CounterVec
	transactions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewMetrics registers the import collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		imports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "statement_imports_total",
			Help:      "Statement imports by format, bank and outcome.",
		}, []string{"format", "bank", "outcome"}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "imported_transactions_total",
			Help:      "Parsed transactions by dedup result.",
		}, []string{"result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledger",
			Name:      "statement_import_duration_seconds",
			Help:      "Time spent extracting, parsing and storing one statement.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"format"}),
	}
}

func (m *Metrics) observeOutcome(format sniffer.Format, bank common.Bank, outcome string) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(string(format), string(bank), outcome).Inc()
}

func (m *Metrics) observeDuration(format sniffer.Format, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(string(format)).Observe(d.Seconds())
}

func (m *Metrics) observeTransactions(r *ImportResult) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues("added").Add(float64(r.Added))
	m.transactions.WithLabelValues("skipped").Add(float64(r.Skipped))
}

func outcomeFor(result *ImportResult, err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return outcomeUnsupported
	case err != nil:
		return outcomeFailed
	case result.NothingFound():
		return outcomeEmpty
	default:
		return outcomeImported
	}
}
