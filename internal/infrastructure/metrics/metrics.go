package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/tally/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersCompleted prometheus.Counter
	TransferDuration   prometheus.Histogram
	TransferAmount     prometheus.Histogram
	TransferErrors     *prometheus.CounterVec

	// Account metrics
	AccountsSeeded prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// New creates all Prometheus metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transfer metrics
		TransfersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "tally_transfers_completed_total",
			Help: "Total number of completed transfers",
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tally_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tally_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		TransferErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_transfer_errors_total",
				Help: "Total number of transfer errors by type",
			},
			[]string{"error_type"},
		),

		// Account metrics
		AccountsSeeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "tally_accounts_seeded_total",
			Help: "Total number of accounts created by seeding",
		}),

		// Cache metrics
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "tally_account_cache_hits_total",
			Help: "Total account cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "tally_account_cache_misses_total",
			Help: "Total account cache misses",
		}),
	}
}

// TransferErrorReason maps a transfer error to its error_type label.
func TransferErrorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		return "missing_field"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, domain.ErrSourceNotFound):
		return "source_not_found"
	case errors.Is(err, domain.ErrDestinationNotFound):
		return "destination_not_found"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return "operational"
	}
}
