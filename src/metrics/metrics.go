package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the tracker's operational counters via Prometheus.
type Recorder struct {
	quotesAppended *prometheus.CounterVec
	providerErrors *prometheus.CounterVec
	commandsServed *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		quotesAppended: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_tracker_quotes_appended_total",
				Help: "Total number of quotes appended to a series",
			},
			[]string{"symbol"},
		),
		providerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_tracker_provider_errors_total",
				Help: "Total number of provider errors encountered",
			},
			[]string{"kind"},
		),
		commandsServed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_tracker_commands_served_total",
				Help: "Total number of wire commands served",
			},
			[]string{"verb", "status"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signal_tracker_last_price",
				Help: "Last appended price for a symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordQuoteAppended records one appended quote.
func (r *Recorder) RecordQuoteAppended(symbol string, price float64) {
	r.quotesAppended.WithLabelValues(symbol).Inc()
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordProviderError records a provider failure by kind.
func (r *Recorder) RecordProviderError(kind string) {
	r.providerErrors.WithLabelValues(kind).Inc()
}

// RecordCommand records one served command and its outcome.
func (r *Recorder) RecordCommand(verb, status string) {
	r.commandsServed.WithLabelValues(verb, status).Inc()
}
