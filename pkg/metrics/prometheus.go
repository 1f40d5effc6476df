package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes ingestion metrics via Prometheus.
type Recorder struct {
	signalsReceived *prometheus.CounterVec
	signalsCreated  *prometheus.CounterVec
	duplicates      *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	winrate         *prometheus.GaugeVec
	ingestLatency   *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradevision_signals_received_total",
				Help: "Total number of webhook events received",
			},
			[]string{"symbol", "tf"},
		),
		signalsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradevision_signals_created_total",
				Help: "Total number of signals stored",
			},
			[]string{"symbol", "tf", "direction"},
		),
		duplicates: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradevision_signals_duplicate_total",
				Help: "Total number of duplicate submissions discarded",
			},
			[]string{"symbol", "tf", "layer"},
		),
		rejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradevision_signals_rejected_total",
				Help: "Total number of webhook events rejected at validation",
			},
			[]string{"reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradevision_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		winrate: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradevision_winrate",
				Help: "Rolling winrate per symbol and timeframe",
			},
			[]string{"symbol", "tf"},
		),
		ingestLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradevision_ingest_duration_seconds",
				Help:    "Duration of signal ingestion in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}
}

// RecordReceived records an inbound webhook event.
func (r *Recorder) RecordReceived(symbol, tf string) {
	r.signalsReceived.WithLabelValues(symbol, tf).Inc()
}

// RecordCreated records a stored signal.
func (r *Recorder) RecordCreated(symbol, tf, direction string) {
	r.signalsCreated.WithLabelValues(symbol, tf, direction).Inc()
}

// RecordDuplicate records a discarded duplicate. Layer is "gate" or "store"
// depending on which duplicate guard caught it.
func (r *Recorder) RecordDuplicate(symbol, tf, layer string) {
	r.duplicates.WithLabelValues(symbol, tf, layer).Inc()
}

// RecordRejection records a validation rejection by reason.
func (r *Recorder) RecordRejection(reason string) {
	r.rejections.WithLabelValues(reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordWinrate records the latest rolling winrate.
func (r *Recorder) RecordWinrate(symbol, tf string, rate float64) {
	r.winrate.WithLabelValues(symbol, tf).Set(rate)
}

// RecordIngestLatency records ingestion latency in seconds.
func (r *Recorder) RecordIngestLatency(outcome string, seconds float64) {
	r.ingestLatency.WithLabelValues(outcome).Observe(seconds)
}
