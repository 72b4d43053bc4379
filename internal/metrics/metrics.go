// ABOUTME: Prometheus counters and histograms describing a generation run.
// ABOUTME: Kept on a private registry and exported as a textfile at the end of a run.

package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the run's metrics. A nil Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	PairsTotal      *prometheus.CounterVec
	RowsWritten     *prometheus.CounterVec
	CityFailures    prometheus.Counter
	GatewayCalls    *prometheus.CounterVec
	GatewayRepaired *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	CollectAttempts prometheus.Histogram
	MergeRows       *prometheus.CounterVec
}

// New creates a Recorder on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		PairsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnergen_pairs_total",
				Help: "Total number of (city, type) pairs by outcome",
			},
			[]string{"type", "status"},
		),
		RowsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnergen_rows_written_total",
				Help: "Total number of contact rows written to per-pair files",
			},
			[]string{"type"},
		),
		CityFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "partnergen_city_failures_total",
				Help: "Total number of cities abandoned after an error",
			},
		),
		GatewayCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnergen_gateway_calls_total",
				Help: "Total number of generation calls by provider and result",
			},
			[]string{"provider", "result"},
		),
		GatewayRepaired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnergen_gateway_repaired_total",
				Help: "Total number of responses recovered from truncation",
			},
			[]string{"provider"},
		),
		GatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "partnergen_gateway_call_duration_seconds",
				Help:    "Duration of generation calls in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"provider"},
		),
		CollectAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "partnergen_collect_attempts",
				Help:    "Generation attempts needed per written pair",
				Buckets: []float64{1, 2, 3, 4, 6, 8},
			},
		),
		MergeRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnergen_merge_rows_total",
				Help: "Rows seen while merging, by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObservePair counts a pair outcome.
func (r *Recorder) ObservePair(partnerType, status string, rows, attempts int) {
	if r == nil {
		return
	}
	r.PairsTotal.WithLabelValues(partnerType, status).Inc()
	if rows > 0 {
		r.RowsWritten.WithLabelValues(partnerType).Add(float64(rows))
	}
	if attempts > 0 {
		r.CollectAttempts.Observe(float64(attempts))
	}
}

// ObserveCityFailure counts an abandoned city.
func (r *Recorder) ObserveCityFailure() {
	if r == nil {
		return
	}
	r.CityFailures.Inc()
}

// ObserveCall records one generation call.
func (r *Recorder) ObserveCall(provider string, d time.Duration, repaired bool, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.GatewayCalls.WithLabelValues(provider, result).Inc()
	r.GatewayDuration.WithLabelValues(provider).Observe(d.Seconds())
	if repaired {
		r.GatewayRepaired.WithLabelValues(provider).Inc()
	}
}

// ObserveMerge records merge row counts.
func (r *Recorder) ObserveMerge(unique, duplicate, noChannel int) {
	if r == nil {
		return
	}
	r.MergeRows.WithLabelValues("unique").Add(float64(unique))
	r.MergeRows.WithLabelValues("duplicate").Add(float64(duplicate))
	r.MergeRows.WithLabelValues("no_channel").Add(float64(noChannel))
}

// WriteTextfile writes every metric in text exposition format to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
