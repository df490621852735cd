// Package metrics exposes Prometheus collectors for calculations and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Calculation outcomes used as the "outcome" label.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalidInput = "invalid_input"
	OutcomeInfeasible   = "infeasible"
	OutcomeCanceled     = "canceled"
	OutcomeError        = "error"
)

var (
	// CalculationLatencyBuckets span 10µs to 5s; large orders fill tables with millions of totals.
	CalculationLatencyBuckets = []float64{
		0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
	}

	// HorizonBuckets grow by 10x from 100 to 10M totals.
	HorizonBuckets = prometheus.ExponentialBuckets(100, 10, 6)
)

// Recorder records service metrics. A nil *Recorder discards observations.
type Recorder struct {
	calculations        *prometheus.CounterVec
	calculationDuration prometheus.Histogram
	horizon             prometheus.Histogram
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pack_calculations_total",
				Help: "Counter of pack calculations broken out by outcome.",
			},
			[]string{"outcome"},
		),
		calculationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pack_calculation_duration_seconds",
				Help:    "Distribution of time spent computing a fulfillment plan.",
				Buckets: CalculationLatencyBuckets,
			},
		),
		horizon: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pack_calculation_horizon",
				Help:    "Distribution of search horizons (totals examined) for successful calculations.",
				Buckets: HorizonBuckets,
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Counter of HTTP requests broken out by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Distribution of HTTP request latencies by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		r.calculations,
		r.calculationDuration,
		r.horizon,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// NewRegistry returns a registry preloaded with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveCalculation records one calculation. horizon is ignored unless positive.
func (r *Recorder) ObserveCalculation(outcome string, elapsed time.Duration, horizon int) {
	if r == nil {
		return
	}
	r.calculations.WithLabelValues(outcome).Inc()
	r.calculationDuration.Observe(elapsed.Seconds())
	if horizon > 0 {
		r.horizon.Observe(float64(horizon))
	}
}

// ObserveRequest records one completed HTTP request.
func (r *Recorder) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
