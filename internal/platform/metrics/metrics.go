// Package metrics holds the Prometheus collectors shared by the API and the worker.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe for concurrent use. A nil *Metrics discards every observation.
type Metrics struct {
	registry *prometheus.Registry

	parcelsPriced   prometheus.Counter
	pricingFailures prometheus.Counter
	rateFallbacks   prometheus.Counter
	rateLookups     *prometheus.CounterVec
	sweepDuration   prometheus.Histogram
	tasksProcessed  *prometheus.CounterVec
	tasksDispatched *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		parcelsPriced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parcels_priced_total",
			Help: "Parcels that received a delivery price from the recomputation sweep.",
		}),
		pricingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parcel_pricing_failures_total",
			Help: "Parcels skipped by the recomputation sweep because of an error.",
		}),
		rateFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exchange_rate_fallback_total",
			Help: "Background rate lookups answered by the fallback rate.",
		}),
		rateLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchange_rate_lookups_total",
			Help: "Exchange rate lookups by outcome (hit, miss, error).",
		}, []string{"outcome"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "price_sweep_duration_seconds",
			Help:    "Duration of recomputation sweep runs.",
			Buckets: prometheus.DefBuckets,
		}),
		tasksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasks_processed_total",
			Help: "Tasks executed by the worker by name and final state.",
		}, []string{"task", "state"}),
		tasksDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasks_dispatched_total",
			Help: "Tasks handed to the broker by name and queue.",
		}, []string{"task", "queue"}),
	}

	reg.MustRegister(
		m.parcelsPriced,
		m.pricingFailures,
		m.rateFallbacks,
		m.rateLookups,
		m.sweepDuration,
		m.tasksProcessed,
		m.tasksDispatched,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveSweep(priced, failed int, dur time.Duration) {
	if m == nil {
		return
	}
	m.parcelsPriced.Add(float64(priced))
	m.pricingFailures.Add(float64(failed))
	m.sweepDuration.Observe(dur.Seconds())
}

func (m *Metrics) RateLookup(outcome string) {
	if m == nil {
		return
	}
	m.rateLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RateFallback() {
	if m == nil {
		return
	}
	m.rateFallbacks.Inc()
}

func (m *Metrics) TaskProcessed(task, state string) {
	if m == nil {
		return
	}
	m.tasksProcessed.WithLabelValues(task, state).Inc()
}

func (m *Metrics) TaskDispatched(task, queue string) {
	if m == nil {
		return
	}
	m.tasksDispatched.WithLabelValues(task, queue).Inc()
}
