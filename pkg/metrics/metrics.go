// Package metrics exposes the service counters in prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics methods are nil-safe so components can run without a registry.
type Metrics struct {
	registry *prometheus.Registry

	usageLoggedTotal  prometheus.Counter
	usageLitersTotal  prometheus.Counter
	storeErrorsTotal  *prometheus.CounterVec
	alertsFiredTotal  prometheus.Counter
	alertFailures     *prometheus.CounterVec
	sensorReadings    prometheus.Counter
	subscriptions     prometheus.Gauge
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	rateLimitRejected *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		usageLoggedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aquapure_usage_logged_total",
			Help: "Total usage deltas applied.",
		}),
		usageLitersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aquapure_usage_liters_total",
			Help: "Total liters logged.",
		}),
		storeErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquapure_store_errors_total",
			Help: "Store operations that failed after retries, by operation.",
		}, []string{"op"}),
		alertsFiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aquapure_alerts_fired_total",
			Help: "Total contamination alerts fired.",
		}),
		alertFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquapure_alert_side_effect_failures_total",
			Help: "Alert side effects that failed, by side effect.",
		}, []string{"effect"}),
		sensorReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aquapure_sensor_readings_total",
			Help: "Total sensor snapshots evaluated.",
		}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aquapure_active_subscriptions",
			Help: "Live window subscriptions.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquapure_requests_total",
			Help: "Requests handled by transport, route and status.",
		}, []string{"transport", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aquapure_request_duration_seconds",
			Help:    "Request durations by transport and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"transport", "route"}),
		rateLimitRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquapure_rate_limit_rejected_total",
			Help: "Requests rejected by the per-user limiter, by transport.",
		}, []string{"transport"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.usageLoggedTotal,
		m.usageLitersTotal,
		m.storeErrorsTotal,
		m.alertsFiredTotal,
		m.alertFailures,
		m.sensorReadings,
		m.subscriptions,
		m.requestsTotal,
		m.requestDuration,
		m.rateLimitRejected,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) UsageLogged(liters float64) {
	if m == nil {
		return
	}
	m.usageLoggedTotal.Inc()
	m.usageLitersTotal.Add(liters)
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrorsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) AlertFired() {
	if m == nil {
		return
	}
	m.alertsFiredTotal.Inc()
}

func (m *Metrics) AlertFailure(effect string) {
	if m == nil {
		return
	}
	m.alertFailures.WithLabelValues(effect).Inc()
}

func (m *Metrics) SensorReading() {
	if m == nil {
		return
	}
	m.sensorReadings.Inc()
}

func (m *Metrics) SubscriptionOpened() {
	if m == nil {
		return
	}
	m.subscriptions.Inc()
}

func (m *Metrics) SubscriptionClosed() {
	if m == nil {
		return
	}
	m.subscriptions.Dec()
}

func (m *Metrics) ObserveRequest(transport, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(transport, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(transport, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RateLimited(transport string) {
	if m == nil {
		return
	}
	m.rateLimitRejected.WithLabelValues(transport).Inc()
}
