package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fitbusiness"

// Collector owns a private registry so several instances can coexist in tests.
// All methods are safe on a nil receiver.
type Collector struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     prometheus.Histogram
	mutations    *prometheus.CounterVec
	importRows   *prometheus.CounterVec
	insights     *prometheus.CounterVec
	companies    prometheus.Gauge
	employees    prometheus.Gauge
	auditFailure prometheus.Counter
	throttled    *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by status class.",
		}, []string{"code"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Record store mutations by operation.",
		}, []string{"op"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "imports",
			Name:      "rows_total",
			Help:      "Validated import rows by outcome.",
		}, []string{"outcome"}),
		insights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "insights",
			Name:      "responses_total",
			Help:      "Insight responses by key and source.",
		}, []string{"key", "source"}),
		companies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "companies",
			Help:      "Companies currently held.",
		}),
		employees: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "employees",
			Help:      "Employees currently held.",
		}),
		auditFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "write_failures_total",
			Help:      "Audit events that could not be persisted.",
		}),
		throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "throttled_total",
			Help:      "Requests rejected by a rate limiter, by limiter scope.",
		}, []string{"scope"}),
	}
	c.registry.MustRegister(
		c.requests, c.duration, c.mutations, c.importRows, c.insights,
		c.companies, c.employees, c.auditFailure, c.throttled,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(statusClass(status)).Inc()
	c.duration.Observe(duration.Seconds())
}

func (c *Collector) RecordMutation(op string) {
	if c == nil {
		return
	}
	c.mutations.WithLabelValues(op).Inc()
}

func (c *Collector) RecordImport(valid, invalid int) {
	if c == nil {
		return
	}
	c.importRows.WithLabelValues("valid").Add(float64(valid))
	c.importRows.WithLabelValues("invalid").Add(float64(invalid))
}

func (c *Collector) RecordInsight(key, source string) {
	if c == nil {
		return
	}
	c.insights.WithLabelValues(key, source).Inc()
}

func (c *Collector) RecordAuditFailure() {
	if c == nil {
		return
	}
	c.auditFailure.Inc()
}

func (c *Collector) RecordThrottled(scope string) {
	if c == nil {
		return
	}
	c.throttled.WithLabelValues(scope).Inc()
}

// SetStoreSize updates the record-count gauges.
func (c *Collector) SetStoreSize(companies, employees int) {
	if c == nil {
		return
	}
	c.companies.Set(float64(companies))
	c.employees.Set(float64(employees))
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
