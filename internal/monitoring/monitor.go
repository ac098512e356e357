package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor owns the service's Prometheus registry and collectors
type Monitor struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	ordersCreated  *prometheus.CounterVec
	statusChanges  *prometheus.CounterVec
	estimates      *prometheus.HistogramVec
	estimateErrors *prometheus.CounterVec

	startTime time.Time
}

// NewMonitor creates a monitor with its own registry
func NewMonitor() *Monitor {
	m := &Monitor{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
			[]string{"method", "path"},
		),
		ordersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "orders_created_total", Help: "Orders placed, by payment method."},
			[]string{"payment_method"},
		),
		statusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "order_status_changes_total", Help: "Order status transitions, by new status."},
			[]string{"status"},
		),
		estimates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "delivery_estimate_minutes",
				Help:    "Estimated delivery minutes for new orders.",
				Buckets: prometheus.LinearBuckets(10, 10, 12),
			},
			[]string{"peak"},
		),
		estimateErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "delivery_estimate_failures_total", Help: "Estimations that aborted order creation."},
			[]string{"reason"},
		),
		startTime: time.Now(),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.ordersCreated,
		m.statusChanges,
		m.estimates,
		m.estimateErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies by route template
func (m *Monitor) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordEstimate observes one delivery estimate
func (m *Monitor) RecordEstimate(minutes float64, peak bool) {
	m.estimates.WithLabelValues(strconv.FormatBool(peak)).Observe(minutes)
}

// RecordEstimateFailure counts an estimation that stopped an order
func (m *Monitor) RecordEstimateFailure(reason string) {
	m.estimateErrors.WithLabelValues(reason).Inc()
}

// RecordOrderCreated counts a persisted order
func (m *Monitor) RecordOrderCreated(paymentMethod string) {
	m.ordersCreated.WithLabelValues(paymentMethod).Inc()
}

// RecordStatusChange counts an admin status update
func (m *Monitor) RecordStatusChange(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

// GetMetrics returns a flat snapshot of the service's own counters, summed
// across labels, plus uptime
func (m *Monitor) GetMetrics() map[string]interface{} {
	metrics := map[string]interface{}{
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}

	families, err := m.registry.Gather()
	if err != nil {
		return metrics
	}

	for _, mf := range families {
		switch name := mf.GetName(); name {
		case "orders_created_total", "order_status_changes_total", "delivery_estimate_failures_total", "http_requests_total":
			var total float64
			for _, metric := range mf.GetMetric() {
				total += metric.GetCounter().GetValue()
			}
			metrics[name] = total
		case "delivery_estimate_minutes":
			var count uint64
			var sum float64
			for _, metric := range mf.GetMetric() {
				count += metric.GetHistogram().GetSampleCount()
				sum += metric.GetHistogram().GetSampleSum()
			}
			metrics["delivery_estimates_count"] = count
			if count > 0 {
				metrics["delivery_estimate_avg_minutes"] = sum / float64(count)
			}
		}
	}
	return metrics
}
