package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_GetMetrics(t *testing.T) {
	m := NewMonitor()
	m.RecordOrderCreated("card")
	m.RecordOrderCreated("cash")
	m.RecordEstimate(30, false)
	m.RecordEstimate(54, true)

	metrics := m.GetMetrics()

	assert.Equal(t, 2.0, metrics["orders_created_total"])
	assert.Equal(t, uint64(2), metrics["delivery_estimates_count"])
	assert.InDelta(t, 42.0, metrics["delivery_estimate_avg_minutes"], 1e-9)

	_, exists := metrics["uptime_seconds"]
	assert.True(t, exists, "uptime_seconds should always be present")
}

func TestMonitor_EstimatesLabelledByPeak(t *testing.T) {
	m := NewMonitor()
	m.RecordEstimate(30, false)
	m.RecordEstimate(54, true)
	m.RecordEstimate(45, true)

	assert.Equal(t, 2, testutil.CollectAndCount(m.estimates))

	m.RecordEstimateFailure("restaurant_not_found")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.estimateErrors.WithLabelValues("restaurant_not_found")))

	m.RecordStatusChange("delivered")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusChanges.WithLabelValues("delivered")))
}

func TestMonitor_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMonitor()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/things/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/things/42", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/things/:id", "200")))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))
}
