package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecord(t *testing.T) {
	c := New()
	c.Record(http.StatusOK, 10*time.Millisecond)
	c.Record(http.StatusCreated, 5*time.Millisecond)
	c.Record(http.StatusTooManyRequests, time.Millisecond)
	c.Record(http.StatusInternalServerError, time.Millisecond)

	require.Equal(t, float64(2), testutil.ToFloat64(c.requests.WithLabelValues("2xx")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.requests.WithLabelValues("4xx")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.requests.WithLabelValues("5xx")))
}

func TestCollectorDomainCounters(t *testing.T) {
	c := New()
	c.RecordMutation("employee.create")
	c.RecordMutation("employee.create")
	c.RecordImport(3, 1)
	c.RecordInsight("overview", "fallback")
	c.SetStoreSize(2, 9)
	c.RecordThrottled("insights")

	require.Equal(t, float64(2), testutil.ToFloat64(c.mutations.WithLabelValues("employee.create")))
	require.Equal(t, float64(3), testutil.ToFloat64(c.importRows.WithLabelValues("valid")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.importRows.WithLabelValues("invalid")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.insights.WithLabelValues("overview", "fallback")))
	require.Equal(t, float64(9), testutil.ToFloat64(c.employees))
	require.Equal(t, float64(1), testutil.ToFloat64(c.throttled.WithLabelValues("insights")))
}

func TestCollectorHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.RecordMutation("company.create")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "fitbusiness_store_mutations_total"))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Record(http.StatusOK, time.Millisecond)
	c.RecordMutation("x")
	c.RecordImport(1, 1)
	c.RecordInsight("k", "ai")
	c.RecordAuditFailure()
	c.SetStoreSize(1, 1)
	c.RecordThrottled("general")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
