package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	m := New()
	m.ObserveSweep(3, 1, 40*time.Millisecond)
	m.RateFallback()
	m.RateLookup("hit")
	m.TaskProcessed("parcels.ping", "SUCCESS")
	m.TaskDispatched("parcels.ping", "default")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.parcelsPriced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pricingFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksProcessed.WithLabelValues("parcels.ping", "SUCCESS")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "parcels_priced_total 3"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSweep(1, 1, time.Second)
	m.RateFallback()
	m.RateLookup("miss")
	m.TaskProcessed("x", "y")
	m.TaskDispatched("x", "y")
	assert.Nil(t, m.Registry())
}
