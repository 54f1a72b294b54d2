package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAndExpose(t *testing.T) {
	reg := prometheus.NewRegistry()
	hm := NewHandlerMetrics(reg)
	sm := NewServiceMetrics(reg)
	rm := NewRepositoryMetrics(reg)

	hm.Observe("POST", "/items", "success", time.Now())
	sm.Observe("CreateAd", "error", time.Now())
	sm.ValidationFailures.WithLabelValues("Авто", "brand").Inc()
	rm.Observe("memory", "CreateAd", "success", time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(hm.RequestCount.WithLabelValues("POST", "/items", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sm.MethodCount.WithLabelValues("CreateAd", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.QueryCount.WithLabelValues("memory", "CreateAd", "success")))

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "handler_requests_total")
	assert.Contains(t, string(body), "service_ad_validation_failures_total")
}
