package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := NewMetrics()

	m.UsageLogged(2)
	m.UsageLogged(3.5)
	m.AlertFired()
	m.AlertFailure("history")
	m.StoreError("increment")
	m.RateLimited("http")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.usageLoggedTotal))
	assert.Equal(t, 5.5, testutil.ToFloat64(m.usageLitersTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertsFiredTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertFailures.WithLabelValues("history")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeErrorsTotal.WithLabelValues("increment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitRejected.WithLabelValues("http")))

	m.SubscriptionOpened()
	m.SubscriptionOpened()
	m.SubscriptionClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subscriptions))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.UsageLogged(1)
		m.AlertFired()
		m.AlertFailure("notification")
		m.SensorReading()
		m.SubscriptionOpened()
		m.ObserveRequest("grpc", "/x", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("http", "/users/:user_id/usage", http.StatusOK, 10*time.Millisecond)

	// two instances register on their own registries
	_ = NewMetrics()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `aquapure_requests_total{route="/users/:user_id/usage",status="200",transport="http"} 1`))
}
