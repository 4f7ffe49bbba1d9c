package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.GateDecision(true, "public")
	m.GateDecision(false, "unauthenticated")
	m.GateDecision(false, "unauthenticated")
	m.KeySetRefresh(nil)
	m.KeySetRefresh(errors.New("dial tcp"))
	m.TokenVerification("expired")
	m.Login("unknown_principal")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateDecisions.WithLabelValues("allow", "public")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.gateDecisions.WithLabelValues("deny", "unauthenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.keySetRefreshes.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenVerifications.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("unknown_principal")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.GateDecision(true, "public")
		m.TokenVerification("ok")
		m.KeySetRefresh(nil)
		m.Login("ok")
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).GateDecision(true, "public")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `auth_gateway_gate_decisions_total{decision="allow",reason="public"} 1`)
}
