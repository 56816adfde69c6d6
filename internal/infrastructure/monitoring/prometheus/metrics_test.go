package prometheus

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllVectors(t *testing.T) {
	m := New()

	m.GenerationPassesTotal.WithLabelValues("smart", "applied").Inc()
	m.AdapterCallsTotal.WithLabelValues("ai-likelihood", "error").Inc()
	m.AdapterCallsTotal.WithLabelValues("ai-likelihood", "error").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.GenerationPassesTotal.WithLabelValues("smart", "applied")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.AdapterCallsTotal.WithLabelValues("ai-likelihood", "error")))
}

func TestHandlerServesMetrics(t *testing.T) {
	m := New()
	m.StoreOpsTotal.WithLabelValues("save", "ok").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "annolens_store_operations_total")
}

func TestIndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()
	require.NotSame(t, a.Registry(), b.Registry())
}
