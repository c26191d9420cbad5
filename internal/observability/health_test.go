package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func probe(t *testing.T, h *HealthChecker) int {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec.Code
}

func TestHealthz(t *testing.T) {
	h := NewHealthChecker(zap.NewNop())
	require.Equal(t, http.StatusOK, probe(t, h), "starts ready")

	h.SetDependencyReady("redis", false)
	assert.Equal(t, http.StatusServiceUnavailable, probe(t, h))

	h.SetDependencyReady("redis", true)
	h.SetDependencyReady("kafka", true)
	assert.Equal(t, http.StatusOK, probe(t, h))

	h.Shutdown()
	assert.Equal(t, http.StatusServiceUnavailable, probe(t, h), "drains after shutdown")
}
