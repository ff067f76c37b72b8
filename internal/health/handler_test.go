// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct {
	err error
}

func (p pinger) Ping(context.Context) error {
	return p.err
}

func serve(t *testing.T, h *Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Get("/api/health", h.API)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestAPIHealthContract(t *testing.T) {
	rec, body := serve(t, NewHandler(), "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "StreamFlix API is running", body["message"])
}

func TestReadinessAllHealthy(t *testing.T) {
	h := NewHandler(Check{Name: "database", Checker: pinger{}}, Check{Name: "redis", Checker: pinger{}})

	rec, body := serve(t, h, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Len(t, body["checks"], 2)
}

func TestReadinessDegraded(t *testing.T) {
	h := NewHandler(
		Check{Name: "database", Checker: pinger{}},
		Check{Name: "redis", Checker: pinger{err: errors.New("refused")}},
	)

	rec, body := serve(t, h, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])

	checks := body["checks"].([]any)
	redis := checks[1].(map[string]any)
	assert.Equal(t, "redis", redis["name"])
	assert.Equal(t, false, redis["healthy"])
	assert.Equal(t, "ping failed", redis["message"])
}

func TestUnconfiguredCheckerIsUnhealthy(t *testing.T) {
	rec, _ := serve(t, NewHandler(Check{Name: "database"}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestShutdownFailsProbes(t *testing.T) {
	h := NewHandler(Check{Name: "database", Checker: pinger{}})
	h.SetShutdown(true)

	for _, path := range []string{"/healthz", "/livez", "/readyz", "/api/health"} {
		rec, body := serve(t, h, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "shutting_down", body["status"], path)
	}
}

func TestNotReady(t *testing.T) {
	h := NewHandler()
	h.SetReady(false)

	rec, body := serve(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])

	rec, _ = serve(t, h, "/livez")
	assert.Equal(t, http.StatusOK, rec.Code)
}
