// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/streamflix/internal/config"
	"github.com/carterperez-dev/streamflix/internal/core"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (s stubVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*AccessTokenClaims, error) {
	return s.claims, s.err
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) core.Response {
	t.Helper()
	var body core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGuardDisabledPassesThrough(t *testing.T) {
	guard := NewGuard(nil, false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/users/a@b.c", nil)
	guard.Write(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRoles(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		write  bool
		header string
		want   int
	}{
		{"viewer reads", RoleViewer, false, "Bearer x", http.StatusOK},
		{"viewer cannot write", RoleViewer, true, "Bearer x", http.StatusForbidden},
		{"admin writes", RoleAdmin, true, "Bearer x", http.StatusOK},
		{"missing token", RoleAdmin, false, "", http.StatusUnauthorized},
		{"wrong scheme", RoleAdmin, false, "Basic x", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := NewGuard(stubVerifier{
				claims: &AccessTokenClaims{Subject: "ops", Role: tt.role},
			}, true)

			mw := guard.Read
			if tt.write {
				mw = guard.Write
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			mw(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthenticatorRejectsExpiredToken(t *testing.T) {
	guard := NewGuard(stubVerifier{err: core.ErrTokenExpired}, true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	req.Header.Set("Authorization", "Bearer stale")
	guard.Read(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, core.CodeTokenExpired, body.Error.Code)
}

func TestAuthenticatorStoresSubject(t *testing.T) {
	var seen string
	handler := Authenticator(stubVerifier{
		claims: &AccessTokenClaims{Subject: "ops@streamflix", Role: RoleAdmin},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSubject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer tok")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "ops@streamflix", seen)
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var fromCtx string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, fromCtx)
	assert.Equal(t, fromCtx, rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-1")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-1", fromCtx)
}

func TestLoggerRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Logger(discardLogger()))
	r.Get("/api/users/{email}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/a@b.c", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(true)(http.HandlerFunc(okHandler)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	SecurityHeaders(false)(http.HandlerFunc(okHandler)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiterLocalFallback(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit: redis_rate.Limit{Rate: 1, Burst: 2, Period: time.Hour},
	})
	handler := rl.Handler(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)

		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			body := decodeEnvelope(t, rec)
			require.NotNil(t, body.Error)
			assert.Equal(t, CodeRateLimited, body.Error.Code)
		}
	}

	assert.Equal(t,
		[]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		codes,
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterBypassesProbes(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:      redis_rate.Limit{Rate: 1, Burst: 1, Period: time.Hour},
		BypassFunc: BypassProbes,
	})
	handler := rl.Handler(http.HandlerFunc(okHandler))

	for range 3 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestKeyByOperatorPrefersSubject(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:1234"
	assert.Equal(t, "ratelimit:ip:192.0.2.4", KeyByOperator(req))

	ctx := context.WithValue(req.Context(), SubjectKey, "ops")
	assert.Equal(t, "ratelimit:operator:ops", KeyByOperator(req.WithContext(ctx)))
}

func TestIdentifyLetsLimiterKeyOnOperator(t *testing.T) {
	guard := NewGuard(stubVerifier{
		claims: &AccessTokenClaims{Subject: "ops", Role: RoleViewer},
	}, true)

	var key string
	handler := guard.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = KeyByOperator(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	req.RemoteAddr = "192.0.2.4:1234"
	req.Header.Set("Authorization", "Bearer tok")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "ratelimit:operator:ops", key)

	anon := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	anon.RemoteAddr = "192.0.2.4:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, anon)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ratelimit:ip:192.0.2.4", key)
}

func TestIdentifyIgnoresInvalidToken(t *testing.T) {
	guard := NewGuard(stubVerifier{err: core.ErrTokenExpired}, true)

	var subject string
	reached := false
	handler := guard.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		subject = GetSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	req.Header.Set("Authorization", "Bearer stale")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, reached)
	assert.Empty(t, subject)

	rec := httptest.NewRecorder()
	guard.Identify(guard.Read(http.HandlerFunc(okHandler))).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLimitFromConfigDefaultsBurst(t *testing.T) {
	limit := LimitFromConfig(config.RateLimitConfig{
		Requests: 300,
		Window:   time.Minute,
	})
	assert.Equal(t, 300, limit.Rate)
	assert.Equal(t, 300, limit.Burst)
	assert.Equal(t, time.Minute, limit.Period)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
