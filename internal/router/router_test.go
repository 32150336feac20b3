package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/voxaiomni/admin-core/internal/user"
	"github.com/voxaiomni/admin-core/pkg/database"
)

type fakeProvider struct{ err error }

func (p fakeProvider) Conn(context.Context) (*sqlx.DB, error) { return nil, p.err }

func newTestRouter(logger *zap.SugaredLogger, provider database.Provider) http.Handler {
	gate := user.NewGate(user.ModeStatic, nil, nil, nil)
	return RegisterRoutes(logger, user.NewHandler(gate, nil), provider, time.Second)
}

// blockingProvider waits until the caller's context ends.
type blockingProvider struct{}

func (blockingProvider) Conn(ctx context.Context) (*sqlx.DB, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestHealth(t *testing.T) {
	h := newTestRouter(nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestHealthDB(t *testing.T) {
	cases := []struct {
		name     string
		provider database.Provider
		status   int
	}{
		{"healthy", fakeProvider{}, http.StatusOK},
		{"unavailable", fakeProvider{err: database.ErrUnavailable}, http.StatusServiceUnavailable},
		{"not configured", nil, http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(nil, c.provider).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))
			assert.Equal(t, c.status, rec.Code)
		})
	}
}

func TestSignInRoute(t *testing.T) {
	h := newTestRouter(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", strings.NewReader(`{"user_Id":"admin","password":"admin123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/dashboard"`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/signin", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := newTestRouter(zap.New(core).Sugar(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	generated := rec.Header().Get("X-Request-Id")
	require.Len(t, generated, 27)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, generated, entries[0].ContextMap()["request_id"])
	assert.Equal(t, "abc-123", entries[1].ContextMap()["request_id"])
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
}

func TestLoggingMiddleware_WarnsOnServerErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := newTestRouter(zap.New(core).Sugar(), fakeProvider{err: errors.New("down")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestHealthDB_UsesConfiguredTimeout(t *testing.T) {
	gate := user.NewGate(user.ModeStatic, nil, nil, nil)
	h := RegisterRoutes(nil, user.NewHandler(gate, nil), blockingProvider{}, 30*time.Millisecond)

	start := time.Now()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Less(t, time.Since(start), time.Second)
}
