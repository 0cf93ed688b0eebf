package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hkd-kulturverein/website/portal/i18n"
	"github.com/hkd-kulturverein/website/portal/middleware"
	"github.com/hkd-kulturverein/website/portal/middleware/ratelimiter"
)

func newTestPortal(t *testing.T, opts ...Option) *Portal {
	t.Helper()

	bundle := i18n.NewBundle(i18n.DefaultRegistry(), zap.NewNop())
	require.NoError(t, bundle.Load(context.Background()))

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	storage := ratelimiter.NewStorage(ratelimiter.NewMemoryBackend(),
		ratelimiter.WithClock(func() time.Time { return now }))

	return NewRouter(ratelimiter.NewRateLimiter(storage, zap.NewNop()), bundle, zap.NewNop(), opts...)
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func serve(p *Portal, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("X-Real-IP", "192.168.1.1")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	p.Handler.ServeHTTP(w, req)
	return w
}

func TestPortal_AllowsRequestsBelowLimit(t *testing.T) {
	p := newTestPortal(t)
	p.Limit(http.MethodGet, "/test", ratelimiter.NewConfig(5, time.Second), okHandler)

	for i := 0; i < 5; i++ {
		w := serve(p, http.MethodGet, "/test", nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}
}

func TestPortal_BlocksRequestsAboveLimit(t *testing.T) {
	p := newTestPortal(t)
	p.Limit(http.MethodGet, "/test", ratelimiter.NewConfig(5, time.Second), okHandler)

	var w *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		w = serve(p, http.MethodGet, "/test", nil)
	}

	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Previše zahtjeva. Pokušajte ponovno za nekoliko minuta.", body["error"])
}

func TestPortal_ExplicitMessageWins(t *testing.T) {
	p := newTestPortal(t)
	cfg := ratelimiter.NewConfig(1, time.Minute)
	cfg.Message = "slow down"
	p.Limit(http.MethodGet, "/test", cfg, okHandler)

	serve(p, http.MethodGet, "/test", nil)
	w := serve(p, http.MethodGet, "/test", nil)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"slow down"`)
}

func TestPortal_LimitsArePerRoute(t *testing.T) {
	p := newTestPortal(t)
	cfg := ratelimiter.NewConfig(1, time.Minute)
	p.Limit(http.MethodGet, "/a", cfg, okHandler)
	p.Limit(http.MethodGet, "/b", cfg, okHandler)

	assert.Equal(t, http.StatusOK, serve(p, http.MethodGet, "/a", nil).Code)
	assert.Equal(t, http.StatusOK, serve(p, http.MethodGet, "/b", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(p, http.MethodGet, "/a", nil).Code)
}

func TestPortal_WithSkip(t *testing.T) {
	allow, err := ratelimiter.NewAllowlist([]string{"192.168.0.0/16"})
	require.NoError(t, err)

	p := newTestPortal(t, WithSkip(ratelimiter.SkipAllowlisted(allow)))
	p.Limit(http.MethodGet, "/test", ratelimiter.NewConfig(1, time.Minute), okHandler)

	for i := 0; i < 3; i++ {
		w := serve(p, http.MethodGet, "/test", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1", w.Header().Get(ratelimiter.HeaderRemaining))
	}

	w := serve(p, http.MethodGet, "/test", map[string]string{"X-Real-IP": "10.0.0.1"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(p, http.MethodGet, "/test", map[string]string{"X-Real-IP": "10.0.0.1"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestPortal_SetsRequestIDAndLanguage(t *testing.T) {
	p := newTestPortal(t)
	var seen i18n.Lang
	p.HandleFunc(http.MethodGet, "/page", func(w http.ResponseWriter, r *http.Request) {
		seen = i18n.FromContext(r.Context()).Language()
		okHandler(w, r)
	})

	w := serve(p, http.MethodGet, "/page", map[string]string{"Accept-Language": "de-DE"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, i18n.German, seen)
	assert.Equal(t, "de", w.Header().Get("Content-Language"))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestPortal_RecoversFromPanics(t *testing.T) {
	p := newTestPortal(t)
	p.HandleFunc(http.MethodGet, "/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := serve(p, http.MethodGet, "/boom", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
