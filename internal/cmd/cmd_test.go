package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hkd-kulturverein/website/cmd/configs"
	"github.com/hkd-kulturverein/website/portal/i18n"
)

func testConfig() *configs.Config {
	return &configs.Config{
		ServerPort:               "127.0.0.1:0",
		LogLevel:                 "info",
		LogFormat:                "json",
		RateLimiterBackend:       "memory",
		RateLimiterSweepInterval: "1m",
		RateLimiterFormPreset:    "form",
		DefaultLanguage:          "hr",
	}
}

func newTestApp(t *testing.T, cfg *configs.Config) *app {
	t.Helper()
	a, err := newApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	done := a.start(context.Background())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dictionaries did not load")
	}
	return a
}

func postJSON(h http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewApp_MemoryBackend(t *testing.T) {
	a := newTestApp(t, testConfig())

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(a.Handler(), "/api/contact", `{"name":"Ana","email":"ana@example.hr","message":"Bok"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	count, err := a.repo.CountContacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewApp_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RateLimiterBackend = "redis"
	cfg.RateLimiterRedisAddr = mr.Addr()

	a := newTestApp(t, cfg)

	w := postJSON(a.Handler(), "/api/newsletter", `{"email":"ana@example.hr"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.True(t, mr.Exists("ratelimit:unknown:/api/newsletter"))
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.RateLimiterBackend = "redis"
	cfg.RateLimiterRedisAddr = addr

	_, err := newApp(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "connect to redis")
}

func TestNewApp_SQLiteStorage(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.RateLimiterBackend = "sqlite"
	cfg.RateLimiterSQLitePath = filepath.Join(dir, "limits.db")
	cfg.DatabasePath = filepath.Join(dir, "submissions.db")
	cfg.RateLimiterFormPreset = "strict"

	a := newTestApp(t, cfg)

	for i := 0; i < 4; i++ {
		w := postJSON(a.Handler(), "/api/contact", `{"name":"Ana","email":"ana@example.hr","message":"Bok"}`)
		require.Equal(t, http.StatusCreated, w.Code, "strict preset allows more than the form preset")
		assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	}

	entries, err := a.limiter.Storage().List(context.Background())
	require.NoError(t, err)
	require.Contains(t, entries, "unknown:/api/contact")
	assert.Equal(t, 4, entries["unknown:/api/contact"].Count)
}

func TestNewApp_ConfigErrors(t *testing.T) {
	t.Run("unknown preset", func(t *testing.T) {
		cfg := testConfig()
		cfg.RateLimiterFormPreset = "generous"
		_, err := newApp(context.Background(), cfg, zap.NewNop())
		assert.ErrorContains(t, err, "RATE_LIMITER_FORM_PRESET")
	})

	t.Run("bad allowlist", func(t *testing.T) {
		cfg := testConfig()
		cfg.RateLimiterAllowlist = "10.0.0.0/8,not-an-ip"
		_, err := newApp(context.Background(), cfg, zap.NewNop())
		assert.ErrorContains(t, err, "RATE_LIMITER_ALLOWLIST")
	})
}

func TestNewApp_AllowlistSkipsLimits(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimiterAllowlist = "10.0.0.0/8"
	a := newTestApp(t, cfg)

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/newsletter",
			strings.NewReader(`{"email":"office@example.hr"}`))
		req.Header.Set("X-Forwarded-For", "10.1.2.3")
		w := httptest.NewRecorder()
		a.Handler().ServeHTTP(w, req)
		assert.NotEqual(t, http.StatusTooManyRequests, w.Code)
	}
}

func TestNewApp_DefaultLanguage(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultLanguage = "de"
	a := newTestApp(t, cfg)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/i18n/fr", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "de", w.Header().Get("Content-Language"))
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- serve(ctx, testConfig(), zap.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPresetsCommand(t *testing.T) {
	out, err := runCommand(t, "presets")
	require.NoError(t, err)

	for _, want := range []string{"form", "5m0s", "strict", "relaxed", "auth", "15m0s"} {
		assert.Contains(t, out, want)
	}
}

func TestI18nMissingCommand_EmbeddedDictionariesAgree(t *testing.T) {
	out, err := runCommand(t, "i18n", "missing", "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "All dictionaries define the same keys.")
}

func TestRenderMissingKeys(t *testing.T) {
	fsys := fstest.MapFS{
		"hr.json": {Data: []byte(`{"nav":{"home":"Početna","team":"Tim"}}`)},
		"de.json": {Data: []byte(`{"nav":{"home":"Startseite"},"extra":"nur de"}`)},
	}
	bundle := i18n.NewBundle(i18n.NewRegistry(fsys,
		i18n.Resource{Lang: i18n.Croatian, Path: "hr.json"},
		i18n.Resource{Lang: i18n.German, Path: "de.json"},
	), zap.NewNop())
	require.NoError(t, bundle.Load(context.Background()))

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, renderMissingKeys(cmd, bundle, false))
	assert.Contains(t, out.String(), "nav.team")
	assert.Contains(t, out.String(), "extra")
	assert.Contains(t, out.String(), "2 missing")

	out.Reset()
	assert.ErrorContains(t, renderMissingKeys(cmd, bundle, true), "2 translation keys missing")
}
