// Package portal wires the site's HTTP surface: request IDs, logging,
// language resolution and per-route rate limits on top of chi.
package portal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hkd-kulturverein/website/portal/i18n"
	"github.com/hkd-kulturverein/website/portal/middleware"
	"github.com/hkd-kulturverein/website/portal/middleware/ratelimiter"
)

type Portal struct {
	router  chi.Router
	limiter *ratelimiter.RateLimiter
	bundle  *i18n.Bundle
	skip    func(r *http.Request) bool
	Handler http.Handler
}

type Option func(*Portal)

// WithSkip exempts matching requests from every route limit, e.g. an
// allowlist of office addresses.
func WithSkip(skip func(r *http.Request) bool) Option {
	return func(p *Portal) {
		p.skip = skip
	}
}

func NewRouter(limiter *ratelimiter.RateLimiter, bundle *i18n.Bundle, logger *zap.Logger, opts ...Option) *Portal {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(bundle.Middleware)

	p := &Portal{
		router:  r,
		limiter: limiter,
		bundle:  bundle,
		Handler: r,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Portal) HandleFunc(method, pattern string, handler http.HandlerFunc) {
	p.router.Method(method, pattern, handler)
}

// Limit registers handler behind a rate limit. The 429 message is
// translated for the visitor unless cfg already carries one.
func (p *Portal) Limit(method, pattern string, cfg ratelimiter.Config, handler http.HandlerFunc) {
	if cfg.MessageFunc == nil && cfg.Message == "" {
		cfg.MessageFunc = localisedRateLimitMessage
	}
	if cfg.SkipFunc == nil {
		cfg.SkipFunc = p.skip
	}
	p.router.With(p.limiter.Handler(cfg)).Method(method, pattern, handler)
}

func (p *Portal) NotFound(handler http.HandlerFunc) {
	p.router.NotFound(handler)
}

func (p *Portal) Bundle() *i18n.Bundle {
	return p.bundle
}

func localisedRateLimitMessage(r *http.Request) string {
	msg := i18n.T(r.Context(), "errors.rateLimit", nil)
	if msg == "errors.rateLimit" {
		return ""
	}
	return msg
}
