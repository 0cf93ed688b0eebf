package api

import (
	"net/http"

	"github.com/hkd-kulturverein/website/portal"
	"github.com/hkd-kulturverein/website/portal/middleware/ratelimiter"
)

// Limits are the rate limits applied per route group.
type Limits struct {
	Forms    ratelimiter.Config
	Language ratelimiter.Config
	Assets   ratelimiter.Config
}

func DefaultLimits() Limits {
	return Limits{
		Forms:    ratelimiter.Form,
		Language: ratelimiter.Standard,
		Assets:   ratelimiter.Relaxed,
	}
}

func (h *Handlers) Register(p *portal.Portal, limits Limits) {
	p.HandleFunc(http.MethodGet, "/health", HealthHandler)
	p.Limit(http.MethodPost, "/api/contact", limits.Forms, h.Contact)
	p.Limit(http.MethodPost, "/api/newsletter", limits.Forms, h.Newsletter)
	p.Limit(http.MethodPost, "/api/language", limits.Language, h.Language)
	p.Limit(http.MethodGet, "/api/i18n/{lang}", limits.Assets, h.Dictionary)
	p.NotFound(NotFound)
}
