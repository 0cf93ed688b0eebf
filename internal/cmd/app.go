package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hkd-kulturverein/website/cmd/configs"
	"github.com/hkd-kulturverein/website/internal/infra/api"
	"github.com/hkd-kulturverein/website/internal/infra/database"
	"github.com/hkd-kulturverein/website/internal/infra/database/local"
	"github.com/hkd-kulturverein/website/internal/infra/database/sqlite"
	"github.com/hkd-kulturverein/website/portal"
	"github.com/hkd-kulturverein/website/portal/i18n"
	"github.com/hkd-kulturverein/website/portal/middleware/ratelimiter"
)

const backendPingTimeout = 3 * time.Second

// app is everything serve needs, assembled from config.
type app struct {
	cfg     *configs.Config
	logger  *zap.Logger
	limiter *ratelimiter.RateLimiter
	bundle  *i18n.Bundle
	repo    database.SubmissionRepository
	portal  *portal.Portal
	closers []func() error
}

func newApp(ctx context.Context, cfg *configs.Config, logger *zap.Logger) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	backend, err := a.openBackend(ctx)
	if err != nil {
		return a, err
	}

	interval, err := cfg.SweepInterval()
	if err != nil {
		return a, err
	}
	storage := ratelimiter.NewStorage(backend,
		ratelimiter.WithSweepInterval(interval),
		ratelimiter.WithLogger(logger))
	a.limiter = ratelimiter.NewRateLimiter(storage, logger)

	registry := i18n.DefaultRegistry()
	if lang, ok := registry.Parse(cfg.DefaultLanguage); ok {
		registry = registry.WithDefault(lang)
	} else {
		logger.Warn("unsupported DEFAULT_LANGUAGE, keeping registry default",
			zap.String("configured", cfg.DefaultLanguage),
			zap.String("default", string(registry.Default())))
	}
	a.bundle = i18n.NewBundle(registry, logger)

	if err := a.openRepository(); err != nil {
		return a, err
	}

	limits := api.DefaultLimits()
	form, ok := ratelimiter.Preset(cfg.RateLimiterFormPreset)
	if !ok {
		return a, fmt.Errorf("unknown RATE_LIMITER_FORM_PRESET %q", cfg.RateLimiterFormPreset)
	}
	limits.Forms = form

	var opts []portal.Option
	if entries := cfg.Allowlist(); len(entries) > 0 {
		allow, err := ratelimiter.NewAllowlist(entries)
		if err != nil {
			return a, fmt.Errorf("RATE_LIMITER_ALLOWLIST: %w", err)
		}
		opts = append(opts, portal.WithSkip(ratelimiter.SkipAllowlisted(allow)))
	}

	a.portal = portal.NewRouter(a.limiter, a.bundle, logger, opts...)
	api.NewHandlers(a.repo, a.bundle, logger).Register(a.portal, limits)
	return a, nil
}

func (a *app) openBackend(ctx context.Context) (ratelimiter.Backend, error) {
	switch a.cfg.RateLimiterBackend {
	case "redis":
		rb := ratelimiter.NewRedisBackend(a.cfg.RateLimiterRedisAddr)
		a.closers = append(a.closers, rb.Close)

		pingCtx, cancel := context.WithTimeout(ctx, backendPingTimeout)
		defer cancel()
		if err := rb.Ping(pingCtx); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", a.cfg.RateLimiterRedisAddr, err)
		}
		return rb, nil
	case "sqlite":
		sb, err := ratelimiter.NewSQLiteBackend(a.cfg.RateLimiterSQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sb.Close)
		return sb, nil
	default:
		return ratelimiter.NewMemoryBackend(), nil
	}
}

func (a *app) openRepository() error {
	if a.cfg.DatabasePath == "" {
		a.logger.Warn("DATABASE_PATH not set, submissions are kept in memory")
		a.repo = local.InitDataSource()
		return nil
	}
	repo, err := sqlite.Open(a.cfg.DatabasePath)
	if err != nil {
		return err
	}
	a.repo = repo
	a.closers = append(a.closers, repo.Close)
	return nil
}

// start loads dictionaries in the background and, when configured, runs the
// cleanup worker until ctx ends.
func (a *app) start(ctx context.Context) <-chan struct{} {
	if a.cfg.RateLimiterCleanupWorker {
		go a.limiter.Storage().StartCleanupWorker(ctx)
	}
	return a.bundle.LoadAsync(ctx)
}

func (a *app) Handler() http.Handler {
	return a.portal.Handler
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
