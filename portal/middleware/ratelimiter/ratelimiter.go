package ratelimiter

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const DefaultMessage = "Too many requests, please try again later."

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

type RateLimiter struct {
	storage *Storage
	logger  *zap.Logger
}

func NewRateLimiter(storage *Storage, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		storage: storage,
		logger:  logger,
	}
}

// Storage exposes the underlying store, e.g. for a cleanup worker.
func (rl *RateLimiter) Storage() *Storage {
	return rl.storage
}

// Check counts the request against cfg and reports whether it is admitted.
// It never fails: a backend error is logged and the request is let through.
func (rl *RateLimiter) Check(r *http.Request, cfg Config) Result {
	if cfg.SkipFunc != nil && cfg.SkipFunc(r) {
		return Result{
			Allowed:   true,
			Limit:     cfg.Limit,
			Remaining: cfg.Limit,
		}
	}

	identify := cfg.IdentifierFunc
	if identify == nil {
		identify = DefaultIdentifier
	}
	key := routeKey(identify(r), r.URL.Path)

	return rl.check(r.Context(), key, cfg)
}

func (rl *RateLimiter) check(ctx context.Context, key string, cfg Config) Result {
	entry, err := rl.storage.Hit(ctx, key, cfg.Window)
	if err != nil {
		rl.logger.Error("rate limit check failed, admitting request",
			zap.String("key", key),
			zap.Error(err))
		return Result{
			Allowed:   true,
			Limit:     cfg.Limit,
			Remaining: cfg.Limit,
		}
	}

	result := Result{
		Allowed:   entry.Count <= cfg.Limit,
		Limit:     cfg.Limit,
		Remaining: max(0, cfg.Limit-entry.Count),
		ResetAt:   entry.ResetTime,
	}
	if !result.Allowed {
		rl.logger.Info("rate limit exceeded",
			zap.String("key", key),
			zap.Int("count", entry.Count),
			zap.Int("limit", cfg.Limit),
			zap.Time("reset_at", entry.ResetTime))
	}
	return result
}

type rejection struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// Handler wraps next with a limit check, writing the X-RateLimit headers on
// every response and a 429 JSON body on rejection.
func (rl *RateLimiter) Handler(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := rl.Check(r, cfg)

			h := w.Header()
			h.Set(HeaderLimit, strconv.Itoa(result.Limit))
			h.Set(HeaderRemaining, strconv.Itoa(result.Remaining))
			if !result.ResetAt.IsZero() {
				h.Set(HeaderReset, strconv.FormatInt(result.ResetAt.Unix(), 10))
			}

			if result.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := RetryAfterSeconds(result.ResetAt, rl.storage.Now())
			h.Set(HeaderRetryAfter, strconv.Itoa(retryAfter))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rejection{
				Error:      message(r, cfg),
				RetryAfter: retryAfter,
			})
		})
	}
}

// RetryAfterSeconds rounds the time left in the window up to whole seconds,
// never below 1.
func RetryAfterSeconds(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

func message(r *http.Request, cfg Config) string {
	if cfg.MessageFunc != nil {
		if msg := cfg.MessageFunc(r); msg != "" {
			return msg
		}
	}
	if cfg.Message != "" {
		return cfg.Message
	}
	return DefaultMessage
}

func (rl *RateLimiter) ResetGlobalState(ctx context.Context) error {
	return rl.storage.Clear(ctx)
}
