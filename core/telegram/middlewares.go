package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/botforge/core/config"
	"github.com/m3rciful/botforge/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares is the standard chain applied to every routed update:
// recover first, then receipt logging, reply counters, and rate limiting.
func DefaultMiddlewares(cfg *coreconfig.Config) []tele.MiddlewareFunc {
	chain := []tele.MiddlewareFunc{
		middleware.RecoverMiddleware,
		middleware.LoggerMiddleware,
		middleware.MessageMetricsMiddleware,
	}
	if cfg.RateLimit.IntervalMS > 0 {
		exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range cfg.RateLimit.ExcludeUpdates {
			exclude[kind] = struct{}{}
		}
		chain = append(chain, middleware.RateLimitMiddleware(middleware.RateLimitOptions{
			Interval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
			Exclude:  exclude,
		}))
	}
	return chain
}
