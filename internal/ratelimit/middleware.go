package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rasaeel/rasaeel/internal/auth"
)

// Middleware rejects requests whose principal exceeded its class ceiling.
// Limiter failures let the request through.
func Middleware(log *slog.Logger, limiter Limiter) echo.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("middleware", "ratelimit"))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil {
				return next(c)
			}
			key := Key{Principal: Principal(c), Class: ClassForPath(c.Request().URL.Path)}
			decision, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				log.Warn("rate limiter unavailable", slog.String("class", string(key.Class)), slog.Any("error", err))
				return next(c)
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				retry := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				log.Info("rate limited",
					slog.String("principal", key.Principal),
					slog.String("class", string(key.Class)),
				)
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate-limited")
			}
			return next(c)
		}
	}
}

// Principal identifies the caller: the authenticated merchant when a token
// was accepted, the client IP otherwise.
func Principal(c echo.Context) string {
	if id, err := auth.MerchantIDFromContext(c); err == nil {
		return "merchant:" + id.String()
	}
	return "ip:" + c.RealIP()
}
