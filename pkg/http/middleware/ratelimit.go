package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Limiter decides whether the request identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// RateLimit rejects requests over the limit with 429. Requests are keyed by client IP.
func RateLimit(l Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}
