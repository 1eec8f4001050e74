package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"vetclinic/pkg/errors"
	"vetclinic/pkg/response"
)

// IPRateLimit throttles every request by client IP with echo's in-memory store.
// A non-positive rps disables it.
func IPRateLimit(rps float64) echo.MiddlewareFunc {
	if rps <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	burst := int(rps * 2)
	if burst < 1 {
		burst = 1
	}

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(rps),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return response.Error(c, errors.Forbidden("Unable to identify client", err))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return response.Error(c, errors.TooManyRequests("Rate limit exceeded", time.Second))
		},
	})
}
