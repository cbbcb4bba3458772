package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// idleLimiterTTL drops the bucket of a client that stayed quiet this long.
const idleLimiterTTL = 5 * time.Minute

// newRateLimiter limits requests per client IP. The browser extension posts
// on every playback tick, so the limit only catches runaway clients.
func newRateLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: idleLimiterTTL,
		}),
		IdentifierExtractor: clientIP,
		DenyHandler:         denyRateLimited,
	})
}

func clientIP(c echo.Context) (string, error) {
	return c.RealIP(), nil
}

func denyRateLimited(c echo.Context, clientIP string, _ error) error {
	slog.WarnContext(c.Request().Context(), "Rate limit exceeded", "client_ip", clientIP, "path", c.Path())

	c.Response().Header().Set("Retry-After", "1")
	body := map[string]string{"error": "rate limit exceeded", "type": "rate_limited"}
	if err := c.JSON(http.StatusTooManyRequests, body); err != nil {
		return fmt.Errorf("failed to write rate limit response: %w", err)
	}
	return nil
}
