// internal/interfaces/http/middleware/rate_limit.go
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pos-backend/internal/config"
)

const rateLimitWindow = time.Minute

// Limiter counts hits against a key in a fixed window
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// RateLimit limits each client IP per minute. When the limiter is
// unavailable requests are let through.
func RateLimit(cfg *config.Config, limiter Limiter, log logrus.FieldLogger) gin.HandlerFunc {
	limit := cfg.Security.RateLimitPerMinute

	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		key := "rate_limit:" + c.ClientIP()
		allowed, remaining, err := limiter.Allow(ctx, key, limit, rateLimitWindow)
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": int(rateLimitWindow.Seconds()),
			})
			return
		}

		c.Next()
	}
}
