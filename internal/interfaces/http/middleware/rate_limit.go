package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HitCounter counts hits on a key within a fixed window
type HitCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit allows perMinute requests per client IP and minute. A failing
// counter lets requests through.
func RateLimit(perMinute int, counter HitCounter, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if perMinute <= 0 || counter == nil {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())
		count, err := counter.Hit(ctx, key, time.Minute)
		if err != nil {
			logger.WithError(err).Warn("rate limit counter unavailable")
			c.Next()
			return
		}

		remaining := int64(perMinute) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(perMinute) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
