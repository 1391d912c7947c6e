package ratelimit

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware limits each client IP to limit requests per window. When the
// limiter is nil the middleware is a no-op, so the server runs unchanged
// without Redis.
func Middleware(limiter *Limiter, limit int, window time.Duration) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		result, err := limiter.Allow(c.Request.Context(), c.ClientIP(), limit, window)
		if err != nil {
			// Redis being down should not take the API with it
			log.Printf("⚠️  Rate limiter unavailable: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, please try again later"})
			return
		}
		c.Next()
	}
}
