package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/ratelimit"
)

// RateLimitMiddleware throttles requests per authenticated user, or per
// client IP before authentication.
func RateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID := c.GetString("userID"); userID != "" {
			key = "user:" + userID
		}

		d := limiter.Allow(c.Request.Context(), key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(d.ResetIn.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"error": gin.H{"code": "RATE_LIMITED", "message": "Too many requests, try again later"}})
			return
		}
		c.Next()
	}
}
