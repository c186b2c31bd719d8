package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
)

// SchedulerHeader carries the shared key of the job scheduler.
const SchedulerHeader = "X-API-Key"

// SchedulerAuthMiddleware admits only requests carrying the configured
// scheduler key. The billing sweep endpoints act on every user's data, so
// they are closed entirely while no key is configured.
func SchedulerAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": "SCHEDULER_NOT_CONFIGURED", "message": "Scheduler endpoints are not configured"}})
			return
		}
		key := c.GetHeader(SchedulerHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			logger.Get().Warnw("rejected scheduler request",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "INVALID_API_KEY", "message": "Invalid or missing API key"}})
			return
		}
		c.Set("scheduler", true)
		c.Next()
	}
}
