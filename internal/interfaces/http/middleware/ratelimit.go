package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vendorflow/internal/infrastructure/ratelimit"
	"vendorflow/internal/shared/logger"
	"vendorflow/internal/shared/utils"
)

// RateLimit caps requests per client IP under scope. Limiter failures let the
// request through.
func RateLimit(limiter ratelimit.RateLimiter, scope string, cfg ratelimit.RateLimitConfig, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "http:" + scope + ":" + c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), key, cfg)
		if err != nil {
			log.Warnw("rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}
		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
