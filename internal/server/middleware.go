package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/easyvisa/visaflow/internal/ratelimit"
)

// AdminRequired gates a route behind a live admin session cookie.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok || !s.sessionStore.Valid(token) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// RateLimit throttles a route per client IP using a fixed window.
func (s *Server) RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if limiter.Allow(key) {
			c.Next()
			return
		}

		if s.obsMetrics != nil {
			s.obsMetrics.RecordRateLimitDenied(c.FullPath())
		}
		retryAfter := int(limiter.RetryAfter(key).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}})
	}
}
