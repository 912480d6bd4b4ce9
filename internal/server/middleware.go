package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tollgate/internal/ratelimit"
)

// RateLimit enforces the quota for a route class. Identity is the caller's
// organization when authenticated, the client IP otherwise, so anonymous
// callers cannot exhaust a tenant's quota.
func (s *Server) RateLimit(class ratelimit.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.ClientIP()
		if membership := membershipFromContext(c); membership != nil {
			identity = membership.Organization.ID.String()
		}

		result, err := s.limiter.Allow(c.Request.Context(), class, identity)
		if err != nil {
			// The limiter itself fails open; an error here is unexpected.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))

		if !result.Allowed {
			s.metrics.RecordRateLimited(string(class))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
				Error: errorPayload{
					Type:    "rate_limited",
					Message: "too many requests",
				},
			})
			return
		}

		c.Next()
	}
}
