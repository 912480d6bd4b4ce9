package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	orgdomain "github.com/smallbiznis/tollgate/internal/organization/domain"
	usagedomain "github.com/smallbiznis/tollgate/internal/usage/domain"
)

type trackUsageRequest struct {
	EventType string         `json:"event_type"`
	Credits   *int64         `json:"credits"`
	Metadata  map[string]any `json:"metadata"`
}

func (s *Server) TrackUsage(c *gin.Context) {
	membership := membershipFromContext(c)
	if membership == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req trackUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	credits := int64(1)
	if req.Credits != nil {
		credits = *req.Credits
	}

	userID := membership.User.ID
	receipt, err := s.usageSvc.Consume(c.Request.Context(), usagedomain.TrackRequest{
		OrgID:       membership.Organization.ID,
		UserID:      &userID,
		EventType:   req.EventType,
		CreditsUsed: credits,
		Metadata:    req.Metadata,
	})
	if err != nil {
		if errors.Is(err, usagedomain.ErrLimitExceeded) {
			s.rejectOverLimit(c, membership)
			return
		}
		AbortWithError(c, err)
		return
	}

	s.metrics.RecordUsageEvent()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"remaining": receipt.Remaining,
		"limit":     receipt.Limit,
	})
}

// rejectOverLimit re-reads the current balance so the 429 body can tell the
// caller where they stand.
func (s *Server) rejectOverLimit(c *gin.Context, membership *orgdomain.Membership) {
	body := gin.H{
		"error":   "Usage limit exceeded",
		"upgrade": true,
	}
	if check, err := s.usageSvc.CheckLimit(c.Request.Context(), membership.Organization.ID, 0); err == nil {
		body["remaining"] = check.Remaining
		body["limit"] = check.Limit
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, body)
}

func (s *Server) UsageSummary(c *gin.Context) {
	membership := membershipFromContext(c)
	if membership == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	summary, err := s.usageSvc.Summary(c.Request.Context(), membership.Organization.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period_start": summary.PeriodStart,
		"total_used":   summary.TotalUsed,
		"limit":        summary.Limit,
		"remaining":    summary.Remaining,
	})
}
