package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tollgate/internal/plan"
)

type checkoutRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	membership := membershipFromContext(c)
	if membership == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Plan) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	url, err := s.billingSvc.CreateCheckoutSession(
		c.Request.Context(),
		membership.Organization.ID,
		membership.User.Email,
		plan.Parse(req.Plan),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (s *Server) CreatePortal(c *gin.Context) {
	membership := membershipFromContext(c)
	if membership == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	url, err := s.billingSvc.CreatePortalSession(c.Request.Context(), membership.Organization.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
