package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	orgdomain "github.com/smallbiznis/tollgate/internal/organization/domain"
)

func organizationView(org *orgdomain.Organization, role string) gin.H {
	return gin.H{
		"id":          org.ID.String(),
		"name":        org.Name,
		"slug":        org.Slug,
		"plan":        org.Plan,
		"usage_limit": org.UsageLimit,
		"role":        role,
	}
}

func (s *Server) GetOrganization(c *gin.Context) {
	membership := membershipFromContext(c)
	if membership == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, organizationView(&membership.Organization, membership.User.Role))
}

func (s *Server) ListPlans(c *gin.Context) {
	defs := s.catalog.Definitions()
	plans := make([]gin.H, 0, len(defs))
	for _, def := range defs {
		plans = append(plans, gin.H{
			"plan":     def.Plan,
			"name":     def.Name,
			"credits":  def.Credits,
			"features": def.Features,
		})
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}
