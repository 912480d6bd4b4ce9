package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	signupdomain "github.com/smallbiznis/tollgate/internal/signup/domain"
)

type signupRequest struct {
	OrganizationName string `json:"organization_name"`
}

func (s *Server) Signup(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req signupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	result, err := s.signupSvc.Signup(c.Request.Context(), signupdomain.Request{
		Identity: signupdomain.Identity{
			SubjectID: identity.SubjectID,
			Email:     identity.Email,
			FullName:  identity.FullName,
			AvatarURL: identity.AvatarURL,
		},
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"organization": organizationView(&result.Organization, result.User.Role),
		"user": gin.H{
			"id":    result.User.ID,
			"email": result.User.Email,
			"role":  result.User.Role,
		},
	})
}
