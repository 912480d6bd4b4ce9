package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	orgdomain "github.com/smallbiznis/tollgate/internal/organization/domain"
)

const (
	contextIdentityKey   = "identity"
	contextMembershipKey = "membership"
)

// Identity is the verified bearer of an identity-provider token.
type Identity struct {
	SubjectID string
	Email     string
	FullName  string
	AvatarURL string
}

type tokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// TokenRequired verifies the Bearer token and stores the caller identity.
// It does not require the caller to have an organization yet; signup runs
// behind this alone.
func (s *Server) TokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := s.verifyBearer(c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(contextIdentityKey, identity)
		c.Next()
	}
}

// AuthRequired verifies the token and resolves the caller's membership.
// Callers without an organization get 401.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := s.verifyBearer(c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		membership, err := s.orgSvc.GetMembership(c.Request.Context(), identity.SubjectID)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextIdentityKey, identity)
		c.Set(contextMembershipKey, membership)
		c.Next()
	}
}

// RequireRole gates a route on the caller's organization role.
func (s *Server) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		membership := membershipFromContext(c)
		if membership == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if membership.User.Role == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

func (s *Server) verifyBearer(header string) (Identity, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return Identity{}, ErrUnauthorized
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return []byte(s.cfg.AuthJWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Identity{}, ErrUnauthorized
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Identity{}, ErrUnauthorized
	}

	return Identity{
		SubjectID: subject,
		Email:     strings.TrimSpace(claims.Email),
		FullName:  strings.TrimSpace(claims.Name),
		AvatarURL: strings.TrimSpace(claims.Picture),
	}, nil
}

func identityFromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(contextIdentityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

func membershipFromContext(c *gin.Context) *orgdomain.Membership {
	v, ok := c.Get(contextMembershipKey)
	if !ok {
		return nil
	}
	membership, ok := v.(*orgdomain.Membership)
	if !ok {
		return nil
	}
	return membership
}
