package domain

import (
	"context"

	orgdomain "github.com/smallbiznis/tollgate/internal/organization/domain"
)

// Identity is the verified caller as asserted by the identity provider.
type Identity struct {
	SubjectID string
	Email     string
	FullName  string
	AvatarURL string
}

type Request struct {
	Identity         Identity
	OrganizationName string
}

type Result struct {
	Organization orgdomain.Organization
	User         orgdomain.User
}

// Service provisions a tenant on first login: one organization on the free
// plan with the caller as owner.
type Service interface {
	Signup(ctx context.Context, req Request) (*Result, error)
}
