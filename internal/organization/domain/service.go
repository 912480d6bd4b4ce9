package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tollgate/internal/plan"
)

var (
	ErrNotFound     = errors.New("organization_not_found")
	ErrUserNotFound = errors.New("user_not_found")
	ErrUserExists   = errors.New("user_exists")
	ErrInvalidName  = errors.New("invalid_organization_name")
)

type CreateOrganizationRequest struct {
	Name string

	// Owner of the new organization; the subject id comes from the
	// identity provider.
	OwnerID    string
	OwnerEmail string
	OwnerName  string
}

// Membership is the resolved caller identity: a user plus their organization.
type Membership struct {
	User         User
	Organization Organization
}

type Service interface {
	Create(ctx context.Context, req CreateOrganizationRequest) (*Organization, error)
	Get(ctx context.Context, id snowflake.ID) (*Organization, error)

	// GetMembership resolves a user id to the user and their organization.
	// Users without an organization yield ErrNotFound.
	GetMembership(ctx context.Context, userID string) (*Membership, error)

	// ChangePlan is the administrative upgrade flow; the plan and its
	// canonical limit move together.
	ChangePlan(ctx context.Context, orgID snowflake.ID, target plan.Plan) error
}
