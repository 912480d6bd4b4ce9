package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tollgate/internal/plan"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrganization(ctx context.Context, org Organization) error
	CreateUser(ctx context.Context, user User) error

	GetOrganization(ctx context.Context, id snowflake.ID) (*Organization, error)
	GetOrganizationBySlug(ctx context.Context, slug string) (*Organization, error)
	GetOrganizationByStripeCustomer(ctx context.Context, customerID string) (*Organization, error)
	GetOrganizationByStripeSubscription(ctx context.Context, subscriptionID string) (*Organization, error)
	GetUser(ctx context.Context, id string) (*User, error)

	// UpdatePlan writes the plan and its canonical limit in one statement.
	UpdatePlan(ctx context.Context, orgID snowflake.ID, p plan.Plan, limit plan.Limit) error
	SetStripeRefs(ctx context.Context, orgID snowflake.ID, customerID, subscriptionID string) error
	SetStripeCustomer(ctx context.Context, orgID snowflake.ID, customerID string) error
	ClearStripeSubscription(ctx context.Context, subscriptionID string, p plan.Plan, limit plan.Limit) error
}
