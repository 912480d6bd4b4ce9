// Package domain contains persistence models for tenants and their members.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Organization represents a tenant. Plan and UsageLimit are mutually
// consistent: every plan write also writes the plan's canonical limit.
type Organization struct {
	ID                   snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name                 string            `gorm:"type:text;not null" json:"name"`
	Slug                 string            `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	Plan                 string            `gorm:"type:text;not null;default:'free'" json:"plan"`
	UsageLimit           int64             `gorm:"not null;default:1000" json:"usage_limit"`
	StripeCustomerID     *string           `gorm:"type:text;column:stripe_customer_id" json:"stripe_customer_id"`
	StripeSubscriptionID *string           `gorm:"type:text;column:stripe_subscription_id" json:"stripe_subscription_id"`
	Metadata             datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt            time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User carries the identity provider's subject id as its primary key. A user
// belongs to at most one organization.
type User struct {
	ID        string            `gorm:"primaryKey;type:text" json:"id"`
	OrgID     *snowflake.ID     `gorm:"index" json:"org_id"`
	Role      string            `gorm:"type:text;not null;default:'member'" json:"role"`
	Email     string            `gorm:"type:text;not null" json:"email"`
	FullName  string            `gorm:"type:text" json:"full_name"`
	AvatarURL string            `gorm:"type:text" json:"avatar_url"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
