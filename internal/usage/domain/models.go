// Package domain contains the append-only credit ledger model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UsageEvent records one credit-consuming action. Rows are never updated or
// deleted; the ledger balance is the sum over the current billing period.
type UsageEvent struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID      `gorm:"not null;index:ix_usage_events_org_created,priority:1" json:"org_id"`
	UserID      *string           `gorm:"type:text" json:"user_id"`
	EventType   string            `gorm:"type:text;not null" json:"event_type"`
	CreditsUsed int64             `gorm:"not null;default:1" json:"credits_used"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index:ix_usage_events_org_created,priority:2" json:"created_at"`
}

// TableName sets the database table name.
func (UsageEvent) TableName() string { return "usage_events" }
