package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tollgate/internal/usage/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, event domain.UsageEvent) error {
	return r.db.WithContext(ctx).Create(&event).Error
}

func (r *repository) SumCreditsSince(ctx context.Context, orgID snowflake.ID, since time.Time) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT SUM(credits_used) FROM usage_events WHERE org_id = ? AND created_at >= ?`,
		orgID,
		since,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
