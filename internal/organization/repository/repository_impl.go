package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tollgate/internal/organization/domain"
	"github.com/smallbiznis/tollgate/internal/plan"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateOrganization(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Create(&org).Error
}

func (r *repository) CreateUser(ctx context.Context, user domain.User) error {
	return r.db.WithContext(ctx).Create(&user).Error
}

func (r *repository) GetOrganization(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) GetOrganizationBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) GetOrganizationByStripeCustomer(ctx context.Context, customerID string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "stripe_customer_id = ?", customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) GetOrganizationByStripeSubscription(ctx context.Context, subscriptionID string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "stripe_subscription_id = ?", subscriptionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) UpdatePlan(ctx context.Context, orgID snowflake.ID, p plan.Plan, limit plan.Limit) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE organizations SET plan = ?, usage_limit = ?, updated_at = ? WHERE id = ?`,
		string(p),
		limit.Int64(),
		time.Now().UTC(),
		orgID,
	).Error
}

func (r *repository) SetStripeRefs(ctx context.Context, orgID snowflake.ID, customerID, subscriptionID string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE organizations SET stripe_customer_id = ?, stripe_subscription_id = ?, updated_at = ? WHERE id = ?`,
		customerID,
		subscriptionID,
		time.Now().UTC(),
		orgID,
	).Error
}

func (r *repository) SetStripeCustomer(ctx context.Context, orgID snowflake.ID, customerID string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE organizations SET stripe_customer_id = ?, updated_at = ? WHERE id = ?`,
		customerID,
		time.Now().UTC(),
		orgID,
	).Error
}

func (r *repository) ClearStripeSubscription(ctx context.Context, subscriptionID string, p plan.Plan, limit plan.Limit) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE organizations SET plan = ?, usage_limit = ?, stripe_subscription_id = NULL, updated_at = ?
		 WHERE stripe_subscription_id = ?`,
		string(p),
		limit.Int64(),
		time.Now().UTC(),
		subscriptionID,
	).Error
}
