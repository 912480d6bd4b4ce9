package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/tollgate/internal/organization/domain"
	"github.com/smallbiznis/tollgate/internal/plan"
	"github.com/smallbiznis/tollgate/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	gdb     *gorm.DB
	repo    domain.Repository
	catalog *plan.Catalog
	genID   *snowflake.Node
	log     *zap.Logger
}

func NewService(gdb *gorm.DB, repo domain.Repository, catalog *plan.Catalog, genID *snowflake.Node, log *zap.Logger) domain.Service {
	return &service{
		gdb:     gdb,
		repo:    repo,
		catalog: catalog,
		genID:   genID,
		log:     log.Named("organization"),
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateOrganizationRequest) (*domain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, domain.ErrUserNotFound
	}

	now := time.Now().UTC()
	org := domain.Organization{
		ID:         s.genID.Generate(),
		Name:       name,
		Slug:       s.uniqueSlug(name),
		Plan:       string(plan.Free),
		UsageLimit: s.catalog.Resolve(plan.Free).Int64(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	orgID := org.ID
	owner := domain.User{
		ID:        req.OwnerID,
		OrgID:     &orgID,
		Role:      domain.RoleOwner,
		Email:     strings.TrimSpace(req.OwnerEmail),
		FullName:  strings.TrimSpace(req.OwnerName),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}
		return repo.CreateUser(ctx, owner)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}

	s.log.Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug),
	)
	return &org, nil
}

// uniqueSlug derives a URL slug from the organization name with a short
// numeric suffix so concurrent signups with the same name do not collide.
func (s *service) uniqueSlug(name string) string {
	base := slug.Make(name)
	if base == "" {
		base = "org"
	}
	return fmt.Sprintf("%s-%d", base, s.genID.Generate().Int64()%1_000_000)
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	return s.repo.GetOrganization(ctx, id)
}

func (s *service) GetMembership(ctx context.Context, userID string) (*domain.Membership, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.OrgID == nil {
		return nil, domain.ErrNotFound
	}
	org, err := s.repo.GetOrganization(ctx, *user.OrgID)
	if err != nil {
		return nil, err
	}
	return &domain.Membership{User: *user, Organization: *org}, nil
}

func (s *service) ChangePlan(ctx context.Context, orgID snowflake.ID, target plan.Plan) error {
	if _, err := s.repo.GetOrganization(ctx, orgID); err != nil {
		return err
	}
	if err := s.repo.UpdatePlan(ctx, orgID, target, s.catalog.Resolve(target)); err != nil {
		return err
	}
	s.log.Info("plan changed",
		zap.String("org_id", orgID.String()),
		zap.String("plan", string(target)),
	)
	return nil
}
