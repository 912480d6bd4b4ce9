package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tollgate/internal/organization/domain"
	"github.com/smallbiznis/tollgate/internal/organization/repository"
	"github.com/smallbiznis/tollgate/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, domain.Repository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Organization{}, &domain.User{}))

	genID, err := snowflake.NewNode(3)
	require.NoError(t, err)

	catalog, err := plan.NewStaticCatalog([]plan.Definition{
		{Plan: plan.Free, Name: "Free", Credits: 1000},
		{Plan: plan.Pro, Name: "Pro", PriceID: "price_pro", Credits: 10000},
	})
	require.NoError(t, err)

	repo := repository.NewRepository(db)
	return NewService(db, repo, catalog, genID, zap.NewNop()), repo
}

func TestCreateProvisionsOrgAndOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, domain.CreateOrganizationRequest{
		Name:       "Acme Inc",
		OwnerID:    "user-1",
		OwnerEmail: "owner@acme.test",
		OwnerName:  "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, string(plan.Free), org.Plan)
	assert.Equal(t, int64(1000), org.UsageLimit)
	assert.Contains(t, org.Slug, "acme-inc")

	membership, err := svc.GetMembership(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, membership.User.Role)
	assert.Equal(t, org.ID, membership.Organization.ID)
}

func TestCreateRejectsDuplicateSubject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateOrganizationRequest{
		Name:    "First",
		OwnerID: "user-1",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateOrganizationRequest{
		Name:    "Second",
		OwnerID: "user-1",
	})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateOrganizationRequest{Name: "  ", OwnerID: "u"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateOrganizationRequest{Name: "Acme", OwnerID: ""})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSlugsDoNotCollide(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateOrganizationRequest{Name: "Acme", OwnerID: "user-1"})
	require.NoError(t, err)

	second, err := svc.Create(ctx, domain.CreateOrganizationRequest{Name: "Acme", OwnerID: "user-2"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Slug, second.Slug)
}

func TestGetMembershipWithoutOrg(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, domain.User{
		ID:    "orphan",
		Email: "orphan@test",
		Role:  domain.RoleMember,
	}))

	_, err := svc.GetMembership(ctx, "orphan")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetMembership(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestChangePlan(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, domain.CreateOrganizationRequest{Name: "Acme", OwnerID: "user-1"})
	require.NoError(t, err)

	require.NoError(t, svc.ChangePlan(ctx, org.ID, plan.Pro))

	reloaded, err := repo.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, string(plan.Pro), reloaded.Plan)
	assert.Equal(t, int64(10000), reloaded.UsageLimit)

	err = svc.ChangePlan(ctx, snowflake.ID(404), plan.Pro)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
