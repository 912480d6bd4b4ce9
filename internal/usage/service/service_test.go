package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tollgate/internal/clock"
	orgdomain "github.com/smallbiznis/tollgate/internal/organization/domain"
	orgrepository "github.com/smallbiznis/tollgate/internal/organization/repository"
	"github.com/smallbiznis/tollgate/internal/plan"
	"github.com/smallbiznis/tollgate/internal/usage/domain"
	"github.com/smallbiznis/tollgate/internal/usage/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	thresholds []float64
}

func (n *recordingNotifier) UserCreated(userID, email string)          {}
func (n *recordingNotifier) OrganizationCreated(orgID, plan string)    {}
func (n *recordingNotifier) PlanUpgraded(orgID, fromPlan, to string)   {}
func (n *recordingNotifier) PaymentSucceeded(string, int64, string)    {}
func (n *recordingNotifier) PaymentFailed(orgID, reason string)        {}
func (n *recordingNotifier) UsageThresholdReached(orgID string, percentage float64) {
	n.thresholds = append(n.thresholds, percentage)
}

type fixture struct {
	svc      domain.Service
	db       *gorm.DB
	orgRepo  orgdomain.Repository
	clk      *clock.FakeClock
	notifier *recordingNotifier
	genID    *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&orgdomain.Organization{}, &orgdomain.User{}, &domain.UsageEvent{}))

	genID, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}
	orgRepo := orgrepository.NewRepository(db)
	usageRepo := repository.NewRepository(db)

	return &fixture{
		svc:      NewService(usageRepo, orgRepo, clk, notifier, genID, zap.NewNop()),
		db:       db,
		orgRepo:  orgRepo,
		clk:      clk,
		notifier: notifier,
		genID:    genID,
	}
}

func (f *fixture) createOrg(t *testing.T, limit int64) snowflake.ID {
	t.Helper()
	org := orgdomain.Organization{
		ID:         f.genID.Generate(),
		Name:       "Acme",
		Slug:       "acme-" + f.genID.Generate().String(),
		Plan:       string(plan.Free),
		UsageLimit: limit,
		CreatedAt:  f.clk.Now(),
		UpdatedAt:  f.clk.Now(),
	}
	require.NoError(t, f.orgRepo.CreateOrganization(context.Background(), org))
	return org.ID
}

func (f *fixture) consume(t *testing.T, orgID snowflake.ID, credits int64) (*domain.Receipt, error) {
	t.Helper()
	return f.svc.Consume(context.Background(), domain.TrackRequest{
		OrgID:       orgID,
		EventType:   "ai_generation",
		CreditsUsed: credits,
	})
}

func TestCheckLimitFreshOrg(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, 1000)

	check, err := f.svc.CheckLimit(context.Background(), orgID, 1)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.Equal(t, int64(1000), check.Remaining)
	assert.Equal(t, int64(1000), check.Limit)
}

func TestCheckLimitUnknownOrg(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckLimit(context.Background(), snowflake.ID(42), 1)
	assert.ErrorIs(t, err, orgdomain.ErrNotFound)
}

func TestCheckLimitUnlimited(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, plan.UnlimitedCredits)

	check, err := f.svc.CheckLimit(context.Background(), orgID, 1_000_000)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.Equal(t, plan.UnlimitedCredits, check.Remaining)
	assert.Equal(t, plan.UnlimitedCredits, check.Limit)
}

func TestConsumeDecrementsBalance(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, 1000)

	receipt, err := f.consume(t, orgID, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(960), receipt.Remaining)
	assert.Equal(t, int64(1000), receipt.Limit)

	check, err := f.svc.CheckLimit(context.Background(), orgID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(960), check.Remaining)
}

func TestConsumeRejectsOverLimit(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, 100)

	_, err := f.consume(t, orgID, 100)
	require.NoError(t, err)

	_, err = f.consume(t, orgID, 1)
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)

	// The rejected request leaves no ledger row behind.
	var count int64
	require.NoError(t, f.db.Model(&domain.UsageEvent{}).Where("org_id = ?", orgID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTrackIsNeverLimitGated(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, 10)

	err := f.svc.Track(context.Background(), domain.TrackRequest{
		OrgID:       orgID,
		EventType:   "ai_generation",
		CreditsUsed: 50,
	})
	require.NoError(t, err)

	check, err := f.svc.CheckLimit(context.Background(), orgID, 1)
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.Equal(t, int64(0), check.Remaining)
}

func TestTrackValidation(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, 100)

	err := f.svc.Track(context.Background(), domain.TrackRequest{OrgID: orgID, EventType: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidEventType)

	err = f.svc.Track(context.Background(), domain.TrackRequest{OrgID: orgID, EventType: "x", CreditsUsed: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidCredits)
}

func TestThresholdNotificationBand(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, 1000)

	// 790 used: next consume of 40 lands at 83%.
	_, err := f.consume(t, orgID, 790)
	require.NoError(t, err)
	require.Empty(t, f.notifier.thresholds)

	_, err = f.consume(t, orgID, 40)
	require.NoError(t, err)
	require.Len(t, f.notifier.thresholds, 1)
	assert.InDelta(t, 83.0, f.notifier.thresholds[0], 0.01)
}

func TestThresholdFiresAtExactBoundary(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, 1000)

	// 790 used is 79.00%: below the band, silent.
	_, err := f.consume(t, orgID, 790)
	require.NoError(t, err)
	require.Empty(t, f.notifier.thresholds)

	// The next 10 credits land exactly on 80.00% and fire.
	_, err = f.consume(t, orgID, 10)
	require.NoError(t, err)
	require.Len(t, f.notifier.thresholds, 1)
	assert.InDelta(t, 80.0, f.notifier.thresholds[0], 0.001)
}

func TestThresholdNotFiredAtFullConsumption(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, 1000)

	_, err := f.consume(t, orgID, 1000)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.thresholds)
}

func TestThresholdNeverFiresForUnlimited(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, plan.UnlimitedCredits)

	receipt, err := f.consume(t, orgID, 5000)
	require.NoError(t, err)
	assert.Equal(t, plan.UnlimitedCredits, receipt.Remaining)
	assert.Empty(t, f.notifier.thresholds)
}

func TestUsageResetsAtMonthBoundary(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, 100)

	_, err := f.consume(t, orgID, 100)
	require.NoError(t, err)

	_, err = f.consume(t, orgID, 1)
	require.ErrorIs(t, err, domain.ErrLimitExceeded)

	// Cross into April: last month's events no longer count.
	f.clk.Advance(20 * 24 * time.Hour)

	check, err := f.svc.CheckLimit(context.Background(), orgID, 1)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.Equal(t, int64(100), check.Remaining)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	orgID := f.createOrg(t, 1000)

	_, err := f.consume(t, orgID, 250)
	require.NoError(t, err)

	summary, err := f.svc.Summary(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), summary.PeriodStart)
	assert.Equal(t, int64(250), summary.TotalUsed)
	assert.Equal(t, int64(750), summary.Remaining)
	assert.Equal(t, int64(1000), summary.Limit)
}
