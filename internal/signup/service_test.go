package signup

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	orgdomain "github.com/smallbiznis/tollgate/internal/organization/domain"
	orgrepository "github.com/smallbiznis/tollgate/internal/organization/repository"
	orgservice "github.com/smallbiznis/tollgate/internal/organization/service"
	"github.com/smallbiznis/tollgate/internal/plan"
	"github.com/smallbiznis/tollgate/internal/signup/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	triggered []string
}

func (n *recordingNotifier) UserCreated(userID, email string) {
	n.triggered = append(n.triggered, "user-created")
}

func (n *recordingNotifier) OrganizationCreated(orgID, plan string) {
	n.triggered = append(n.triggered, "organization-created")
}

func (n *recordingNotifier) PlanUpgraded(orgID, fromPlan, toPlan string)      {}
func (n *recordingNotifier) UsageThresholdReached(orgID string, pct float64)  {}
func (n *recordingNotifier) PaymentSucceeded(orgID string, a int64, i string) {}
func (n *recordingNotifier) PaymentFailed(orgID, reason string)               {}

func newTestService(t *testing.T) (domain.Service, *recordingNotifier) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&orgdomain.Organization{}, &orgdomain.User{}))

	genID, err := snowflake.NewNode(4)
	require.NoError(t, err)

	catalog, err := plan.NewStaticCatalog([]plan.Definition{
		{Plan: plan.Free, Name: "Free", Credits: 1000},
	})
	require.NoError(t, err)

	orgs := orgservice.NewService(db, orgrepository.NewRepository(db), catalog, genID, zap.NewNop())
	notifier := &recordingNotifier{}
	return NewService(orgs, notifier, zap.NewNop()), notifier
}

func TestSignupProvisionsFreeTenant(t *testing.T) {
	svc, notifier := newTestService(t)

	result, err := svc.Signup(context.Background(), domain.Request{
		Identity: domain.Identity{
			SubjectID: "sub-1",
			Email:     "ada@acme.test",
			FullName:  "Ada",
		},
		OrganizationName: "Acme",
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme", result.Organization.Name)
	assert.Equal(t, string(plan.Free), result.Organization.Plan)
	assert.Equal(t, int64(1000), result.Organization.UsageLimit)
	assert.Equal(t, orgdomain.RoleOwner, result.User.Role)
	assert.Equal(t, "sub-1", result.User.ID)
	assert.Equal(t, []string{"user-created", "organization-created"}, notifier.triggered)
}

func TestSignupDefaultsOrgNameFromEmail(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Signup(context.Background(), domain.Request{
		Identity: domain.Identity{SubjectID: "sub-1", Email: "ada@acme.test"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ada's Workspace", result.Organization.Name)
}

func TestSignupDuplicateSubjectConflicts(t *testing.T) {
	svc, notifier := newTestService(t)

	_, err := svc.Signup(context.Background(), domain.Request{
		Identity:         domain.Identity{SubjectID: "sub-1", Email: "ada@acme.test"},
		OrganizationName: "Acme",
	})
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), domain.Request{
		Identity:         domain.Identity{SubjectID: "sub-1", Email: "ada@acme.test"},
		OrganizationName: "Another",
	})
	assert.ErrorIs(t, err, orgdomain.ErrUserExists)
	assert.Len(t, notifier.triggered, 2, "no workflows fired for the rejected signup")
}
