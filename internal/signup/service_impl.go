package signup

import (
	"context"
	"strings"

	orgdomain "github.com/smallbiznis/tollgate/internal/organization/domain"
	"github.com/smallbiznis/tollgate/internal/signup/domain"
	"github.com/smallbiznis/tollgate/internal/workflow"
	"go.uber.org/zap"
)

type service struct {
	orgs     orgdomain.Service
	notifier workflow.Notifier
	log      *zap.Logger
}

func NewService(orgs orgdomain.Service, notifier workflow.Notifier, log *zap.Logger) domain.Service {
	return &service{
		orgs:     orgs,
		notifier: notifier,
		log:      log.Named("signup"),
	}
}

func (s *service) Signup(ctx context.Context, req domain.Request) (*domain.Result, error) {
	name := strings.TrimSpace(req.OrganizationName)
	if name == "" {
		name = defaultOrgName(req.Identity.Email)
	}

	org, err := s.orgs.Create(ctx, orgdomain.CreateOrganizationRequest{
		Name:       name,
		OwnerID:    req.Identity.SubjectID,
		OwnerEmail: req.Identity.Email,
		OwnerName:  req.Identity.FullName,
	})
	if err != nil {
		return nil, err
	}

	membership, err := s.orgs.GetMembership(ctx, req.Identity.SubjectID)
	if err != nil {
		return nil, err
	}

	s.log.Info("tenant provisioned",
		zap.String("org_id", org.ID.String()),
		zap.String("user_id", req.Identity.SubjectID),
	)
	s.notifier.UserCreated(req.Identity.SubjectID, req.Identity.Email)
	s.notifier.OrganizationCreated(org.ID.String(), org.Plan)

	return &domain.Result{
		Organization: membership.Organization,
		User:         membership.User,
	}, nil
}

// defaultOrgName falls back to the email local part when the caller did not
// name their workspace.
func defaultOrgName(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || strings.TrimSpace(local) == "" {
		return "My Workspace"
	}
	return local + "'s Workspace"
}
