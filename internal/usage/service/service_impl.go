package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tollgate/internal/clock"
	orgdomain "github.com/smallbiznis/tollgate/internal/organization/domain"
	"github.com/smallbiznis/tollgate/internal/plan"
	"github.com/smallbiznis/tollgate/internal/usage/domain"
	"github.com/smallbiznis/tollgate/internal/workflow"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type service struct {
	repo     domain.Repository
	orgRepo  orgdomain.Repository
	clk      clock.Clock
	notifier workflow.Notifier
	genID    *snowflake.Node
	log      *zap.Logger
}

func NewService(
	repo domain.Repository,
	orgRepo orgdomain.Repository,
	clk clock.Clock,
	notifier workflow.Notifier,
	genID *snowflake.Node,
	log *zap.Logger,
) domain.Service {
	return &service{
		repo:     repo,
		orgRepo:  orgRepo,
		clk:      clk,
		notifier: notifier,
		genID:    genID,
		log:      log.Named("usage"),
	}
}

// periodStart is the first instant of the current calendar month, UTC. This
// is the usage-reset boundary for every tenant.
func (s *service) periodStart() time.Time {
	now := s.clk.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (s *service) CheckLimit(ctx context.Context, orgID snowflake.ID, creditsNeeded int64) (*domain.Check, error) {
	org, err := s.orgRepo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	limit := plan.Limit(org.UsageLimit)
	if limit.Unlimited() {
		return &domain.Check{
			Allowed:   true,
			Remaining: plan.UnlimitedCredits,
			Limit:     plan.UnlimitedCredits,
		}, nil
	}

	totalUsed, err := s.repo.SumCreditsSince(ctx, orgID, s.periodStart())
	if err != nil {
		return nil, err
	}

	// The raw signed remainder decides admission; the floored value is
	// what callers see.
	raw := limit.Int64() - totalUsed
	remaining := raw
	if remaining < 0 {
		remaining = 0
	}

	return &domain.Check{
		Allowed:   raw >= creditsNeeded,
		Remaining: remaining,
		Limit:     limit.Int64(),
	}, nil
}

func (s *service) Track(ctx context.Context, req domain.TrackRequest) error {
	if strings.TrimSpace(req.EventType) == "" {
		return domain.ErrInvalidEventType
	}
	if req.CreditsUsed < 0 {
		return domain.ErrInvalidCredits
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return s.repo.Insert(ctx, domain.UsageEvent{
		ID:          s.genID.Generate(),
		OrgID:       req.OrgID,
		UserID:      req.UserID,
		EventType:   strings.TrimSpace(req.EventType),
		CreditsUsed: req.CreditsUsed,
		Metadata:    datatypes.JSONMap(metadata),
		CreatedAt:   s.clk.Now().UTC(),
	})
}

func (s *service) Consume(ctx context.Context, req domain.TrackRequest) (*domain.Receipt, error) {
	check, err := s.CheckLimit(ctx, req.OrgID, req.CreditsUsed)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		return nil, domain.ErrLimitExceeded
	}

	if err := s.Track(ctx, req); err != nil {
		return nil, err
	}

	if plan.Limit(check.Limit).Unlimited() {
		return &domain.Receipt{
			Remaining: plan.UnlimitedCredits,
			Limit:     plan.UnlimitedCredits,
		}, nil
	}

	s.maybeNotifyThreshold(req.OrgID, check, req.CreditsUsed)

	return &domain.Receipt{
		Remaining: check.Remaining - req.CreditsUsed,
		Limit:     check.Limit,
	}, nil
}

// maybeNotifyThreshold fires the usage-threshold-reached workflow when the
// post-insert usage lands in the [80,100) percent band. There is no dedup
// across requests; repeated crossings within the band re-notify.
func (s *service) maybeNotifyThreshold(orgID snowflake.ID, check *domain.Check, credits int64) {
	if check.Limit <= 0 {
		return
	}

	pct := float64(check.Limit-check.Remaining+credits) / float64(check.Limit) * 100
	if pct >= 80 && pct < 100 {
		s.log.Info("usage threshold reached",
			zap.String("org_id", orgID.String()),
			zap.Float64("percentage", pct),
		)
		s.notifier.UsageThresholdReached(orgID.String(), pct)
	}
}

func (s *service) Summary(ctx context.Context, orgID snowflake.ID) (*domain.Summary, error) {
	org, err := s.orgRepo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	start := s.periodStart()
	totalUsed, err := s.repo.SumCreditsSince(ctx, orgID, start)
	if err != nil {
		return nil, err
	}

	limit := plan.Limit(org.UsageLimit)
	remaining := plan.UnlimitedCredits
	if !limit.Unlimited() {
		remaining = limit.Int64() - totalUsed
		if remaining < 0 {
			remaining = 0
		}
	}

	return &domain.Summary{
		PeriodStart: start,
		TotalUsed:   totalUsed,
		Limit:       limit.Int64(),
		Remaining:   remaining,
	}, nil
}
