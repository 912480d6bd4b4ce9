package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrLimitExceeded    = errors.New("usage_limit_exceeded")
	ErrInvalidEventType = errors.New("invalid_event_type")
	ErrInvalidCredits   = errors.New("invalid_credits")
)

// Check is the result of a limit check. Remaining is floored at zero for
// reporting; a negative Limit (the -1 sentinel) means the plan is unmetered
// and Remaining mirrors the sentinel.
type Check struct {
	Allowed   bool  `json:"allowed"`
	Remaining int64 `json:"remaining"`
	Limit     int64 `json:"limit"`
}

type TrackRequest struct {
	OrgID       snowflake.ID
	UserID      *string
	EventType   string
	CreditsUsed int64
	Metadata    map[string]any
}

// Receipt is returned after a successful consume: the balance after the
// tracked event, against the organization's current limit.
type Receipt struct {
	Remaining int64 `json:"remaining"`
	Limit     int64 `json:"limit"`
}

// Summary reports the current billing period for dashboards.
type Summary struct {
	PeriodStart time.Time `json:"period_start"`
	TotalUsed   int64     `json:"total_used"`
	Limit       int64     `json:"limit"`
	Remaining   int64     `json:"remaining"`
}

type Repository interface {
	Insert(ctx context.Context, event UsageEvent) error
	SumCreditsSince(ctx context.Context, orgID snowflake.ID, since time.Time) (int64, error)
}

// Service is the usage ledger. CheckLimit and Track are deliberately not
// atomic: two concurrent requests can both pass the check before either
// records usage, allowing transient soft overage. This matches the upstream
// behavior and is documented rather than closed.
type Service interface {
	// CheckLimit is a pure read: no ledger mutation.
	CheckLimit(ctx context.Context, orgID snowflake.ID, creditsNeeded int64) (*Check, error)

	// Track appends one ledger event unconditionally; limit enforcement is
	// the caller's responsibility via CheckLimit.
	Track(ctx context.Context, req TrackRequest) error

	// Consume is the check-then-track path used by the usage endpoint,
	// including the 80% threshold notification.
	Consume(ctx context.Context, req TrackRequest) (*Receipt, error)

	Summary(ctx context.Context, orgID snowflake.ID) (*Summary, error)
}
