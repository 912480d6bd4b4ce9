package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tollgate/internal/plan"
)

var (
	ErrSignatureInvalid   = errors.New("signature_invalid")
	ErrInvalidPayload     = errors.New("invalid_payload")
	ErrCustomerMissing    = errors.New("customer_missing")
	ErrPlanNotPurchasable = errors.New("plan_not_purchasable")
)

// Service owns the paid-plan lifecycle: sending tenants to checkout and
// keeping the local plan column in sync with processor webhooks.
type Service interface {
	// CreateCheckoutSession returns a hosted checkout URL for upgrading the
	// org to the target plan. Creates or reuses the processor customer and
	// persists the ref the first time it is seen.
	CreateCheckoutSession(ctx context.Context, orgID snowflake.ID, email string, target plan.Plan) (string, error)

	// CreatePortalSession returns a hosted billing-portal URL. Requires an
	// existing customer ref.
	CreatePortalSession(ctx context.Context, orgID snowflake.ID) (string, error)

	// HandleWebhook verifies then applies a processor event. Verification
	// failures reject before any parsing or state change.
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}
