package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tollgate/internal/billing/domain"
	"github.com/smallbiznis/tollgate/internal/billing/stripe"
	"github.com/smallbiznis/tollgate/internal/config"
	orgdomain "github.com/smallbiznis/tollgate/internal/organization/domain"
	"github.com/smallbiznis/tollgate/internal/plan"
	"github.com/smallbiznis/tollgate/internal/workflow"
	"go.uber.org/zap"
)

// Gateway is the slice of the Stripe client the billing service uses.
type Gateway interface {
	FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error)
	CreateCustomer(ctx context.Context, email, orgID string) (*stripe.Customer, error)
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.PortalSession, error)
}

type service struct {
	cfg      config.Config
	orgRepo  orgdomain.Repository
	catalog  *plan.Catalog
	gateway  Gateway
	notifier workflow.Notifier
	log      *zap.Logger
}

func NewService(
	cfg config.Config,
	orgRepo orgdomain.Repository,
	catalog *plan.Catalog,
	gateway Gateway,
	notifier workflow.Notifier,
	log *zap.Logger,
) domain.Service {
	return &service{
		cfg:      cfg,
		orgRepo:  orgRepo,
		catalog:  catalog,
		gateway:  gateway,
		notifier: notifier,
		log:      log.Named("billing"),
	}
}

func (s *service) CreateCheckoutSession(ctx context.Context, orgID snowflake.ID, email string, target plan.Plan) (string, error) {
	priceID, ok := s.catalog.PriceForPlan(target)
	if !ok {
		return "", domain.ErrPlanNotPurchasable
	}

	org, err := s.orgRepo.GetOrganization(ctx, orgID)
	if err != nil {
		return "", err
	}

	customerID, err := s.ensureCustomer(ctx, org, email)
	if err != nil {
		return "", err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		OrgID:      org.ID.String(),
		SuccessURL: s.cfg.AppBaseURL + "/billing?checkout=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.AppBaseURL + "/billing?checkout=cancelled",
	})
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// ensureCustomer resolves the processor customer for an org, creating one
// and persisting the ref on first contact.
func (s *service) ensureCustomer(ctx context.Context, org *orgdomain.Organization, email string) (string, error) {
	if org.StripeCustomerID != nil && *org.StripeCustomerID != "" {
		return *org.StripeCustomerID, nil
	}

	customer, err := s.gateway.FindCustomerByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if customer == nil {
		customer, err = s.gateway.CreateCustomer(ctx, email, org.ID.String())
		if err != nil {
			return "", err
		}
	}

	if err := s.orgRepo.SetStripeCustomer(ctx, org.ID, customer.ID); err != nil {
		return "", err
	}
	return customer.ID, nil
}

func (s *service) CreatePortalSession(ctx context.Context, orgID snowflake.ID) (string, error) {
	org, err := s.orgRepo.GetOrganization(ctx, orgID)
	if err != nil {
		return "", err
	}
	if org.StripeCustomerID == nil || *org.StripeCustomerID == "" {
		return "", domain.ErrCustomerMissing
	}

	session, err := s.gateway.CreatePortalSession(ctx, *org.StripeCustomerID, s.cfg.AppBaseURL+"/billing")
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

func (s *service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if err := stripe.VerifySignature(s.cfg.StripeWebhookSecret, payload, sigHeader); err != nil {
		return domain.ErrSignatureInvalid
	}

	event, err := stripe.ParseEvent(payload)
	if err != nil {
		return domain.ErrInvalidPayload
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_succeeded":
		return s.handleInvoicePayment(ctx, event, true)
	case "invoice.payment_failed":
		return s.handleInvoicePayment(ctx, event, false)
	default:
		s.log.Debug("ignoring stripe event", zap.String("type", event.Type))
		return nil
	}
}

func (s *service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSessionObject
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return domain.ErrInvalidPayload
	}
	if session.Mode != "subscription" {
		s.log.Debug("ignoring non-subscription checkout", zap.String("session_id", session.ID))
		return nil
	}

	orgID, err := snowflake.ParseString(strings.TrimSpace(session.Metadata["org_id"]))
	if err != nil {
		s.log.Warn("checkout session without org metadata", zap.String("session_id", session.ID))
		return nil
	}
	if strings.TrimSpace(session.Subscription) == "" {
		s.log.Warn("checkout session without subscription ref", zap.String("session_id", session.ID))
		return nil
	}

	if err := s.orgRepo.SetStripeRefs(ctx, orgID, session.Customer, session.Subscription); err != nil {
		return err
	}

	s.notifier.PaymentSucceeded(orgID.String(), session.AmountTotal, session.ID)
	return nil
}

func (s *service) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) error {
	var sub stripe.SubscriptionObject
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return domain.ErrInvalidPayload
	}

	org, err := s.orgRepo.GetOrganizationByStripeSubscription(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, orgdomain.ErrNotFound) {
			s.log.Warn("subscription event for unknown org", zap.String("subscription_id", sub.ID))
			return nil
		}
		return err
	}

	target := plan.Free
	if sub.Status == "active" {
		if mapped, ok := s.catalog.PlanForPrice(sub.ActivePriceID()); ok {
			target = mapped
		}
	}

	current := plan.Parse(org.Plan)
	if target == current {
		return nil
	}

	if err := s.orgRepo.UpdatePlan(ctx, org.ID, target, s.catalog.Resolve(target)); err != nil {
		return err
	}

	s.log.Info("plan changed via subscription update",
		zap.String("org_id", org.ID.String()),
		zap.String("from", string(current)),
		zap.String("to", string(target)),
	)
	s.notifier.PlanUpgraded(org.ID.String(), string(current), string(target))
	return nil
}

func (s *service) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var sub stripe.SubscriptionObject
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return domain.ErrInvalidPayload
	}

	// A delete for a subscription nobody holds is a no-op update; acked.
	return s.orgRepo.ClearStripeSubscription(ctx, sub.ID, plan.Free, s.catalog.Resolve(plan.Free))
}

func (s *service) handleInvoicePayment(ctx context.Context, event *stripe.Event, succeeded bool) error {
	var inv stripe.InvoiceObject
	if err := json.Unmarshal(event.Data.Object, &inv); err != nil {
		return domain.ErrInvalidPayload
	}

	org, err := s.orgRepo.GetOrganizationByStripeCustomer(ctx, inv.Customer)
	if err != nil {
		if errors.Is(err, orgdomain.ErrNotFound) {
			s.log.Warn("invoice event for unknown org", zap.String("customer_id", inv.Customer))
			return nil
		}
		return err
	}

	if succeeded {
		s.notifier.PaymentSucceeded(org.ID.String(), inv.AmountPaid, inv.ID)
		return nil
	}

	s.log.Warn("invoice payment failed",
		zap.String("org_id", org.ID.String()),
		zap.String("invoice_id", inv.ID),
	)
	s.notifier.PaymentFailed(org.ID.String(), "invoice_payment_failed")
	return nil
}
