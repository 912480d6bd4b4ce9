package workflow

// Notifier exposes the named automations this service triggers. All of them
// are fire-and-forget: the initiating request never observes dispatch
// failures.
type Notifier interface {
	UserCreated(userID, email string)
	OrganizationCreated(orgID, plan string)
	PlanUpgraded(orgID, fromPlan, toPlan string)
	UsageThresholdReached(orgID string, percentage float64)
	PaymentSucceeded(orgID string, amount int64, invoiceID string)
	PaymentFailed(orgID, reason string)
}

type notifier struct {
	client *Client
}

func NewNotifier(client *Client) Notifier {
	return &notifier{client: client}
}

func (n *notifier) UserCreated(userID, email string) {
	n.client.TriggerAsync("user-created", map[string]any{
		"userId": userID,
		"email":  email,
	})
}

func (n *notifier) OrganizationCreated(orgID, plan string) {
	n.client.TriggerAsync("organization-created", map[string]any{
		"orgId": orgID,
		"plan":  plan,
	})
}

func (n *notifier) PlanUpgraded(orgID, fromPlan, toPlan string) {
	n.client.TriggerAsync("plan-upgraded", map[string]any{
		"orgId":    orgID,
		"fromPlan": fromPlan,
		"toPlan":   toPlan,
	})
}

func (n *notifier) UsageThresholdReached(orgID string, percentage float64) {
	n.client.TriggerAsync("usage-threshold-reached", map[string]any{
		"orgId":      orgID,
		"percentage": percentage,
	})
}

func (n *notifier) PaymentSucceeded(orgID string, amount int64, invoiceID string) {
	n.client.TriggerAsync("payment-succeeded", map[string]any{
		"orgId":     orgID,
		"amount":    amount,
		"invoiceId": invoiceID,
	})
}

func (n *notifier) PaymentFailed(orgID, reason string) {
	n.client.TriggerAsync("payment-failed", map[string]any{
		"orgId":  orgID,
		"reason": reason,
	})
}
