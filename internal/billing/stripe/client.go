package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/tollgate/internal/config"
)

var (
	ErrNotConfigured = errors.New("stripe_not_configured")
	ErrRequestFailed = errors.New("stripe_request_failed")
)

const apiBase = "https://api.stripe.com"

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type customerList struct {
	Data []Customer `json:"data"`
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type PortalSession struct {
	URL string `json:"url"`
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client is a minimal form-encoded Stripe REST client covering the calls
// this service makes. It deliberately avoids the full SDK surface.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(cfg.StripeSecretKey),
		baseURL: apiBase,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientForTest points the client at a local test server.
func NewClientForTest(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// FindCustomerByEmail returns the first customer matching the email, or nil
// when none exists.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	values := url.Values{}
	values.Set("email", email)
	values.Set("limit", "1")

	var list customerList
	if err := c.do(ctx, http.MethodGet, "/v1/customers?"+values.Encode(), nil, "", &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	return &list.Data[0], nil
}

func (c *Client) CreateCustomer(ctx context.Context, email, orgID string) (*Customer, error) {
	values := url.Values{}
	values.Set("email", email)
	values.Set("metadata[org_id]", orgID)

	var customer Customer
	if err := c.do(ctx, http.MethodPost, "/v1/customers", values, "customer:"+orgID, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

type CheckoutParams struct {
	CustomerID string
	PriceID    string
	OrgID      string
	SuccessURL string
	CancelURL  string
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	values := url.Values{}
	values.Set("mode", "subscription")
	values.Set("customer", params.CustomerID)
	values.Set("line_items[0][price]", params.PriceID)
	values.Set("line_items[0][quantity]", "1")
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	values.Set("metadata[org_id]", params.OrgID)
	values.Set("subscription_data[metadata][org_id]", params.OrgID)

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", values, "", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	values := url.Values{}
	values.Set("customer", customerID)
	values.Set("return_url", returnURL)

	var session PortalSession
	if err := c.do(ctx, http.MethodPost, "/v1/billing_portal/sessions", values, "", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	idempotencyKey string,
	out any,
) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	body := ""
	if values != nil {
		body = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return ErrRequestFailed
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			return ErrRequestFailed
		}
		return errors.New(message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
