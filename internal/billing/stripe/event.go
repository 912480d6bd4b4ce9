package stripe

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrInvalidPayload = errors.New("invalid_payload")
	ErrInvalidEvent   = errors.New("invalid_event")
)

// Event is the webhook envelope. Data.Object stays raw until the event type
// tells us what to decode it into.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" || strings.TrimSpace(event.Type) == "" {
		return nil, ErrInvalidEvent
	}
	event.Type = strings.TrimSpace(event.Type)
	return &event, nil
}

type CheckoutSessionObject struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	AmountTotal  int64             `json:"amount_total"`
	Metadata     map[string]string `json:"metadata"`
}

type SubscriptionObject struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

// ActivePriceID returns the price on the first subscription item, empty when
// the subscription carries none.
func (s SubscriptionObject) ActivePriceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

type InvoiceObject struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	AmountPaid   int64  `json:"amount_paid"`
	AmountDue    int64  `json:"amount_due"`
}
