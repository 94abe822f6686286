package stripe

import (
	"encoding/json"
	"strings"
	"time"

	applicationdomain "github.com/easyvisa/visaflow/internal/application/domain"
	paymentdomain "github.com/easyvisa/visaflow/internal/payment/domain"
)

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeCheckoutSession struct {
	ID            string            `json:"id"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email"`
	Created       int64             `json:"created"`
	Metadata      map[string]string `json:"metadata"`
}

// ParseEvent extracts a checkout completion from a verified webhook
// payload. Event kinds other than checkout.session.completed return
// ErrEventIgnored so the caller can acknowledge without acting.
func ParseEvent(payload []byte) (*paymentdomain.CheckoutEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	if strings.TrimSpace(event.Type) != "checkout.session.completed" {
		return nil, paymentdomain.ErrEventIgnored
	}

	var session stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}

	appNumber := ""
	if session.Metadata != nil {
		appNumber = applicationdomain.NormalizeAppNumber(session.Metadata["appNumber"])
	}

	occurredAt := session.Created
	if occurredAt == 0 {
		occurredAt = event.Created
	}
	when := time.Now().UTC()
	if occurredAt != 0 {
		when = time.Unix(occurredAt, 0).UTC()
	}

	return &paymentdomain.CheckoutEvent{
		ProviderEventID: event.ID,
		SessionID:       session.ID,
		AppNumber:       appNumber,
		AmountTotal:     session.AmountTotal,
		Currency:        strings.ToLower(strings.TrimSpace(session.Currency)),
		CustomerEmail:   strings.TrimSpace(session.CustomerEmail),
		OccurredAt:      when,
	}, nil
}
