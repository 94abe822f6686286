package domain

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// PaidApplication is one entry in the paid-application ledger. An entry
// exists only after a verified "checkout completed" event named the
// application number; entries are never removed.
type PaidApplication struct {
	AppNumber     string    `gorm:"column:app_number;primaryKey" json:"app_number"`
	SessionID     string    `gorm:"column:session_id" json:"session_id,omitempty"`
	AmountTotal   int64     `gorm:"column:amount_total" json:"amount_total,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	CustomerEmail string    `gorm:"column:customer_email" json:"customer_email,omitempty"`
	PaidAt        time.Time `gorm:"column:paid_at;not null;default:CURRENT_TIMESTAMP" json:"paid_at"`
}

func (PaidApplication) TableName() string {
	return "paid_applications"
}

// Ledger records which application numbers have a confirmed payment.
// MarkPaid must be idempotent: re-marking an existing number is a no-op.
type Ledger interface {
	MarkPaid(ctx context.Context, entry PaidApplication) error
	IsPaid(ctx context.Context, appNumber string) (bool, error)
}

type CheckoutSessionRequest struct {
	Email     string
	AppNumber string
}

type CheckoutSessionResponse struct {
	URL string `json:"url"`
}

// CheckoutEvent is a verified, parsed gateway event relevant to the
// payment ledger.
type CheckoutEvent struct {
	ProviderEventID string
	SessionID       string
	AppNumber       string
	AmountTotal     int64
	Currency        string
	CustomerEmail   string
	OccurredAt      time.Time
}

type Service interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSessionResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error
}

var (
	ErrMissingEmail       = errors.New("missing_email")
	ErrInvalidSignature   = errors.New("invalid_signature")
	ErrInvalidPayload     = errors.New("invalid_payload")
	ErrInvalidEvent       = errors.New("invalid_event")
	ErrEventIgnored       = errors.New("event_ignored")
	ErrGatewayUnavailable = errors.New("payment_gateway_unavailable")
)
