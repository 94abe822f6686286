package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type checkoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CheckoutParams describes one hosted checkout session.
type CheckoutParams struct {
	CustomerEmail      string
	AppNumber          string
	Currency           string
	UnitAmount         int64
	ProductName        string
	ProductDescription string
	SuccessURL         string
	CancelURL          string
}

// Client talks to the Stripe REST API with form-encoded requests.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: "https://api.stripe.com",
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

// WithBaseURL points the client at a different API host. Tests use this
// to run against a local stub.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return c
}

// CreateCheckoutSession creates a hosted checkout session and returns
// its redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("customer_email", params.CustomerEmail)
	values.Set("line_items[0][price_data][currency]", strings.ToLower(params.Currency))
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.UnitAmount, 10))
	values.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	if params.ProductDescription != "" {
		values.Set("line_items[0][price_data][product_data][description]", params.ProductDescription)
	}
	values.Set("line_items[0][quantity]", "1")
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	if params.AppNumber != "" {
		values.Set("metadata[appNumber]", params.AppNumber)
	}

	// Unique per attempt: a payer may cancel and retry the same token
	// with different details, so the key must never pin earlier params.
	idempotencyKey := "checkout:" + uuid.NewString()

	session, err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, idempotencyKey)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

func (c *Client) doRequest(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	idempotencyKey string,
) (checkoutSession, error) {
	if c.apiKey == "" {
		return checkoutSession{}, errors.New("stripe_api_key_missing")
	}

	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return checkoutSession{}, err
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
		return checkoutSession{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return checkoutSession{}, errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return checkoutSession{}, errors.New(message)
	}

	var session checkoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return checkoutSession{}, err
	}
	if session.ID == "" {
		return checkoutSession{}, errors.New("stripe_response_invalid")
	}
	return session, nil
}
