package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/easyvisa/visaflow/internal/application/repository"
	appservice "github.com/easyvisa/visaflow/internal/application/service"
	"github.com/easyvisa/visaflow/internal/auth"
	"github.com/easyvisa/visaflow/internal/auth/session"
	"github.com/easyvisa/visaflow/internal/config"
	"github.com/easyvisa/visaflow/internal/payment/ledger"
	paymentservice "github.com/easyvisa/visaflow/internal/payment/service"
	"github.com/easyvisa/visaflow/internal/payment/stripe"
	"github.com/easyvisa/visaflow/internal/providers/email"
	"github.com/easyvisa/visaflow/internal/storage"
)

const (
	testWebhookSecret = "whsec_server_test"
	testAppNumber     = "AB12CD34EF56GH78"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:serverdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE applications (
			id BIGINT PRIMARY KEY,
			app_number TEXT NOT NULL,
			firstname TEXT NOT NULL,
			middlename TEXT,
			lastname TEXT NOT NULL,
			email TEXT NOT NULL,
			dob TEXT,
			nationality TEXT,
			passport TEXT,
			passport_file_name TEXT,
			status TEXT NOT NULL DEFAULT 'Pending Review',
			submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX applications_app_number_key ON applications (app_number)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newTestServer(t *testing.T, stripeURL string) *Server {
	t.Helper()

	cfg := config.Config{
		BaseURL:             "http://localhost:5050",
		RequirePayment:      true,
		StripeSecretKey:     "sk_test_123",
		StripeWebhookSecret: testWebhookSecret,
		VisaFeeAmount:       15000,
		VisaFeeCurrency:     "usd",
		VisaFeeProductName:  "Visa Application Fee",
		CheckoutSuccessPath: "/success.html",
		CheckoutCancelPath:  "/application.html",
		AdminUser:           "admin",
		AdminPassword:       "s3cret",
		SessionTTL:          time.Hour,
	}

	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	uploads, err := storage.NewStore(t.TempDir(), 5<<20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	mem := ledger.NewMemory()
	log := zap.NewNop()

	applicationSvc := appservice.New(appservice.Params{
		Cfg:    cfg,
		DB:     db,
		Log:    log,
		GenID:  node,
		Repo:   repository.Provide(),
		Ledger: mem,
		Email:  &email.NoOpProvider{},
	})

	client := stripe.NewClient(cfg.StripeSecretKey)
	if stripeURL != "" {
		client = client.WithBaseURL(stripeURL)
	}
	paymentSvc := paymentservice.New(paymentservice.Params{
		Cfg:      cfg,
		Log:      log,
		Ledger:   mem,
		Client:   client,
		Verifier: stripe.NewVerifier(testWebhookSecret, 5*time.Minute),
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:            r,
		Cfg:            cfg,
		DB:             db,
		GenID:          node,
		ApplicationSvc: applicationSvc,
		PaymentSvc:     paymentSvc,
		Uploads:        uploads,
		Credentials:    auth.NewCredentials(cfg),
		Sessions:       session.NewManager(cfg),
		SessionStore:   session.NewStore(cfg.SessionTTL),
	})
	registerRoutes(srv)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func errorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	payload, ok := decodeBody(t, w)["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %q", w.Body.String())
	}
	errType, _ := payload["type"].(string)
	return errType
}

func signWebhook(payload []byte) string {
	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%d.%s", timestamp, string(payload))))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func completedEvent(appNumber string) []byte {
	payload, _ := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": "checkout.session.completed",
		"data": map[string]any{"object": map[string]any{
			"id":             "cs_test_1",
			"amount_total":   15000,
			"currency":       "usd",
			"customer_email": "ada@example.com",
			"metadata":       map[string]string{"appNumber": appNumber},
		}},
	})
	return payload
}

func deliverWebhook(t *testing.T, srv *Server, appNumber string) {
	t.Helper()

	payload := completedEvent(appNumber)
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signWebhook(payload))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("webhook status %d: %s", w.Code, w.Body.String())
	}
	if received, _ := decodeBody(t, w)["received"].(bool); !received {
		t.Fatalf("expected received ack, got %s", w.Body.String())
	}
}

func submitApplication(t *testing.T, srv *Server, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/submit", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func validFields(appNumber string) map[string]string {
	return map[string]string{
		"appNumber":   appNumber,
		"firstname":   "Ada",
		"middlename":  "M",
		"lastname":    "Lovelace",
		"email":       "ada@example.com",
		"dob":         "1990-12-10",
		"nationality": "GB",
		"passport":    "P1234567",
	}
}

func adminLogin(t *testing.T, srv *Server) *http.Cookie {
	t.Helper()

	w := doJSON(t, srv, http.MethodPost, "/admin/login", map[string]string{
		"username": "admin",
		"password": "s3cret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", w.Code, w.Body.String())
	}
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == session.DefaultCookieName {
			return cookie
		}
	}
	t.Fatalf("login response did not set a session cookie")
	return nil
}

func TestCreateCheckoutSessionEndpoint(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","url":"https://checkout.stripe.com/pay/cs_test_1"}`))
	}))
	defer stub.Close()

	srv := newTestServer(t, stub.URL)

	w := doJSON(t, srv, http.MethodPost, "/create-checkout-session", map[string]string{
		"email":     "ada@example.com",
		"appNumber": testAppNumber,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if url, _ := decodeBody(t, w)["url"].(string); url != "https://checkout.stripe.com/pay/cs_test_1" {
		t.Fatalf("unexpected url %q", url)
	}

	w = doJSON(t, srv, http.MethodPost, "/create-checkout-session", map[string]string{
		"appNumber": testAppNumber,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing email should be 400, got %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/create-checkout-session", []byte("{not json"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body should be 400, got %d", w.Code)
	}
}

func TestIssueApplicationNumber(t *testing.T) {
	srv := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodPost, "/api/application-numbers", map[string]string{})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	appNumber, _ := decodeBody(t, w)["appNumber"].(string)
	if len(appNumber) != 16 || appNumber != strings.ToUpper(appNumber) {
		t.Fatalf("unexpected app number %q", appNumber)
	}
}

func TestSubmitIsPaymentGated(t *testing.T) {
	srv := newTestServer(t, "")

	// unpaid submission is refused
	w := submitApplication(t, srv, validFields(testAppNumber))
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("unpaid submit should be 402, got %d: %s", w.Code, w.Body.String())
	}
	if errorType(t, w) != "payment_required" {
		t.Fatalf("unexpected error type %s", w.Body.String())
	}

	// a missing field is a validation failure, never a payment failure
	fields := validFields(testAppNumber)
	fields["firstname"] = ""
	w = submitApplication(t, srv, fields)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing field should be 400, got %d", w.Code)
	}
	if errorType(t, w) != "validation_error" {
		t.Fatalf("unexpected error type %s", w.Body.String())
	}

	deliverWebhook(t, srv, testAppNumber)

	w = submitApplication(t, srv, validFields(testAppNumber))
	if w.Code != http.StatusOK {
		t.Fatalf("paid submit should be 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["appNumber"] != testAppNumber || body["status"] != "Pending Review" {
		t.Fatalf("unexpected response %s", w.Body.String())
	}

	// the same number cannot be submitted twice
	w = submitApplication(t, srv, validFields(testAppNumber))
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate submit should be 409, got %d: %s", w.Code, w.Body.String())
	}
	if errorType(t, w) != "conflict" {
		t.Fatalf("unexpected error type %s", w.Body.String())
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	srv := newTestServer(t, "")

	payload := completedEvent(testAppNumber)
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=123,v1=deadbeef")

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad signature should be 400, got %d", w.Code)
	}
	if errorType(t, w) != "invalid_signature" {
		t.Fatalf("unexpected error type %s", w.Body.String())
	}

	// the unverified event must not open the payment gate
	if resp := submitApplication(t, srv, validFields(testAppNumber)); resp.Code != http.StatusPaymentRequired {
		t.Fatalf("gate should still be closed, got %d", resp.Code)
	}
}

func TestTrackEndpoint(t *testing.T) {
	srv := newTestServer(t, "")
	deliverWebhook(t, srv, testAppNumber)
	if w := submitApplication(t, srv, validFields(testAppNumber)); w.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}

	w := doJSON(t, srv, http.MethodPost, "/track", map[string]string{
		"appNumber": "ab12cd34ef56gh78",
		"lastName":  "LOVELACE",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("track status %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != "Pending Review" || body["name"] != "Ada Lovelace" {
		t.Fatalf("unexpected track response %s", w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPost, "/track", map[string]string{
		"appNumber": testAppNumber,
		"lastName":  "Wrong",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("wrong last name should be 404, got %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/track", map[string]string{
		"appNumber": testAppNumber,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing last name should be 400, got %d", w.Code)
	}
}

func TestAdminFlow(t *testing.T) {
	srv := newTestServer(t, "")
	deliverWebhook(t, srv, testAppNumber)
	if w := submitApplication(t, srv, validFields(testAppNumber)); w.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}

	// review endpoints require a session
	req := httptest.NewRequest(http.MethodGet, "/admin/applications", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list should be 401, got %d", w.Code)
	}

	if resp := doJSON(t, srv, http.MethodPost, "/admin/login", map[string]string{
		"username": "admin",
		"password": "wrong",
	}); resp.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password should be 401, got %d", resp.Code)
	}

	cookie := adminLogin(t, srv)

	req = httptest.NewRequest(http.MethodGet, "/admin/applications", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status %d: %s", w.Code, w.Body.String())
	}
	apps, _ := decodeBody(t, w)["applications"].([]any)
	if len(apps) != 1 {
		t.Fatalf("expected 1 application, got %s", w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPost, "/admin/update-status", map[string]string{
		"appNumber": testAppNumber,
		"status":    "Approved",
	}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("update status %d: %s", w.Code, w.Body.String())
	}
	if decodeBody(t, w)["status"] != "Approved" {
		t.Fatalf("unexpected update response %s", w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPost, "/admin/update-status", map[string]string{
		"appNumber": testAppNumber,
		"status":    "Archived",
	}, cookie)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status should be 400, got %d", w.Code)
	}

	if resp := doJSON(t, srv, http.MethodPost, "/admin/logout", map[string]string{}, cookie); resp.Code != http.StatusOK {
		t.Fatalf("logout status %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/applications", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked session should be 401, got %d", w.Code)
	}
}

func TestLoginRateLimit(t *testing.T) {
	srv := newTestServer(t, "")

	body := map[string]string{"username": "admin", "password": "wrong"}
	for i := 0; i < 5; i++ {
		if w := doJSON(t, srv, http.MethodPost, "/admin/login", body); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, w.Code)
		}
	}

	w := doJSON(t, srv, http.MethodPost, "/admin/login", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the window fills, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("429 must carry Retry-After")
	}
	if errorType(t, w) != "rate_limited" {
		t.Fatalf("unexpected error type %s", w.Body.String())
	}
}

func TestUploadServingRequiresSession(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/uploads/passport-x.pdf", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated upload fetch should be 401, got %d", w.Code)
	}

	cookie := adminLogin(t, srv)
	req = httptest.NewRequest(http.MethodGet, "/uploads/missing.pdf", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing upload should be 404, got %d", w.Code)
	}
}
