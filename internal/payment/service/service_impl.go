package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	applicationdomain "github.com/easyvisa/visaflow/internal/application/domain"
	"github.com/easyvisa/visaflow/internal/config"
	paymentdomain "github.com/easyvisa/visaflow/internal/payment/domain"
	"github.com/easyvisa/visaflow/internal/payment/stripe"
)

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Ledger   paymentdomain.Ledger
	Client   *stripe.Client
	Verifier *stripe.Verifier
}

type Service struct {
	cfg      config.Config
	log      *zap.Logger
	ledger   paymentdomain.Ledger
	client   *stripe.Client
	verifier *stripe.Verifier
}

func New(p Params) paymentdomain.Service {
	return &Service{
		cfg:      p.Cfg,
		log:      p.Log.Named("payment.service"),
		ledger:   p.Ledger,
		client:   p.Client,
		verifier: p.Verifier,
	}
}

func (s *Service) CreateCheckoutSession(ctx context.Context, req paymentdomain.CheckoutSessionRequest) (paymentdomain.CheckoutSessionResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return paymentdomain.CheckoutSessionResponse{}, paymentdomain.ErrMissingEmail
	}

	appNumber := applicationdomain.NormalizeAppNumber(req.AppNumber)

	sessionURL, err := s.client.CreateCheckoutSession(ctx, stripe.CheckoutParams{
		CustomerEmail:      email,
		AppNumber:          appNumber,
		Currency:           s.cfg.VisaFeeCurrency,
		UnitAmount:         s.cfg.VisaFeeAmount,
		ProductName:        s.cfg.VisaFeeProductName,
		ProductDescription: s.cfg.VisaFeeProductDescr,
		SuccessURL:         s.cfg.BaseURL + s.cfg.CheckoutSuccessPath,
		CancelURL:          s.cfg.BaseURL + s.cfg.CheckoutCancelPath,
	})
	if err != nil {
		// Gateway details stay in the logs, never in the response.
		s.log.Error("checkout session creation failed",
			zap.String("app_number", appNumber),
			zap.Error(err),
		)
		return paymentdomain.CheckoutSessionResponse{}, paymentdomain.ErrGatewayUnavailable
	}

	return paymentdomain.CheckoutSessionResponse{URL: sessionURL}, nil
}

// HandleWebhook verifies the signature over the raw payload bytes, then
// records checkout completions in the ledger. Once verification passes,
// events the service cannot act on are still acknowledged so the gateway
// does not keep redelivering them.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if err := s.verifier.Verify(payload, headers); err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	event, err := stripe.ParseEvent(payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			s.log.Debug("ignoring webhook event kind")
			return nil
		}
		s.log.Warn("verified webhook payload could not be parsed", zap.Error(err))
		return nil
	}

	if event.AppNumber == "" {
		s.log.Warn("checkout completed without application number",
			zap.String("session_id", event.SessionID),
			zap.String("event_id", event.ProviderEventID),
		)
		return nil
	}

	if err := s.ledger.MarkPaid(ctx, paymentdomain.PaidApplication{
		AppNumber:     event.AppNumber,
		SessionID:     event.SessionID,
		AmountTotal:   event.AmountTotal,
		Currency:      event.Currency,
		CustomerEmail: event.CustomerEmail,
		PaidAt:        event.OccurredAt,
	}); err != nil {
		s.log.Error("recording paid application failed",
			zap.String("app_number", event.AppNumber),
			zap.Error(err),
		)
		return err
	}

	s.log.Info("application marked paid",
		zap.String("app_number", event.AppNumber),
		zap.String("session_id", event.SessionID),
	)
	return nil
}
