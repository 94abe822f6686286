package payment

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/easyvisa/visaflow/internal/config"
	"github.com/easyvisa/visaflow/internal/payment/domain"
	"github.com/easyvisa/visaflow/internal/payment/ledger"
	"github.com/easyvisa/visaflow/internal/payment/service"
	"github.com/easyvisa/visaflow/internal/payment/stripe"
)

var Module = fx.Module("payment.service",
	fx.Provide(provideLedger),
	fx.Provide(provideClient),
	fx.Provide(provideVerifier),
	fx.Provide(service.New),
)

func provideLedger(db *gorm.DB) domain.Ledger {
	return ledger.NewGorm(db)
}

func provideClient(cfg config.Config) *stripe.Client {
	return stripe.NewClient(cfg.StripeSecretKey)
}

func provideVerifier(cfg config.Config) *stripe.Verifier {
	return stripe.NewVerifier(cfg.StripeWebhookSecret, cfg.StripeWebhookTolerance)
}
