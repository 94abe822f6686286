package slack

import (
	"go.uber.org/fx"

	"github.com/easyvisa/visaflow/internal/config"
)

var Module = fx.Module("providers.slack",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Provider {
	if cfg.SlackWebhookURL == "" {
		return &NoOpProvider{}
	}
	return NewWebhook(cfg.SlackWebhookURL)
}
