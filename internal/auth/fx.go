package auth

import (
	"go.uber.org/fx"

	"github.com/easyvisa/visaflow/internal/auth/session"
	"github.com/easyvisa/visaflow/internal/config"
)

var Module = fx.Module("auth",
	fx.Provide(NewCredentials),
	fx.Provide(session.NewManager),
	fx.Provide(provideSessionStore),
)

func provideSessionStore(cfg config.Config) *session.Store {
	return session.NewStore(cfg.SessionTTL)
}
