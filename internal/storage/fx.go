package storage

import (
	"go.uber.org/fx"

	"github.com/easyvisa/visaflow/internal/config"
)

var Module = fx.Module("storage",
	fx.Provide(provideStore),
)

func provideStore(cfg config.Config) (*Store, error) {
	return NewStore(cfg.UploadDir, cfg.MaxUploadBytes)
}
