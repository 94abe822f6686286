package application

import (
	"go.uber.org/fx"

	"github.com/easyvisa/visaflow/internal/application/repository"
	"github.com/easyvisa/visaflow/internal/application/service"
)

var Module = fx.Module("application.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
