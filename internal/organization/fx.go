package organization

import (
	"github.com/adwatchhq/adwatch/internal/organization/repository"
	"github.com/adwatchhq/adwatch/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
