package adaccount

import (
	"github.com/adwatchhq/adwatch/internal/adaccount/repository"
	"github.com/adwatchhq/adwatch/internal/adaccount/service"
	"go.uber.org/fx"
)

var Module = fx.Module("adaccount.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
