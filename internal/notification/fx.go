package notification

import (
	"github.com/adwatchhq/adwatch/internal/notification/repository"
	"github.com/adwatchhq/adwatch/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
