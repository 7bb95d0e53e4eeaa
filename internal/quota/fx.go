package quota

import (
	"github.com/adwatchhq/adwatch/internal/quota/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quota.service",
	fx.Provide(service.NewService),
)
