package detector

import (
	"github.com/adwatchhq/adwatch/internal/detector/service"
	"go.uber.org/fx"
)

var Module = fx.Module("detector.service",
	fx.Provide(service.NewService),
)
