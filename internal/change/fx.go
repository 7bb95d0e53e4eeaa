package change

import (
	"github.com/adwatchhq/adwatch/internal/change/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("change.store",
	fx.Provide(repository.NewRepository),
)
