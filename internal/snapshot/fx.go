package snapshot

import (
	"github.com/adwatchhq/adwatch/internal/snapshot/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("snapshot.store",
	fx.Provide(repository.NewRepository),
)
