package poller

import (
	"context"

	"github.com/adwatchhq/adwatch/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("poller",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(StartPoller),
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Interval:     cfg.Poller.Interval,
		AccountBatch: cfg.Poller.AccountBatch,
		LockTTL:      cfg.Poller.LockTTL,
	}.withDefaults()
}

func StartPoller(lc fx.Lifecycle, cfg config.Config, p *Poller) {
	if !cfg.Poller.Enabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())

			go p.RunForever(runCtx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
