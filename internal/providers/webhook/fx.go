package webhook

import (
	"github.com/adwatchhq/adwatch/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.webhook",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Provider {
	return NewClient(Config{
		Timeout:   cfg.Webhook.Timeout,
		UserAgent: cfg.Webhook.UserAgent,
	})
}
