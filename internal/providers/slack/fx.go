package slack

import (
	"github.com/adwatchhq/adwatch/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.slack",
	fx.Provide(NewFromConfig),
)

// NewFromConfig falls back to the no-op provider when no bot token is
// configured, so environments without Slack still boot. Rules targeting the
// chat channel then log failed dispatches.
func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.Slack.BotToken == "" {
		log.Warn("slack bot token not configured, chat dispatches will fail")
		return &NoOpProvider{}
	}
	return NewClient(Config{
		APIBaseURL: cfg.Slack.APIBaseURL,
		BotToken:   cfg.Slack.BotToken,
	})
}
