package providers

import (
	"github.com/adwatchhq/adwatch/internal/providers/email"
	"github.com/adwatchhq/adwatch/internal/providers/slack"
	"github.com/adwatchhq/adwatch/internal/providers/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	slack.Module,
	email.Module,
	webhook.Module,
)
