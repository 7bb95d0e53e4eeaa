package slack

import (
	"context"
	"errors"

	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
)

type Provider interface {
	PostChangeAlert(ctx context.Context, channelID string, event *changedomain.ChangeEvent) error
}

// ErrIntegrationNotConfigured reports a dispatch attempted without a
// connected Slack workspace.
var ErrIntegrationNotConfigured = errors.New("slack_integration_not_configured")

// NoOpProvider stands in when no workspace is connected. Dispatches fail so
// the audit log records the miss instead of reporting a phantom send.
type NoOpProvider struct{}

func (p *NoOpProvider) PostChangeAlert(ctx context.Context, channelID string, event *changedomain.ChangeEvent) error {
	return ErrIntegrationNotConfigured
}
