package email

import (
	"context"
	"errors"
)

type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
}

// ErrIntegrationNotConfigured reports a dispatch attempted without a
// configured SMTP sender.
var ErrIntegrationNotConfigured = errors.New("email_integration_not_configured")

// NoOpProvider stands in when no SMTP host is configured. Dispatches fail so
// the audit log records the miss instead of reporting a phantom send.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return ErrIntegrationNotConfigured
}
