package webhook

import (
	"context"

	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	"github.com/bwmarrin/snowflake"
)

// RuleRef identifies the matching rule inside the delivered payload without
// coupling this package to the rule model.
type RuleRef struct {
	ID       snowflake.ID `json:"id"`
	Name     string       `json:"name"`
	Priority int          `json:"priority"`
}

type Provider interface {
	Deliver(ctx context.Context, url string, rule RuleRef, event *changedomain.ChangeEvent) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Deliver(ctx context.Context, url string, rule RuleRef, event *changedomain.ChangeEvent) error {
	return nil
}
