package domain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// TriggerNotifications evaluates the organization's active rules against
	// a recorded change event and fans deliveries out to every configured
	// channel. Returns the number of channel-dispatch attempts made.
	TriggerNotifications(ctx context.Context, changeEventID snowflake.ID) (int, error)

	CreateRule(ctx context.Context, orgID snowflake.ID, req RuleRequest) (*Rule, error)
	UpdateRule(ctx context.Context, orgID, id snowflake.ID, req RuleRequest) (*Rule, error)
	DeleteRule(ctx context.Context, orgID, id snowflake.ID) error
	GetRule(ctx context.Context, orgID, id snowflake.ID) (*Rule, error)
	ListRules(ctx context.Context, orgID snowflake.ID) ([]Rule, error)
	ListLogs(ctx context.Context, changeEventID snowflake.ID) ([]Log, error)
}

type RuleRequest struct {
	Name             string          `json:"name"`
	Conditions       json.RawMessage `json:"conditions"`
	Priority         int             `json:"priority"`
	IsActive         *bool           `json:"is_active"`
	SlackChannelID   string          `json:"slack_channel_id"`
	SlackChannelName string          `json:"slack_channel_name"`
	EmailRecipients  string          `json:"email_recipients"`
	WebhookURL       string          `json:"webhook_url"`
}

var (
	ErrRuleNotFound    = errors.New("rule_not_found")
	ErrInvalidRuleName = errors.New("invalid_rule_name")
	ErrNoChannels      = errors.New("rule_requires_a_channel")
)
