// Package domain contains notification rules, their condition language and
// the delivery audit log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Channel names a delivery mechanism.
type Channel string

const (
	ChannelSlack   Channel = "slack"
	ChannelEmail   Channel = "email"
	ChannelWebhook Channel = "webhook"
)

// DeliveryStatus is the outcome recorded per dispatch attempt.
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// Rule is an organization-scoped, user-authored predicate plus channel
// configuration. Read-only to the pipeline; authored through the dashboard.
type Rule struct {
	ID               snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID            snowflake.ID   `gorm:"not null;index:ix_notification_rules_org_active,priority:1" json:"org_id"`
	Name             string         `gorm:"type:text;not null" json:"name"`
	Conditions       datatypes.JSON `gorm:"type:jsonb" json:"conditions"`
	Priority         int            `gorm:"not null;default:0" json:"priority"`
	IsActive         bool           `gorm:"not null;default:true;index:ix_notification_rules_org_active,priority:2" json:"is_active"`
	SlackChannelID   string         `gorm:"type:text" json:"slack_channel_id"`
	SlackChannelName string         `gorm:"type:text" json:"slack_channel_name"`
	EmailRecipients  string         `gorm:"type:text" json:"email_recipients"`
	WebhookURL       string         `gorm:"type:text" json:"webhook_url"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Rule) TableName() string { return "notification_rules" }

// Channels lists the delivery channels configured on the rule.
func (r Rule) Channels() []Channel {
	channels := make([]Channel, 0, 3)
	if r.SlackChannelID != "" {
		channels = append(channels, ChannelSlack)
	}
	if r.EmailRecipients != "" {
		channels = append(channels, ChannelEmail)
	}
	if r.WebhookURL != "" {
		channels = append(channels, ChannelWebhook)
	}
	return channels
}

// Log is the append-only delivery audit record: one row per (rule, channel)
// dispatch attempt.
type Log struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	RuleID        snowflake.ID   `gorm:"not null;index" json:"rule_id"`
	ChangeEventID snowflake.ID   `gorm:"not null;index" json:"change_event_id"`
	Channel       Channel        `gorm:"type:text;not null" json:"channel"`
	Status        DeliveryStatus `gorm:"type:text;not null" json:"status"`
	Error         string         `gorm:"type:text" json:"error,omitempty"`
	SentAt        time.Time      `gorm:"not null" json:"sent_at"`
}

// TableName sets the database table name.
func (Log) TableName() string { return "notification_logs" }
