// Package domain contains the change event record and its classification
// vocabulary.
package domain

import (
	"time"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ChangeType classifies what happened to a resource between two polls.
type ChangeType string

const (
	ChangeTypeCreated ChangeType = "created"
	ChangeTypeUpdated ChangeType = "updated"
	ChangeTypeDeleted ChangeType = "deleted"
	ChangeTypePaused  ChangeType = "paused"
	ChangeTypeResumed ChangeType = "resumed"
)

// Severity is the urgency classification driving notification routing.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// rank orders severities for raise-only escalation.
var rank = map[Severity]int{SeverityInfo: 0, SeverityWarning: 1, SeverityCritical: 2}

// Max returns the higher of two severities.
func (s Severity) Max(other Severity) Severity {
	if rank[other] > rank[s] {
		return other
	}
	return s
}

// FieldDiff holds the before/after pair for one changed field.
type FieldDiff struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// ChangeEvent records one detected difference. Created exactly once per
// detected change, immutable thereafter.
type ChangeEvent struct {
	ID           snowflake.ID          `gorm:"primaryKey" json:"id"`
	AdAccountID  snowflake.ID          `gorm:"not null;index:ix_change_events_account,priority:1" json:"ad_account_id"`
	OrgID        snowflake.ID          `gorm:"not null;index" json:"org_id"`
	Platform     platform.Platform     `gorm:"type:text;not null" json:"platform"`
	ResourceType platform.ResourceType `gorm:"type:text;not null" json:"resource_type"`
	ResourceID   string                `gorm:"type:text;not null;index:ix_change_events_account,priority:2" json:"resource_id"`
	ResourceName string                `gorm:"type:text;not null" json:"resource_name"`
	ChangeType   ChangeType            `gorm:"type:text;not null" json:"change_type"`
	Severity     Severity              `gorm:"type:text;not null" json:"severity"`
	BeforeValue  datatypes.JSONMap     `gorm:"type:jsonb" json:"before_value"`
	AfterValue   datatypes.JSONMap     `gorm:"type:jsonb" json:"after_value"`
	Diff         datatypes.JSONMap     `gorm:"type:jsonb" json:"diff"`
	DetectedAt   time.Time             `gorm:"not null;index" json:"detected_at"`
	CreatedAt    time.Time             `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ChangeEvent) TableName() string { return "change_events" }
