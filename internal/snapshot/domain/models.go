// Package domain contains the append-only snapshot record used as the diff
// baseline between polling cycles.
package domain

import (
	"time"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ResourceSnapshot is an immutable copy of one external resource's state at
// capture time. One row is written per detection pass per resource, change or
// not, so the latest-snapshot lookup stays correct and cheap. Rows are never
// mutated or deleted.
type ResourceSnapshot struct {
	ID           snowflake.ID          `gorm:"primaryKey" json:"id"`
	AdAccountID  snowflake.ID          `gorm:"not null;index:ix_snapshots_lookup,priority:1" json:"ad_account_id"`
	Platform     platform.Platform     `gorm:"type:text;not null" json:"platform"`
	ResourceType platform.ResourceType `gorm:"type:text;not null;index:ix_snapshots_lookup,priority:2" json:"resource_type"`
	ResourceID   string                `gorm:"type:text;not null;index:ix_snapshots_lookup,priority:3" json:"resource_id"`
	ResourceName string                `gorm:"type:text;not null" json:"resource_name"`
	State        datatypes.JSONMap     `gorm:"type:jsonb;not null" json:"state"`
	StateHash    string                `gorm:"type:text;not null" json:"state_hash"`
	// Deleted marks a tombstone written when the upstream resource vanished.
	// Tombstoned resources are excluded from deletion detection so a missing
	// resource is reported exactly once.
	Deleted    bool      `gorm:"not null;default:false" json:"deleted"`
	CapturedAt time.Time `gorm:"not null;index:ix_snapshots_lookup,priority:4" json:"captured_at"`
}

// TableName sets the database table name.
func (ResourceSnapshot) TableName() string { return "resource_snapshots" }
