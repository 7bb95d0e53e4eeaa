// Package domain contains persistence models for connected ad accounts.
package domain

import (
	"time"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AdAccount is a connected external advertising account owned by one
// organization. OAuth token exchange happens outside this service; only an
// opaque credential reference is stored here.
type AdAccount struct {
	ID                snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID             snowflake.ID      `gorm:"not null;index" json:"org_id"`
	Platform          platform.Platform `gorm:"type:text;not null;uniqueIndex:ux_ad_accounts_platform_external,priority:1" json:"platform"`
	ExternalAccountID string            `gorm:"type:text;not null;uniqueIndex:ux_ad_accounts_platform_external,priority:2" json:"external_account_id"`
	Name              string            `gorm:"type:text;not null" json:"name"`
	CredentialRef     string            `gorm:"type:text" json:"-"`
	IsActive          bool              `gorm:"not null;default:true" json:"is_active"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	LastSyncAt        *time.Time        `gorm:"" json:"last_sync_at,omitempty"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (AdAccount) TableName() string { return "ad_accounts" }
