package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	OrgID       snowflake.ID
	AdAccountID snowflake.ID
	Severity    Severity
	ChangeType  ChangeType
	AfterCursor snowflake.ID
	Limit       int
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, event *ChangeEvent) error
	FindByID(ctx context.Context, id snowflake.ID) (*ChangeEvent, error)
	// CountForOrgSince counts change events recorded for an organization at
	// or after the given instant. Used by the quota guard for the calendar
	// month window.
	CountForOrgSince(ctx context.Context, orgID snowflake.ID, since time.Time) (int64, error)
	List(ctx context.Context, filter ListFilter) ([]ChangeEvent, error)
}
