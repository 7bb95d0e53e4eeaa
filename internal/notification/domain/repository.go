package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateRule(ctx context.Context, rule *Rule) error
	UpdateRule(ctx context.Context, rule *Rule) error
	DeleteRule(ctx context.Context, orgID, id snowflake.ID) error
	FindRuleByID(ctx context.Context, orgID, id snowflake.ID) (*Rule, error)
	ListRules(ctx context.Context, orgID snowflake.ID) ([]Rule, error)
	// ListActiveRules returns the organization's enabled rules ordered by
	// priority, highest first.
	ListActiveRules(ctx context.Context, orgID snowflake.ID) ([]Rule, error)

	InsertLog(ctx context.Context, log *Log) error
	ListLogsForEvent(ctx context.Context, changeEventID snowflake.ID) ([]Log, error)
}
