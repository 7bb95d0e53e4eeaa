package domain

import (
	"context"
	"time"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, account *AdAccount) error
	FindByID(ctx context.Context, id snowflake.ID) (*AdAccount, error)
	FindByExternalID(ctx context.Context, p platform.Platform, externalID string) (*AdAccount, error)
	ListForOrg(ctx context.Context, orgID snowflake.ID) ([]AdAccount, error)
	// ListActive pages through active accounts across all organizations for
	// the poll loop. Cursor is the last seen ID, zero to start.
	ListActive(ctx context.Context, afterID snowflake.ID, limit int) ([]AdAccount, error)
	CountForOrg(ctx context.Context, orgID snowflake.ID) (int64, error)
	TouchLastSync(ctx context.Context, id snowflake.ID, at time.Time) error
}
