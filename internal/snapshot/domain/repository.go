package domain

import (
	"context"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, snap *ResourceSnapshot) error
	// Latest returns the most recently captured snapshot for a resource,
	// scoped by resource type so identical upstream IDs across types cannot
	// cross-contaminate diffs. Nil when no snapshot exists.
	Latest(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, resourceID string) (*ResourceSnapshot, error)
	// KnownResourceIDs returns the distinct resource IDs of this type that
	// have at least one snapshot and whose latest snapshot is not a deletion
	// tombstone.
	KnownResourceIDs(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType) ([]string, error)
	// CountForResource reports how many snapshots exist for one resource.
	CountForResource(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, resourceID string) (int64, error)
}
