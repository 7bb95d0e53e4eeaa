// Package domain defines the change detector contract: diffing freshly
// fetched resource states against stored snapshots and recording the result.
package domain

import (
	"context"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// DetectAndRecordChanges diffs each fetched resource against its latest
	// snapshot, records change events and fresh snapshots, and triggers
	// notification dispatch. Returns the number of resources for which a
	// change event was recorded.
	DetectAndRecordChanges(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, resources []platform.ResourceState) (int, error)

	// DetectDeletedResources compares previously snapshotted resource IDs of
	// one type against the IDs currently reported upstream and records a
	// deleted change event for each one that vanished. Returns the number of
	// deletions recorded.
	DetectDeletedResources(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, currentResourceIDs []string) (int, error)
}
