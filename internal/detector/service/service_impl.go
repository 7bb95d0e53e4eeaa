package service

import (
	"context"

	adaccountdomain "github.com/adwatchhq/adwatch/internal/adaccount/domain"
	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	"github.com/adwatchhq/adwatch/internal/change/diff"
	"github.com/adwatchhq/adwatch/internal/clock"
	"github.com/adwatchhq/adwatch/internal/detector/domain"
	notificationdomain "github.com/adwatchhq/adwatch/internal/notification/domain"
	"github.com/adwatchhq/adwatch/internal/observability/metrics"
	"github.com/adwatchhq/adwatch/internal/platform"
	quotadomain "github.com/adwatchhq/adwatch/internal/quota/domain"
	"github.com/adwatchhq/adwatch/internal/snapshot"
	snapshotdomain "github.com/adwatchhq/adwatch/internal/snapshot/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ServiceParam struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	Node          *snowflake.Node
	Accounts      adaccountdomain.Repository
	Snapshots     snapshotdomain.Repository
	Changes       changedomain.Repository
	Quota         quotadomain.Service
	Notifications notificationdomain.Service
	Metrics       *metrics.Metrics `optional:"true"`
}

type service struct {
	log           *zap.Logger
	clock         clock.Clock
	node          *snowflake.Node
	accounts      adaccountdomain.Repository
	snapshots     snapshotdomain.Repository
	changes       changedomain.Repository
	quota         quotadomain.Service
	notifications notificationdomain.Service
	metrics       *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		log:           p.Log,
		clock:         p.Clock,
		node:          p.Node,
		accounts:      p.Accounts,
		snapshots:     p.Snapshots,
		changes:       p.Changes,
		quota:         p.Quota,
		notifications: p.Notifications,
		metrics:       p.Metrics,
	}
}

func (s *service) DetectAndRecordChanges(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, resources []platform.ResourceState) (int, error) {
	account, err := s.accounts.FindByID(ctx, adAccountID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		s.log.Warn("ad account not found, skipping detection",
			zap.Int64("ad_account_id", adAccountID.Int64()))
		return 0, nil
	}

	// One quota check per batch. When over quota the whole batch is skipped,
	// snapshots included, leaving state stale until quota recovers.
	decision, err := s.quota.CanRecordChangeEvent(ctx, account.OrgID)
	if err != nil {
		return 0, err
	}
	if !decision.Allowed {
		s.log.Info("change event quota reached, skipping batch",
			zap.Int64("org_id", account.OrgID.Int64()),
			zap.String("resource_type", string(resourceType)),
			zap.String("reason", decision.Reason))
		s.metrics.RecordQuotaDenied(ctx, "change_event")
		return 0, nil
	}

	detected := 0
	for _, resource := range resources {
		resourceID := resource.ID()
		if resourceID == "" {
			s.log.Warn("fetched resource has no id, skipping",
				zap.Int64("ad_account_id", adAccountID.Int64()),
				zap.String("resource_type", string(resourceType)))
			continue
		}

		// Each resource is processed in isolation so one bad row cannot
		// poison the rest of the batch.
		if s.processResource(ctx, account, resourceType, resourceID, resource) {
			detected++
		}
	}
	return detected, nil
}

func (s *service) processResource(ctx context.Context, account *adaccountdomain.AdAccount, resourceType platform.ResourceType, resourceID string, resource platform.ResourceState) bool {
	previous, err := s.snapshots.Latest(ctx, account.ID, resourceType, resourceID)
	if err != nil {
		s.log.Error("snapshot lookup failed",
			zap.Int64("ad_account_id", account.ID.Int64()),
			zap.String("resource_id", resourceID),
			zap.Error(err))
		return false
	}

	var before platform.ResourceState
	if previous != nil && !previous.Deleted {
		before = platform.ResourceState(previous.State)
	}

	result := diff.Compare(before, resource)

	recorded := false
	if result.HasChanges {
		event := s.buildEvent(account, resourceType, resourceID, resource.Name(), result)
		if err := s.changes.Insert(ctx, event); err != nil {
			s.log.Error("failed to record change event",
				zap.Int64("ad_account_id", account.ID.Int64()),
				zap.String("resource_id", resourceID),
				zap.Error(err))
		} else {
			recorded = true
			s.metrics.RecordChangeEvent(ctx, string(account.Platform), string(event.ChangeType), string(event.Severity))
			s.dispatch(ctx, event.ID)
		}
	}

	// Snapshot capture is unconditional so the next poll diffs against the
	// freshest baseline even when nothing changed.
	snap := &snapshotdomain.ResourceSnapshot{
		ID:           s.node.Generate(),
		AdAccountID:  account.ID,
		Platform:     account.Platform,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: resource.Name(),
		State:        datatypes.JSONMap(resource),
		StateHash:    snapshot.Hash(resource),
		CapturedAt:   s.clock.Now(),
	}
	if err := s.snapshots.Insert(ctx, snap); err != nil {
		s.log.Error("failed to capture snapshot",
			zap.Int64("ad_account_id", account.ID.Int64()),
			zap.String("resource_id", resourceID),
			zap.Error(err))
	} else {
		s.metrics.RecordSnapshotCapture(ctx, string(account.Platform), string(resourceType))
	}
	return recorded
}

func (s *service) DetectDeletedResources(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, currentResourceIDs []string) (int, error) {
	account, err := s.accounts.FindByID(ctx, adAccountID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		s.log.Warn("ad account not found, skipping deletion detection",
			zap.Int64("ad_account_id", adAccountID.Int64()))
		return 0, nil
	}

	decision, err := s.quota.CanRecordChangeEvent(ctx, account.OrgID)
	if err != nil {
		return 0, err
	}
	if !decision.Allowed {
		s.log.Info("change event quota reached, skipping deletion detection",
			zap.Int64("org_id", account.OrgID.Int64()),
			zap.String("resource_type", string(resourceType)))
		s.metrics.RecordQuotaDenied(ctx, "change_event")
		return 0, nil
	}

	knownIDs, err := s.snapshots.KnownResourceIDs(ctx, adAccountID, resourceType)
	if err != nil {
		return 0, err
	}

	current := make(map[string]bool, len(currentResourceIDs))
	for _, id := range currentResourceIDs {
		current[id] = true
	}

	deleted := 0
	for _, resourceID := range knownIDs {
		if current[resourceID] {
			continue
		}
		if s.recordDeletion(ctx, account, resourceType, resourceID) {
			deleted++
		}
	}
	return deleted, nil
}

func (s *service) recordDeletion(ctx context.Context, account *adaccountdomain.AdAccount, resourceType platform.ResourceType, resourceID string) bool {
	previous, err := s.snapshots.Latest(ctx, account.ID, resourceType, resourceID)
	if err != nil {
		s.log.Error("snapshot lookup failed during deletion detection",
			zap.Int64("ad_account_id", account.ID.Int64()),
			zap.String("resource_id", resourceID),
			zap.Error(err))
		return false
	}
	if previous == nil || previous.Deleted {
		return false
	}

	before := platform.ResourceState(previous.State)
	result := diff.Compare(before, nil)

	event := s.buildEvent(account, resourceType, resourceID, previous.ResourceName, result)
	if err := s.changes.Insert(ctx, event); err != nil {
		s.log.Error("failed to record deletion event",
			zap.Int64("ad_account_id", account.ID.Int64()),
			zap.String("resource_id", resourceID),
			zap.Error(err))
		return false
	}
	s.metrics.RecordChangeEvent(ctx, string(account.Platform), string(event.ChangeType), string(event.Severity))
	s.dispatch(ctx, event.ID)

	// Tombstone so the next pass does not re-flag the same deletion.
	tombstone := &snapshotdomain.ResourceSnapshot{
		ID:           s.node.Generate(),
		AdAccountID:  account.ID,
		Platform:     account.Platform,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: previous.ResourceName,
		State:        datatypes.JSONMap{},
		StateHash:    snapshot.Hash(platform.ResourceState{}),
		Deleted:      true,
		CapturedAt:   s.clock.Now(),
	}
	if err := s.snapshots.Insert(ctx, tombstone); err != nil {
		s.log.Error("failed to capture deletion tombstone",
			zap.Int64("ad_account_id", account.ID.Int64()),
			zap.String("resource_id", resourceID),
			zap.Error(err))
	}
	return true
}

func (s *service) buildEvent(account *adaccountdomain.AdAccount, resourceType platform.ResourceType, resourceID, resourceName string, result diff.Result) *changedomain.ChangeEvent {
	now := s.clock.Now()
	return &changedomain.ChangeEvent{
		ID:           s.node.Generate(),
		AdAccountID:  account.ID,
		OrgID:        account.OrgID,
		Platform:     account.Platform,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		ChangeType:   result.ChangeType,
		Severity:     result.Severity,
		BeforeValue:  datatypes.JSONMap(result.BeforeValue),
		AfterValue:   datatypes.JSONMap(result.AfterValue),
		Diff:         diffPayload(result.Diff),
		DetectedAt:   now,
		CreatedAt:    now,
	}
}

// dispatch hands the event to the notification pipeline. Dispatch failures
// are logged and never fail detection or block snapshot capture.
func (s *service) dispatch(ctx context.Context, changeEventID snowflake.ID) {
	if _, err := s.notifications.TriggerNotifications(ctx, changeEventID); err != nil {
		s.log.Error("notification dispatch failed",
			zap.Int64("change_event_id", changeEventID.Int64()),
			zap.Error(err))
	}
}

func diffPayload(diffs map[string]changedomain.FieldDiff) datatypes.JSONMap {
	payload := make(datatypes.JSONMap, len(diffs))
	for field, pair := range diffs {
		payload[field] = map[string]any{"before": pair.Before, "after": pair.After}
	}
	return payload
}
