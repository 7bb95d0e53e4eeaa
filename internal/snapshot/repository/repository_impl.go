package repository

import (
	"context"
	"errors"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/adwatchhq/adwatch/internal/snapshot/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, snap *domain.ResourceSnapshot) error {
	return r.db.WithContext(ctx).Create(snap).Error
}

func (r *repository) Latest(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, resourceID string) (*domain.ResourceSnapshot, error) {
	var snap domain.ResourceSnapshot
	err := r.db.WithContext(ctx).
		Where("ad_account_id = ? AND resource_type = ? AND resource_id = ?", adAccountID, resourceType, resourceID).
		Order("captured_at DESC, id DESC").
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (r *repository) KnownResourceIDs(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType) ([]string, error) {
	// Latest snapshot per resource decides liveness; tombstones drop the
	// resource out of deletion detection.
	var ids []string
	err := r.db.WithContext(ctx).Raw(
		`SELECT s.resource_id
		 FROM resource_snapshots s
		 JOIN (
		   SELECT resource_id, MAX(captured_at) AS captured_at
		   FROM resource_snapshots
		   WHERE ad_account_id = ? AND resource_type = ?
		   GROUP BY resource_id
		 ) latest
		   ON latest.resource_id = s.resource_id AND latest.captured_at = s.captured_at
		 WHERE s.ad_account_id = ? AND s.resource_type = ? AND s.deleted = ?`,
		adAccountID, resourceType, adAccountID, resourceType, false,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) CountForResource(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, resourceID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ResourceSnapshot{}).
		Where("ad_account_id = ? AND resource_type = ? AND resource_id = ?", adAccountID, resourceType, resourceID).
		Count(&count).Error
	return count, err
}
