package repository

import (
	"context"
	"errors"
	"time"

	"github.com/adwatchhq/adwatch/internal/change/domain"
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

func (r *repository) Insert(ctx context.Context, event *domain.ChangeEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.ChangeEvent, error) {
	var event domain.ChangeEvent
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) CountForOrgSince(ctx context.Context, orgID snowflake.ID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ChangeEvent{}).
		Where("org_id = ? AND created_at >= ?", orgID, since).
		Count(&count).Error
	return count, err
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.ChangeEvent, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.ChangeEvent{})
	if filter.OrgID != 0 {
		stmt = stmt.Where("org_id = ?", filter.OrgID)
	}
	if filter.AdAccountID != 0 {
		stmt = stmt.Where("ad_account_id = ?", filter.AdAccountID)
	}
	if filter.Severity != "" {
		stmt = stmt.Where("severity = ?", filter.Severity)
	}
	if filter.ChangeType != "" {
		stmt = stmt.Where("change_type = ?", filter.ChangeType)
	}
	if filter.AfterCursor != 0 {
		stmt = stmt.Where("id < ?", filter.AfterCursor)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	var events []domain.ChangeEvent
	err := stmt.Order("id DESC").Limit(limit).Find(&events).Error
	return events, err
}
