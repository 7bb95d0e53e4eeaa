package repository

import (
	"context"
	"errors"
	"time"

	"github.com/adwatchhq/adwatch/internal/adaccount/domain"
	"github.com/adwatchhq/adwatch/internal/platform"
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

func (r *repository) Create(ctx context.Context, account *domain.AdAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.AdAccount, error) {
	var account domain.AdAccount
	err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindByExternalID(ctx context.Context, p platform.Platform, externalID string) (*domain.AdAccount, error) {
	var account domain.AdAccount
	err := r.db.WithContext(ctx).
		First(&account, "platform = ? AND external_account_id = ?", p, externalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) ListForOrg(ctx context.Context, orgID snowflake.ID) ([]domain.AdAccount, error) {
	var accounts []domain.AdAccount
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *repository) ListActive(ctx context.Context, afterID snowflake.ID, limit int) ([]domain.AdAccount, error) {
	if limit <= 0 {
		limit = 50
	}
	var accounts []domain.AdAccount
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND id > ?", true, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&accounts).Error
	return accounts, err
}

func (r *repository) CountForOrg(ctx context.Context, orgID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.AdAccount{}).
		Where("org_id = ?", orgID).
		Count(&count).Error
	return count, err
}

func (r *repository) TouchLastSync(ctx context.Context, id snowflake.ID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.AdAccount{}).
		Where("id = ?", id).
		Update("last_sync_at", at).Error
}
