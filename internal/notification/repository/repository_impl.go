package repository

import (
	"context"
	"errors"

	"github.com/adwatchhq/adwatch/internal/notification/domain"
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

func (r *repository) CreateRule(ctx context.Context, rule *domain.Rule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) UpdateRule(ctx context.Context, rule *domain.Rule) error {
	return r.db.WithContext(ctx).
		Model(&domain.Rule{}).
		Where("id = ? AND org_id = ?", rule.ID, rule.OrgID).
		Updates(map[string]any{
			"name":               rule.Name,
			"conditions":         rule.Conditions,
			"priority":           rule.Priority,
			"is_active":          rule.IsActive,
			"slack_channel_id":   rule.SlackChannelID,
			"slack_channel_name": rule.SlackChannelName,
			"email_recipients":   rule.EmailRecipients,
			"webhook_url":        rule.WebhookURL,
			"updated_at":         rule.UpdatedAt,
		}).Error
}

func (r *repository) DeleteRule(ctx context.Context, orgID, id snowflake.ID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		Delete(&domain.Rule{}).Error
}

func (r *repository) FindRuleByID(ctx context.Context, orgID, id snowflake.ID) (*domain.Rule, error) {
	var rule domain.Rule
	err := r.db.WithContext(ctx).First(&rule, "id = ? AND org_id = ?", id, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *repository) ListRules(ctx context.Context, orgID snowflake.ID) ([]domain.Rule, error) {
	var rules []domain.Rule
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("priority DESC, id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *repository) ListActiveRules(ctx context.Context, orgID snowflake.ID) ([]domain.Rule, error) {
	var rules []domain.Rule
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND is_active = ?", orgID, true).
		Order("priority DESC, id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *repository) InsertLog(ctx context.Context, log *domain.Log) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) ListLogsForEvent(ctx context.Context, changeEventID snowflake.ID) ([]domain.Log, error) {
	var logs []domain.Log
	err := r.db.WithContext(ctx).
		Where("change_event_id = ?", changeEventID).
		Order("id ASC").
		Find(&logs).Error
	return logs, err
}
