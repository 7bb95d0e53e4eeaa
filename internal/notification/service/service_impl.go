package service

import (
	"context"
	"strings"
	"time"

	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	"github.com/adwatchhq/adwatch/internal/clock"
	"github.com/adwatchhq/adwatch/internal/notification/domain"
	"github.com/adwatchhq/adwatch/internal/observability/metrics"
	"github.com/adwatchhq/adwatch/internal/providers/email"
	"github.com/adwatchhq/adwatch/internal/providers/slack"
	"github.com/adwatchhq/adwatch/internal/providers/webhook"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// dispatchTimeout bounds one outbound channel call so a slow endpoint cannot
// stall the batch.
const dispatchTimeout = 10 * time.Second

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Node    *snowflake.Node
	Changes changedomain.Repository
	Repo    domain.Repository
	Slack   slack.Provider
	Email   email.Provider
	Webhook webhook.Provider
	Metrics *metrics.Metrics `optional:"true"`
}

type service struct {
	log     *zap.Logger
	clock   clock.Clock
	node    *snowflake.Node
	changes changedomain.Repository
	repo    domain.Repository
	slack   slack.Provider
	email   email.Provider
	webhook webhook.Provider
	metrics *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		log:     p.Log,
		clock:   p.Clock,
		node:    p.Node,
		changes: p.Changes,
		repo:    p.Repo,
		slack:   p.Slack,
		email:   p.Email,
		webhook: p.Webhook,
		metrics: p.Metrics,
	}
}

func (s *service) TriggerNotifications(ctx context.Context, changeEventID snowflake.ID) (int, error) {
	event, err := s.changes.FindByID(ctx, changeEventID)
	if err != nil {
		return 0, err
	}
	if event == nil {
		s.log.Warn("change event not found, skipping notification dispatch",
			zap.Int64("change_event_id", changeEventID.Int64()))
		return 0, nil
	}

	rules, err := s.repo.ListActiveRules(ctx, event.OrgID)
	if err != nil {
		return 0, err
	}

	attrs := eventAttributes(event)
	attempts := 0

	// Each rule is evaluated and dispatched in isolation. A malformed
	// condition or failing channel is logged and must not block other rules.
	for i := range rules {
		rule := rules[i]
		attempts += s.dispatchRule(ctx, &rule, event, attrs)
	}
	return attempts, nil
}

func (s *service) dispatchRule(ctx context.Context, rule *domain.Rule, event *changedomain.ChangeEvent, attrs map[string]any) int {
	cond, err := domain.ParseConditions(rule.Conditions)
	if err != nil {
		s.log.Error("rule has malformed conditions",
			zap.Int64("rule_id", rule.ID.Int64()),
			zap.Error(err))
		s.writeLog(ctx, rule.ID, event.ID, "", domain.DeliveryStatusFailed, err)
		return 0
	}

	matched, err := cond.Evaluate(attrs)
	if err != nil {
		s.writeLog(ctx, rule.ID, event.ID, "", domain.DeliveryStatusFailed, err)
		return 0
	}
	if !matched {
		return 0
	}

	attempts := 0
	for _, channel := range rule.Channels() {
		attempts++
		err := s.deliver(ctx, channel, rule, event)
		status := domain.DeliveryStatusSent
		if err != nil {
			status = domain.DeliveryStatusFailed
			s.log.Warn("channel delivery failed",
				zap.Int64("rule_id", rule.ID.Int64()),
				zap.Int64("change_event_id", event.ID.Int64()),
				zap.String("channel", string(channel)),
				zap.Error(err))
		}
		s.metrics.RecordNotification(ctx, string(channel), string(status))
		s.writeLog(ctx, rule.ID, event.ID, channel, status, err)
	}
	return attempts
}

func (s *service) deliver(ctx context.Context, channel domain.Channel, rule *domain.Rule, event *changedomain.ChangeEvent) error {
	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	switch channel {
	case domain.ChannelSlack:
		return s.slack.PostChangeAlert(ctx, rule.SlackChannelID, event)
	case domain.ChannelEmail:
		subject, body := email.ChangeAlert(event)
		return s.email.Send(ctx, splitRecipients(rule.EmailRecipients), subject, body)
	case domain.ChannelWebhook:
		ref := webhook.RuleRef{ID: rule.ID, Name: rule.Name, Priority: rule.Priority}
		return s.webhook.Deliver(ctx, rule.WebhookURL, ref, event)
	default:
		return nil
	}
}

// writeLog records one audit row per (rule, channel) attempt. Evaluation
// failures carry an empty channel.
func (s *service) writeLog(ctx context.Context, ruleID, eventID snowflake.ID, channel domain.Channel, status domain.DeliveryStatus, cause error) {
	entry := domain.Log{
		ID:            s.node.Generate(),
		RuleID:        ruleID,
		ChangeEventID: eventID,
		Channel:       channel,
		Status:        status,
		SentAt:        s.clock.Now(),
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	if err := s.repo.InsertLog(ctx, &entry); err != nil {
		s.log.Error("failed to write notification log",
			zap.Int64("rule_id", ruleID.Int64()),
			zap.Error(err))
	}
}

// eventAttributes flattens the change event into the fields rule conditions
// may reference.
func eventAttributes(event *changedomain.ChangeEvent) map[string]any {
	return map[string]any{
		"platform":      string(event.Platform),
		"ad_account_id": event.AdAccountID.String(),
		"change_type":   string(event.ChangeType),
		"resource_type": string(event.ResourceType),
		"resource_id":   event.ResourceID,
		"severity":      string(event.Severity),
		"before_value":  map[string]any(event.BeforeValue),
		"after_value":   map[string]any(event.AfterValue),
	}
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	recipients := make([]string, 0, len(parts))
	for _, part := range parts {
		if addr := strings.TrimSpace(part); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}

func (s *service) CreateRule(ctx context.Context, orgID snowflake.ID, req domain.RuleRequest) (*domain.Rule, error) {
	rule, err := ruleFromRequest(orgID, req)
	if err != nil {
		return nil, err
	}
	rule.ID = s.node.Generate()
	now := s.clock.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *service) UpdateRule(ctx context.Context, orgID, id snowflake.ID, req domain.RuleRequest) (*domain.Rule, error) {
	existing, err := s.repo.FindRuleByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrRuleNotFound
	}

	rule, err := ruleFromRequest(orgID, req)
	if err != nil {
		return nil, err
	}
	rule.ID = id
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *service) DeleteRule(ctx context.Context, orgID, id snowflake.ID) error {
	existing, err := s.repo.FindRuleByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrRuleNotFound
	}
	return s.repo.DeleteRule(ctx, orgID, id)
}

func (s *service) GetRule(ctx context.Context, orgID, id snowflake.ID) (*domain.Rule, error) {
	rule, err := s.repo.FindRuleByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, domain.ErrRuleNotFound
	}
	return rule, nil
}

func (s *service) ListRules(ctx context.Context, orgID snowflake.ID) ([]domain.Rule, error) {
	return s.repo.ListRules(ctx, orgID)
}

func (s *service) ListLogs(ctx context.Context, changeEventID snowflake.ID) ([]domain.Log, error) {
	return s.repo.ListLogsForEvent(ctx, changeEventID)
}

func ruleFromRequest(orgID snowflake.ID, req domain.RuleRequest) (*domain.Rule, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidRuleName
	}
	if _, err := domain.ParseConditions(req.Conditions); err != nil {
		return nil, err
	}

	rule := &domain.Rule{
		OrgID:            orgID,
		Name:             name,
		Conditions:       datatypes.JSON(req.Conditions),
		Priority:         req.Priority,
		IsActive:         true,
		SlackChannelID:   strings.TrimSpace(req.SlackChannelID),
		SlackChannelName: strings.TrimSpace(req.SlackChannelName),
		EmailRecipients:  strings.TrimSpace(req.EmailRecipients),
		WebhookURL:       strings.TrimSpace(req.WebhookURL),
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if len(rule.Channels()) == 0 {
		return nil, domain.ErrNoChannels
	}
	return rule, nil
}
