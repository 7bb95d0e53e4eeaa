package service

import (
	"context"
	"errors"
	"testing"
	"time"

	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	changerepository "github.com/adwatchhq/adwatch/internal/change/repository"
	"github.com/adwatchhq/adwatch/internal/clock"
	"github.com/adwatchhq/adwatch/internal/notification/domain"
	notificationrepository "github.com/adwatchhq/adwatch/internal/notification/repository"
	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/adwatchhq/adwatch/internal/providers/email"
	"github.com/adwatchhq/adwatch/internal/providers/slack"
	"github.com/adwatchhq/adwatch/internal/providers/webhook"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeSlack struct {
	channels []string
	err      error
}

func (f *fakeSlack) PostChangeAlert(ctx context.Context, channelID string, event *changedomain.ChangeEvent) error {
	f.channels = append(f.channels, channelID)
	return f.err
}

type fakeEmail struct {
	recipients [][]string
	subjects   []string
	err        error
}

func (f *fakeEmail) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	f.recipients = append(f.recipients, to)
	f.subjects = append(f.subjects, subject)
	return f.err
}

type fakeWebhook struct {
	urls []string
	err  error
}

func (f *fakeWebhook) Deliver(ctx context.Context, url string, rule webhook.RuleRef, event *changedomain.ChangeEvent) error {
	f.urls = append(f.urls, url)
	return f.err
}

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	svc     domain.Service
	repo    domain.Repository
	slack   *fakeSlack
	email   *fakeEmail
	webhook *fakeWebhook
	orgID   snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&changedomain.ChangeEvent{},
		&domain.Rule{},
		&domain.Log{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		db:      db,
		node:    node,
		repo:    notificationrepository.NewRepository(db),
		slack:   &fakeSlack{},
		email:   &fakeEmail{},
		webhook: &fakeWebhook{},
		orgID:   node.Generate(),
	}
	f.svc = NewService(ServiceParam{
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)),
		Node:    node,
		Changes: changerepository.NewRepository(db),
		Repo:    f.repo,
		Slack:   f.slack,
		Email:   f.email,
		Webhook: f.webhook,
	})
	return f
}

func (f *fixture) recordEvent(t *testing.T, severity changedomain.Severity) *changedomain.ChangeEvent {
	t.Helper()
	event := changedomain.ChangeEvent{
		ID:           f.node.Generate(),
		AdAccountID:  f.node.Generate(),
		OrgID:        f.orgID,
		Platform:     platform.PlatformMeta,
		ResourceType: platform.ResourceTypeCampaign,
		ResourceID:   "c1",
		ResourceName: "Spring Sale",
		ChangeType:   changedomain.ChangeTypeUpdated,
		Severity:     severity,
		BeforeValue:  datatypes.JSONMap{"daily_budget": float64(100)},
		AfterValue:   datatypes.JSONMap{"daily_budget": float64(200)},
		Diff: datatypes.JSONMap{
			"daily_budget": map[string]any{"before": float64(100), "after": float64(200)},
		},
		DetectedAt: time.Now().UTC(),
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&event).Error)
	return &event
}

func (f *fixture) createRule(t *testing.T, rule domain.Rule) domain.Rule {
	t.Helper()
	rule.ID = f.node.Generate()
	rule.OrgID = f.orgID
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	require.NoError(t, f.db.Create(&rule).Error)
	return rule
}

func TestTriggerNotificationsFansOutToAllChannels(t *testing.T) {
	f := newFixture(t)
	event := f.recordEvent(t, changedomain.SeverityCritical)

	f.createRule(t, domain.Rule{
		Name:            "critical changes",
		Conditions:      datatypes.JSON(`{"severity": "critical"}`),
		IsActive:        true,
		SlackChannelID:  "C123",
		EmailRecipients: "ops@acme.test, buyer@acme.test",
		WebhookURL:      "https://hooks.acme.test/adwatch",
	})

	attempts, err := f.svc.TriggerNotifications(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	assert.Equal(t, []string{"C123"}, f.slack.channels)
	require.Len(t, f.email.recipients, 1)
	assert.Equal(t, []string{"ops@acme.test", "buyer@acme.test"}, f.email.recipients[0])
	assert.Equal(t, []string{"https://hooks.acme.test/adwatch"}, f.webhook.urls)

	logs, err := f.repo.ListLogsForEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3, "one log row per channel")
	for _, entry := range logs {
		assert.Equal(t, domain.DeliveryStatusSent, entry.Status)
	}
}

func TestTriggerNotificationsSkipsNonMatchingRules(t *testing.T) {
	f := newFixture(t)
	event := f.recordEvent(t, changedomain.SeverityInfo)

	f.createRule(t, domain.Rule{
		Name:           "critical only",
		Conditions:     datatypes.JSON(`{"severity": "critical"}`),
		IsActive:       true,
		SlackChannelID: "C123",
	})

	attempts, err := f.svc.TriggerNotifications(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Zero(t, attempts)
	assert.Empty(t, f.slack.channels)

	logs, err := f.repo.ListLogsForEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Empty(t, logs, "non-matching rules leave no audit rows")
}

func TestTriggerNotificationsChannelFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	f.slack.err = errors.New("channel_not_found")
	event := f.recordEvent(t, changedomain.SeverityWarning)

	f.createRule(t, domain.Rule{
		Name:           "warn and up",
		Conditions:     datatypes.JSON(`{"severity": ["warning", "critical"]}`),
		IsActive:       true,
		SlackChannelID: "C404",
		WebhookURL:     "https://hooks.acme.test/adwatch",
	})

	attempts, err := f.svc.TriggerNotifications(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts, "webhook still attempted after slack failure")

	logs, err := f.repo.ListLogsForEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	byChannel := make(map[domain.Channel]domain.Log, len(logs))
	for _, entry := range logs {
		byChannel[entry.Channel] = entry
	}
	assert.Equal(t, domain.DeliveryStatusFailed, byChannel[domain.ChannelSlack].Status)
	assert.Contains(t, byChannel[domain.ChannelSlack].Error, "channel_not_found")
	assert.Equal(t, domain.DeliveryStatusSent, byChannel[domain.ChannelWebhook].Status)
}

func TestTriggerNotificationsUnconfiguredIntegrationLogsFailure(t *testing.T) {
	f := newFixture(t)
	f.svc = NewService(ServiceParam{
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)),
		Node:    f.node,
		Changes: changerepository.NewRepository(f.db),
		Repo:    f.repo,
		Slack:   &slack.NoOpProvider{},
		Email:   &email.NoOpProvider{},
		Webhook: f.webhook,
	})

	event := f.recordEvent(t, changedomain.SeverityCritical)
	f.createRule(t, domain.Rule{
		Name:            "critical everywhere",
		Conditions:      datatypes.JSON(`{"severity": "critical"}`),
		IsActive:        true,
		SlackChannelID:  "C123",
		EmailRecipients: "ops@acme.test",
	})

	attempts, err := f.svc.TriggerNotifications(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	logs, err := f.repo.ListLogsForEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	byChannel := make(map[domain.Channel]domain.Log, len(logs))
	for _, entry := range logs {
		byChannel[entry.Channel] = entry
	}
	assert.Equal(t, domain.DeliveryStatusFailed, byChannel[domain.ChannelSlack].Status)
	assert.Contains(t, byChannel[domain.ChannelSlack].Error, "slack_integration_not_configured")
	assert.Equal(t, domain.DeliveryStatusFailed, byChannel[domain.ChannelEmail].Status)
	assert.Contains(t, byChannel[domain.ChannelEmail].Error, "email_integration_not_configured")
}

func TestTriggerNotificationsMalformedRuleDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t)
	event := f.recordEvent(t, changedomain.SeverityCritical)

	// Higher priority rule is evaluated first and fails to parse.
	f.createRule(t, domain.Rule{
		Name:           "broken",
		Conditions:     datatypes.JSON(`{"op": "gte", "field": "severity", "value": 1}`),
		Priority:       10,
		IsActive:       true,
		SlackChannelID: "C1",
	})
	f.createRule(t, domain.Rule{
		Name:           "catch all",
		IsActive:       true,
		SlackChannelID: "C2",
	})

	attempts, err := f.svc.TriggerNotifications(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, []string{"C2"}, f.slack.channels)

	logs, err := f.repo.ListLogsForEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
}

func TestTriggerNotificationsIgnoresInactiveRules(t *testing.T) {
	f := newFixture(t)
	event := f.recordEvent(t, changedomain.SeverityCritical)

	f.createRule(t, domain.Rule{
		Name:           "disabled",
		IsActive:       false,
		SlackChannelID: "C123",
	})

	attempts, err := f.svc.TriggerNotifications(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Zero(t, attempts)
}

func TestTriggerNotificationsMissingEvent(t *testing.T) {
	f := newFixture(t)

	attempts, err := f.svc.TriggerNotifications(context.Background(), f.node.Generate())
	require.NoError(t, err)
	assert.Zero(t, attempts)
}

func TestRuleCRUDValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateRule(ctx, f.orgID, domain.RuleRequest{Name: "no channels"})
	assert.ErrorIs(t, err, domain.ErrNoChannels)

	_, err = f.svc.CreateRule(ctx, f.orgID, domain.RuleRequest{
		Name:           "bad conditions",
		Conditions:     []byte(`{"op": "between"}`),
		SlackChannelID: "C1",
	})
	assert.ErrorIs(t, err, domain.ErrMalformedCondition)

	rule, err := f.svc.CreateRule(ctx, f.orgID, domain.RuleRequest{
		Name:           "pauses",
		Conditions:     []byte(`{"change_type": "paused"}`),
		SlackChannelID: "C1",
	})
	require.NoError(t, err)
	assert.True(t, rule.IsActive)

	updated, err := f.svc.UpdateRule(ctx, f.orgID, rule.ID, domain.RuleRequest{
		Name:       "pauses and deletes",
		Conditions: []byte(`{"change_type": ["paused", "deleted"]}`),
		WebhookURL: "https://hooks.acme.test/adwatch",
	})
	require.NoError(t, err)
	assert.Equal(t, "pauses and deletes", updated.Name)
	assert.Equal(t, []domain.Channel{domain.ChannelWebhook}, updated.Channels())

	require.NoError(t, f.svc.DeleteRule(ctx, f.orgID, rule.ID))
	_, err = f.svc.GetRule(ctx, f.orgID, rule.ID)
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)

	err = f.svc.DeleteRule(ctx, f.orgID, f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)
}
