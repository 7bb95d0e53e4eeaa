package server

import (
	"context"
	"sync"
	"testing"
	"time"

	adaccountdomain "github.com/adwatchhq/adwatch/internal/adaccount/domain"
	adaccountrepository "github.com/adwatchhq/adwatch/internal/adaccount/repository"
	adaccountservice "github.com/adwatchhq/adwatch/internal/adaccount/service"
	"github.com/adwatchhq/adwatch/internal/cache"
	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	changerepository "github.com/adwatchhq/adwatch/internal/change/repository"
	"github.com/adwatchhq/adwatch/internal/clock"
	"github.com/adwatchhq/adwatch/internal/config"
	notificationdomain "github.com/adwatchhq/adwatch/internal/notification/domain"
	notificationrepository "github.com/adwatchhq/adwatch/internal/notification/repository"
	notificationservice "github.com/adwatchhq/adwatch/internal/notification/service"
	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/adwatchhq/adwatch/internal/providers/email"
	"github.com/adwatchhq/adwatch/internal/providers/slack"
	"github.com/adwatchhq/adwatch/internal/providers/webhook"
	quotadomain "github.com/adwatchhq/adwatch/internal/quota/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type allowAllQuota struct{}

func (allowAllQuota) GetOrganizationUsage(ctx context.Context, orgID snowflake.ID) (*quotadomain.OrganizationUsage, error) {
	return &quotadomain.OrganizationUsage{PlanCode: "trial"}, nil
}

func (allowAllQuota) CanRecordChangeEvent(ctx context.Context, orgID snowflake.ID) (quotadomain.Decision, error) {
	return quotadomain.Decision{Allowed: true}, nil
}

func (allowAllQuota) CanAddAdAccount(ctx context.Context, orgID snowflake.ID) (quotadomain.Decision, error) {
	return quotadomain.Decision{Allowed: true}, nil
}

func (allowAllQuota) CanAddMember(ctx context.Context, orgID snowflake.ID) (quotadomain.Decision, error) {
	return quotadomain.Decision{Allowed: true}, nil
}

type detectCall struct {
	accountID    snowflake.ID
	resourceType platform.ResourceType
	resources    []platform.ResourceState
}

type fakeDetector struct {
	mu    sync.Mutex
	calls []detectCall
	err   error
}

func (f *fakeDetector) DetectAndRecordChanges(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, resources []platform.ResourceState) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, detectCall{adAccountID, resourceType, resources})
	if f.err != nil {
		return 0, f.err
	}
	return len(resources), nil
}

func (f *fakeDetector) DetectDeletedResources(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, currentResourceIDs []string) (int, error) {
	return 0, nil
}

type serverFixture struct {
	server   *Server
	engine   *gin.Engine
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	detector *fakeDetector
	orgID    snowflake.ID
	cfg      config.Config
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&adaccountdomain.AdAccount{},
		&changedomain.ChangeEvent{},
		&notificationdomain.Rule{},
		&notificationdomain.Log{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	orgID := node.Generate()

	cfg := config.Config{
		DefaultOrgID:          orgID.Int64(),
		PlatformWebhookSecret: "test-webhook-secret",
	}

	adAccountRepo := adaccountrepository.NewRepository(db)
	changeRepo := changerepository.NewRepository(db)
	notificationRepo := notificationrepository.NewRepository(db)

	adAccountSvc := adaccountservice.NewService(adaccountservice.ServiceParam{
		Log:   log,
		Clock: fakeClock,
		Node:  node,
		Repo:  adAccountRepo,
		Quota: allowAllQuota{},
	})
	notificationSvc := notificationservice.NewService(notificationservice.ServiceParam{
		Log:     log,
		Clock:   fakeClock,
		Node:    node,
		Changes: changeRepo,
		Repo:    notificationRepo,
		Slack:   &slack.NoOpProvider{},
		Email:   &email.NoOpProvider{},
		Webhook: &webhook.NoOpProvider{},
	})

	detector := &fakeDetector{}

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:             engine,
		Cfg:             cfg,
		Log:             log,
		AdAccountSvc:    adAccountSvc,
		AdAccountRepo:   adAccountRepo,
		ChangeRepo:      changeRepo,
		DetectorSvc:     detector,
		NotificationSvc: notificationSvc,
		QuotaSvc:        allowAllQuota{},
		AccountCache:    cache.NewAccountResolverCache(),
	})

	return &serverFixture{
		server:   srv,
		engine:   engine,
		db:       db,
		node:     node,
		clock:    fakeClock,
		detector: detector,
		orgID:    orgID,
		cfg:      cfg,
	}
}

func (f *serverFixture) seedAdAccount(t *testing.T, p platform.Platform, externalID string) *adaccountdomain.AdAccount {
	t.Helper()
	account := &adaccountdomain.AdAccount{
		ID:                f.node.Generate(),
		OrgID:             f.orgID,
		Platform:          p,
		ExternalAccountID: externalID,
		Name:              externalID,
		IsActive:          true,
	}
	require.NoError(t, f.db.Create(account).Error)
	return account
}
