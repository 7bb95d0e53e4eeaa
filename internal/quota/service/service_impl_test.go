package service

import (
	"context"
	"testing"
	"time"

	adaccountdomain "github.com/adwatchhq/adwatch/internal/adaccount/domain"
	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	changerepository "github.com/adwatchhq/adwatch/internal/change/repository"
	"github.com/adwatchhq/adwatch/internal/clock"
	"github.com/adwatchhq/adwatch/internal/config"
	organizationdomain "github.com/adwatchhq/adwatch/internal/organization/domain"
	organizationrepository "github.com/adwatchhq/adwatch/internal/organization/repository"
	organizationservice "github.com/adwatchhq/adwatch/internal/organization/service"
	"github.com/adwatchhq/adwatch/internal/platform"
	quotadomain "github.com/adwatchhq/adwatch/internal/quota/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   quotadomain.Service
	orgID snowflake.ID
}

func newFixture(t *testing.T, plan config.Plan) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&organizationdomain.Organization{},
		&organizationdomain.OrganizationMember{},
		&organizationdomain.Subscription{},
		&adaccountdomain.AdAccount{},
		&changedomain.ChangeEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	plan.Code = config.TrialPlanCode
	plans, err := config.NewStaticPlanCatalogHolder(config.PlanCatalog{Plans: []config.Plan{plan}})
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))

	orgRepo := organizationrepository.NewRepository(db)
	orgSvc := organizationservice.NewService(db, orgRepo, node)

	svc := NewService(ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   fakeClock,
		Plans:   plans,
		OrgSvc:  orgSvc,
		OrgRepo: orgRepo,
		Changes: changerepository.NewRepository(db),
	})

	org, err := orgSvc.Create(context.Background(), node.Generate(), organizationdomain.CreateOrganizationRequest{Name: "Acme Agency"})
	require.NoError(t, err)
	orgID, err := snowflake.ParseString(org.ID)
	require.NoError(t, err)

	return &fixture{db: db, node: node, clock: fakeClock, svc: svc, orgID: orgID}
}

func (f *fixture) recordChangeEvents(t *testing.T, n int, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		event := changedomain.ChangeEvent{
			ID:           f.node.Generate(),
			AdAccountID:  f.node.Generate(),
			OrgID:        f.orgID,
			Platform:     platform.PlatformMeta,
			ResourceType: platform.ResourceTypeCampaign,
			ResourceID:   "c1",
			ResourceName: "Spring Sale",
			ChangeType:   changedomain.ChangeTypeUpdated,
			Severity:     changedomain.SeverityInfo,
			DetectedAt:   at,
			CreatedAt:    at,
		}
		require.NoError(t, f.db.Create(&event).Error)
	}
}

func TestCanRecordChangeEventGate(t *testing.T) {
	f := newFixture(t, config.Plan{MaxAdAccounts: 5, MaxSeats: 5, MaxChangeEventsPerMonth: 3})

	now := f.clock.Now()
	f.recordChangeEvents(t, 2, now)

	decision, err := f.svc.CanRecordChangeEvent(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	f.recordChangeEvents(t, 1, now)

	decision, err = f.svc.CanRecordChangeEvent(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.NotEmpty(t, decision.Reason)
}

func TestChangeEventWindowResetsAtMonthStart(t *testing.T) {
	f := newFixture(t, config.Plan{MaxAdAccounts: 5, MaxSeats: 5, MaxChangeEventsPerMonth: 2})

	lastMonth := time.Date(2026, time.February, 27, 9, 0, 0, 0, time.UTC)
	f.recordChangeEvents(t, 5, lastMonth)

	decision, err := f.svc.CanRecordChangeEvent(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "events from a previous month must not count")
}

func TestGetOrganizationUsageReportsFirstExceeded(t *testing.T) {
	f := newFixture(t, config.Plan{MaxAdAccounts: 1, MaxSeats: 1, MaxChangeEventsPerMonth: 1})

	// Exceed both ad accounts and seats; only ad accounts is reported.
	require.NoError(t, f.db.Create(&adaccountdomain.AdAccount{
		ID:                f.node.Generate(),
		OrgID:             f.orgID,
		Platform:          platform.PlatformMeta,
		ExternalAccountID: "act_1",
		Name:              "Primary",
		IsActive:          true,
	}).Error)
	require.NoError(t, f.db.Create(&organizationdomain.OrganizationMember{
		ID:     f.node.Generate(),
		OrgID:  f.orgID,
		UserID: f.node.Generate(),
		Role:   organizationdomain.RoleMember,
	}).Error)

	usage, err := f.svc.GetOrganizationUsage(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.Equal(t, quotadomain.ResourceAdAccounts, usage.LimitExceeded)
	assert.Equal(t, int64(1), usage.AdAccounts.Used)
	assert.Equal(t, int64(2), usage.Seats.Used)
}

func TestTrialFallbackWhenNoSubscription(t *testing.T) {
	f := newFixture(t, config.Plan{MaxAdAccounts: 2, MaxSeats: 2, MaxChangeEventsPerMonth: 10})

	usage, err := f.svc.GetOrganizationUsage(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.Equal(t, config.TrialPlanCode, usage.PlanCode)
}

func TestCanAddAdAccountAndMember(t *testing.T) {
	f := newFixture(t, config.Plan{MaxAdAccounts: 1, MaxSeats: 2, MaxChangeEventsPerMonth: 10})

	decision, err := f.svc.CanAddAdAccount(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	require.NoError(t, f.db.Create(&adaccountdomain.AdAccount{
		ID:                f.node.Generate(),
		OrgID:             f.orgID,
		Platform:          platform.PlatformGoogle,
		ExternalAccountID: "123-456",
		Name:              "Search",
		IsActive:          true,
	}).Error)

	decision, err = f.svc.CanAddAdAccount(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	// Org creation seeds one owner seat.
	decision, err = f.svc.CanAddMember(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
