package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	adaccountdomain "github.com/adwatchhq/adwatch/internal/adaccount/domain"
	adaccountrepository "github.com/adwatchhq/adwatch/internal/adaccount/repository"
	"github.com/adwatchhq/adwatch/internal/clock"
	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type detectCall struct {
	accountID    snowflake.ID
	resourceType platform.ResourceType
	states       int
}

type fakeDetector struct {
	mu            sync.Mutex
	detectCalls   []detectCall
	deletionCalls []detectCall
	err           error
}

func (f *fakeDetector) DetectAndRecordChanges(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, resources []platform.ResourceState) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detectCalls = append(f.detectCalls, detectCall{adAccountID, resourceType, len(resources)})
	return 0, f.err
}

func (f *fakeDetector) DetectDeletedResources(ctx context.Context, adAccountID snowflake.ID, resourceType platform.ResourceType, currentResourceIDs []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletionCalls = append(f.deletionCalls, detectCall{adAccountID, resourceType, len(currentResourceIDs)})
	return 0, nil
}

func newPollerFixture(t *testing.T) (*Poller, *fakeDetector, adaccountdomain.Repository, *snowflake.Node, *platform.StubFetcher) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&adaccountdomain.AdAccount{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	stub := platform.NewStubFetcher()
	registry := platform.NewRegistry()
	registry.Register(platform.PlatformMeta, stub)

	detector := &fakeDetector{}
	repo := adaccountrepository.NewRepository(db)

	p, err := New(Params{
		Log:      zap.NewNop(),
		Clock:    clock.NewFakeClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)),
		Accounts: repo,
		Fetchers: registry,
		Detector: detector,
		Config:   Config{AccountBatch: 2},
	})
	require.NoError(t, err)
	return p, detector, repo, node, stub
}

func seedAccount(t *testing.T, repo adaccountdomain.Repository, node *snowflake.Node, p platform.Platform, externalID string, active bool) snowflake.ID {
	t.Helper()
	account := &adaccountdomain.AdAccount{
		ID:                node.Generate(),
		OrgID:             node.Generate(),
		Platform:          p,
		ExternalAccountID: externalID,
		Name:              externalID,
		IsActive:          active,
	}
	require.NoError(t, repo.Create(context.Background(), account))
	return account.ID
}

func TestRunOncePollsEveryResourceType(t *testing.T) {
	p, detector, repo, node, stub := newPollerFixture(t)
	accountID := seedAccount(t, repo, node, platform.PlatformMeta, "act_1", true)

	stub.SetResources("act_1", platform.ResourceTypeCampaign, []platform.ResourceState{
		{"id": "c1", "name": "Spring Sale", "status": "active"},
		{"id": "c2", "name": "Summer Sale", "status": "paused"},
	})

	require.NoError(t, p.RunOnce(context.Background()))

	require.Len(t, detector.detectCalls, len(platform.AllResourceTypes))
	assert.Equal(t, detectCall{accountID, platform.ResourceTypeCampaign, 2}, detector.detectCalls[0])
	assert.Equal(t, detectCall{accountID, platform.ResourceTypeAdSet, 0}, detector.detectCalls[1])

	require.Len(t, detector.deletionCalls, len(platform.AllResourceTypes))
	assert.Equal(t, 2, detector.deletionCalls[0].states, "current campaign ids forwarded")

	account, err := repo.FindByID(context.Background(), accountID)
	require.NoError(t, err)
	require.NotNil(t, account.LastSyncAt)
}

func TestRunOncePagesThroughAccounts(t *testing.T) {
	p, detector, repo, node, _ := newPollerFixture(t)
	for i := 0; i < 5; i++ {
		seedAccount(t, repo, node, platform.PlatformMeta, "act_"+string(rune('a'+i)), true)
	}
	seedAccount(t, repo, node, platform.PlatformMeta, "act_inactive", false)

	require.NoError(t, p.RunOnce(context.Background()))

	seen := make(map[snowflake.ID]bool)
	for _, call := range detector.detectCalls {
		seen[call.accountID] = true
	}
	assert.Len(t, seen, 5, "all active accounts polled, inactive skipped")
}

func TestRunOnceUnsupportedPlatformIsCollected(t *testing.T) {
	p, detector, repo, node, _ := newPollerFixture(t)
	seedAccount(t, repo, node, platform.PlatformTikTok, "tt_1", true)
	seedAccount(t, repo, node, platform.PlatformMeta, "act_1", true)

	err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, platform.ErrUnsupportedPlatform)

	// The meta account is still polled despite the tiktok failure.
	assert.Len(t, detector.detectCalls, len(platform.AllResourceTypes))
}

func TestRunOnceDetectorErrorSkipsDeletionPass(t *testing.T) {
	p, detector, repo, node, _ := newPollerFixture(t)
	seedAccount(t, repo, node, platform.PlatformMeta, "act_1", true)
	detector.err = errors.New("db unavailable")

	err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, detector.deletionCalls)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
