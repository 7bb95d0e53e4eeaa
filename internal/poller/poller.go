// Package poller drives the detection pipeline on a fixed interval: it pages
// through active ad accounts, fetches current resource states per type and
// hands them to the change detector, then runs deletion detection.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	adaccountdomain "github.com/adwatchhq/adwatch/internal/adaccount/domain"
	"github.com/adwatchhq/adwatch/internal/clock"
	detectordomain "github.com/adwatchhq/adwatch/internal/detector/domain"
	"github.com/adwatchhq/adwatch/internal/observability/metrics"
	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/adwatchhq/adwatch/internal/ratelimit"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("poller requires accounts, detector, fetchers and a clock")

const jobName = "detect_changes"

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Accounts adaccountdomain.Repository
	Fetchers *platform.Registry
	Detector detectordomain.Service
	Locker   *ratelimit.Locker `optional:"true"`
	Config   Config            `optional:"true"`
}

type Poller struct {
	log      *zap.Logger
	cfg      Config
	clock    clock.Clock
	accounts adaccountdomain.Repository
	fetchers *platform.Registry
	detector detectordomain.Service
	locker   *ratelimit.Locker
}

func New(p Params) (*Poller, error) {
	if p.Log == nil || p.Clock == nil || p.Accounts == nil || p.Fetchers == nil || p.Detector == nil {
		return nil, ErrInvalidConfig
	}
	return &Poller{
		log:      p.Log.Named("poller"),
		cfg:      p.Config.withDefaults(),
		clock:    p.Clock,
		accounts: p.Accounts,
		fetchers: p.Fetchers,
		detector: p.Detector,
		locker:   p.Locker,
	}, nil
}

// RunOnce polls every active ad account once. Per-account failures are
// collected, not fatal, so one broken integration cannot stall the fleet.
func (p *Poller) RunOnce(ctx context.Context) error {
	m := metrics.Poller()
	m.IncRun(jobName)
	start := time.Now()
	defer func() {
		m.ObserveRunDuration(jobName, time.Since(start))
	}()

	var errs error
	var cursor snowflake.ID

	for {
		accounts, err := p.accounts.ListActive(ctx, cursor, p.cfg.AccountBatch)
		if err != nil {
			return errors.Join(errs, err)
		}
		if len(accounts) == 0 {
			return errs
		}

		for i := range accounts {
			account := accounts[i]
			cursor = account.ID
			if err := p.pollAccount(ctx, &account); err != nil {
				m.IncError(jobName, err)
				errs = errors.Join(errs, fmt.Errorf("account %s: %w", account.ID, err))
			}
		}
	}
}

func (p *Poller) pollAccount(ctx context.Context, account *adaccountdomain.AdAccount) error {
	// The redis lock serializes polls per account across replicas; two
	// overlapping polls would double-record against the same baseline.
	release, ok, err := p.acquireLock(ctx, account)
	if err != nil {
		p.log.Warn("poll lock acquisition failed, proceeding unlocked",
			zap.Int64("ad_account_id", account.ID.Int64()),
			zap.Error(err))
	} else if !ok {
		p.log.Debug("poll already in progress elsewhere, skipping",
			zap.Int64("ad_account_id", account.ID.Int64()))
		metrics.Poller().IncAccountSkipped(string(account.Platform))
		return nil
	}
	metrics.Poller().IncAccountPolled(string(account.Platform))
	if release != nil {
		defer release()
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.JobTimeout)
	defer cancel()

	fetcher, err := p.fetchers.Fetcher(account.Platform)
	if err != nil {
		return err
	}

	var errs error
	for _, resourceType := range platform.AllResourceTypes {
		states, err := fetcher.FetchResources(ctx, account.ExternalAccountID, resourceType)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("fetch %s: %w", resourceType, err))
			continue
		}

		if _, err := p.detector.DetectAndRecordChanges(ctx, account.ID, resourceType, states); err != nil {
			errs = errors.Join(errs, fmt.Errorf("detect %s: %w", resourceType, err))
			continue
		}

		currentIDs := make([]string, 0, len(states))
		for _, state := range states {
			if id := state.ID(); id != "" {
				currentIDs = append(currentIDs, id)
			}
		}
		if _, err := p.detector.DetectDeletedResources(ctx, account.ID, resourceType, currentIDs); err != nil {
			errs = errors.Join(errs, fmt.Errorf("detect deletions %s: %w", resourceType, err))
		}
	}

	if errs == nil {
		if err := p.accounts.TouchLastSync(ctx, account.ID, p.clock.Now()); err != nil {
			p.log.Warn("failed to update last sync time",
				zap.Int64("ad_account_id", account.ID.Int64()),
				zap.Error(err))
		}
	}
	return errs
}

func (p *Poller) acquireLock(ctx context.Context, account *adaccountdomain.AdAccount) (func(), bool, error) {
	if p.locker == nil {
		return nil, true, nil
	}

	key := fmt.Sprintf("poll:account:%s", account.ID)
	token, ok, err := p.locker.TryLock(ctx, key, p.cfg.LockTTL)
	if err != nil || !ok {
		return nil, ok, err
	}
	return func() {
		if err := p.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			p.log.Warn("failed to release poll lock", zap.String("key", key), zap.Error(err))
		}
	}, true, nil
}

// RunForever ticks until the context is canceled.
func (p *Poller) RunForever(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		tick := time.Now()
		if err := p.RunOnce(ctx); err != nil {
			p.log.Warn("poll run failed", zap.Error(err))
		}
		if overrun := time.Since(tick) - p.cfg.Interval; overrun > 0 {
			metrics.Poller().ObserveRunLoopLag(overrun)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
