package service

import (
	"context"
	"fmt"
	"time"

	adaccountdomain "github.com/adwatchhq/adwatch/internal/adaccount/domain"
	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	"github.com/adwatchhq/adwatch/internal/clock"
	"github.com/adwatchhq/adwatch/internal/config"
	organizationdomain "github.com/adwatchhq/adwatch/internal/organization/domain"
	quotadomain "github.com/adwatchhq/adwatch/internal/quota/domain"
	"github.com/adwatchhq/adwatch/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Plans   *config.PlanCatalogHolder
	OrgSvc  organizationdomain.Service
	OrgRepo organizationdomain.Repository
	Changes changedomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	plans   *config.PlanCatalogHolder
	orgSvc  organizationdomain.Service
	orgRepo organizationdomain.Repository
	changes changedomain.Repository

	accounts repository.Repository[adaccountdomain.AdAccount]
}

func NewService(p ServiceParam) quotadomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("quota.service"),
		clock:    p.Clock,
		plans:    p.Plans,
		orgSvc:   p.OrgSvc,
		orgRepo:  p.OrgRepo,
		changes:  p.Changes,
		accounts: repository.ProvideStore[adaccountdomain.AdAccount](p.DB),
	}
}

func (s *Service) GetOrganizationUsage(ctx context.Context, orgID snowflake.ID) (*quotadomain.OrganizationUsage, error) {
	if orgID == 0 {
		return nil, quotadomain.ErrInvalidOrganization
	}

	planCode, err := s.orgSvc.ActivePlanCode(ctx, orgID)
	if err != nil {
		return nil, err
	}
	plan := s.plans.Resolve(planCode)

	accountCount, err := s.accounts.Count(ctx, &adaccountdomain.AdAccount{OrgID: orgID})
	if err != nil {
		return nil, err
	}

	eventCount, err := s.changes.CountForOrgSince(ctx, orgID, monthStart(s.clock.Now()))
	if err != nil {
		return nil, err
	}

	memberCount, err := s.orgRepo.CountMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}

	usage := &quotadomain.OrganizationUsage{
		PlanCode:     plan.Code,
		AdAccounts:   quotadomain.UsagePair{Used: accountCount, Limit: plan.MaxAdAccounts},
		ChangeEvents: quotadomain.UsagePair{Used: eventCount, Limit: plan.MaxChangeEventsPerMonth},
		Seats:        quotadomain.UsagePair{Used: memberCount, Limit: plan.MaxSeats},
	}

	// Only the first exceeded resource is surfaced.
	switch {
	case usage.AdAccounts.Exceeded():
		usage.LimitExceeded = quotadomain.ResourceAdAccounts
	case usage.ChangeEvents.Exceeded():
		usage.LimitExceeded = quotadomain.ResourceChangeEvents
	case usage.Seats.Exceeded():
		usage.LimitExceeded = quotadomain.ResourceSeats
	}

	return usage, nil
}

func (s *Service) CanRecordChangeEvent(ctx context.Context, orgID snowflake.ID) (quotadomain.Decision, error) {
	usage, err := s.GetOrganizationUsage(ctx, orgID)
	if err != nil {
		return quotadomain.Decision{}, err
	}
	return decide(usage.ChangeEvents, "change events this month", usage.PlanCode), nil
}

func (s *Service) CanAddAdAccount(ctx context.Context, orgID snowflake.ID) (quotadomain.Decision, error) {
	usage, err := s.GetOrganizationUsage(ctx, orgID)
	if err != nil {
		return quotadomain.Decision{}, err
	}
	return decide(usage.AdAccounts, "connected ad accounts", usage.PlanCode), nil
}

func (s *Service) CanAddMember(ctx context.Context, orgID snowflake.ID) (quotadomain.Decision, error) {
	usage, err := s.GetOrganizationUsage(ctx, orgID)
	if err != nil {
		return quotadomain.Decision{}, err
	}
	return decide(usage.Seats, "team seats", usage.PlanCode), nil
}

// decide allows strictly below the limit; reaching it blocks.
func decide(pair quotadomain.UsagePair, label, planCode string) quotadomain.Decision {
	if pair.Used < pair.Limit {
		return quotadomain.Decision{Allowed: true}
	}
	return quotadomain.Decision{
		Allowed: false,
		Reason:  fmt.Sprintf("%s plan allows %d %s, %d used", planCode, pair.Limit, label, pair.Used),
	}
}

func monthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
