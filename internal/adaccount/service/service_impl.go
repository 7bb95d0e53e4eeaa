package service

import (
	"context"
	"errors"
	"strings"

	"github.com/adwatchhq/adwatch/internal/adaccount/domain"
	"github.com/adwatchhq/adwatch/internal/clock"
	quotadomain "github.com/adwatchhq/adwatch/internal/quota/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock
	Node  *snowflake.Node
	Repo  domain.Repository
	Quota quotadomain.Service
}

type service struct {
	log   *zap.Logger
	clock clock.Clock
	node  *snowflake.Node
	repo  domain.Repository
	quota quotadomain.Service
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		log:   p.Log,
		clock: p.Clock,
		node:  p.Node,
		repo:  p.Repo,
		quota: p.Quota,
	}
}

func (s *service) Connect(ctx context.Context, orgID snowflake.ID, req domain.ConnectRequest) (*domain.AdAccount, error) {
	if orgID == 0 {
		return nil, quotadomain.ErrInvalidOrganization
	}
	if !req.Platform.Valid() {
		return nil, domain.ErrInvalidPlatform
	}
	externalID := strings.TrimSpace(req.ExternalAccountID)
	name := strings.TrimSpace(req.Name)
	if externalID == "" || name == "" {
		return nil, domain.ErrInvalidAccount
	}

	decision, err := s.quota.CanAddAdAccount(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, errors.Join(domain.ErrQuotaExceeded, errors.New(decision.Reason))
	}

	existing, err := s.repo.FindByExternalID(ctx, req.Platform, externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAccountExists
	}

	account := &domain.AdAccount{
		ID:                s.node.Generate(),
		OrgID:             orgID,
		Platform:          req.Platform,
		ExternalAccountID: externalID,
		Name:              name,
		CredentialRef:     strings.TrimSpace(req.CredentialRef),
		IsActive:          true,
		Metadata:          req.Metadata,
		CreatedAt:         s.clock.Now(),
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info("ad account connected",
		zap.Int64("org_id", orgID.Int64()),
		zap.String("platform", string(req.Platform)),
		zap.String("external_account_id", externalID))
	return account, nil
}

func (s *service) GetByID(ctx context.Context, orgID, id snowflake.ID) (*domain.AdAccount, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil || account.OrgID != orgID {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *service) ListForOrg(ctx context.Context, orgID snowflake.ID) ([]domain.AdAccount, error) {
	return s.repo.ListForOrg(ctx, orgID)
}
