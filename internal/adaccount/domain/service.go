package domain

import (
	"context"
	"errors"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Service interface {
	// Connect registers an external ad account for monitoring, gated by the
	// organization's plan limit.
	Connect(ctx context.Context, orgID snowflake.ID, req ConnectRequest) (*AdAccount, error)
	GetByID(ctx context.Context, orgID, id snowflake.ID) (*AdAccount, error)
	ListForOrg(ctx context.Context, orgID snowflake.ID) ([]AdAccount, error)
}

type ConnectRequest struct {
	Platform          platform.Platform `json:"platform"`
	ExternalAccountID string            `json:"external_account_id"`
	Name              string            `json:"name"`
	CredentialRef     string            `json:"credential_ref"`
	Metadata          datatypes.JSONMap `json:"metadata"`
}

var (
	ErrInvalidPlatform = errors.New("invalid_platform")
	ErrInvalidAccount  = errors.New("invalid_ad_account")
	ErrAccountExists   = errors.New("ad_account_already_connected")
	ErrAccountNotFound = errors.New("ad_account_not_found")
	ErrQuotaExceeded   = errors.New("ad_account_quota_exceeded")
)
