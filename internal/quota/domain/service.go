// Package domain defines the quota guard contract: plan-limit resolution and
// usage checks gating new change events, ad accounts and seats.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Resource names a quota-limited dimension.
type Resource string

const (
	ResourceAdAccounts   Resource = "ad_accounts"
	ResourceChangeEvents Resource = "change_events"
	ResourceSeats        Resource = "seats"
)

// UsagePair reports consumption against a plan limit.
type UsagePair struct {
	Used  int64 `json:"used"`
	Limit int64 `json:"limit"`
}

// Exceeded reports Used >= Limit.
func (p UsagePair) Exceeded() bool { return p.Used >= p.Limit }

// OrganizationUsage is the derived usage picture for one organization.
type OrganizationUsage struct {
	PlanCode     string    `json:"plan_code"`
	AdAccounts   UsagePair `json:"ad_accounts"`
	ChangeEvents UsagePair `json:"change_events"`
	Seats        UsagePair `json:"seats"`
	// LimitExceeded names the first exceeded resource in priority order
	// ad-accounts, change-events, seats; empty when all within limits.
	LimitExceeded Resource `json:"limit_exceeded,omitempty"`
}

// Decision is the answer to a single quota check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type Service interface {
	GetOrganizationUsage(ctx context.Context, orgID snowflake.ID) (*OrganizationUsage, error)
	CanRecordChangeEvent(ctx context.Context, orgID snowflake.ID) (Decision, error)
	CanAddAdAccount(ctx context.Context, orgID snowflake.ID) (Decision, error)
	CanAddMember(ctx context.Context, orgID snowflake.ID) (Decision, error)
}

var ErrInvalidOrganization = errors.New("invalid_organization")
