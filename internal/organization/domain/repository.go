package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	AddMember(ctx context.Context, member OrganizationMember) error
	FindByID(ctx context.Context, id snowflake.ID) (*Organization, error)
	CountMembers(ctx context.Context, orgID snowflake.ID) (int64, error)
	FindActiveSubscription(ctx context.Context, orgID snowflake.ID) (*Subscription, error)
}
