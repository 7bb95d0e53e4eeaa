package cache

import (
	"strings"
	"time"

	adaccountdomain "github.com/adwatchhq/adwatch/internal/adaccount/domain"
	"github.com/adwatchhq/adwatch/internal/platform"
)

const defaultAccountTTL = 5 * time.Minute

// AccountResolverCache memoizes the (platform, external account id) lookup on
// the inbound webhook path, where every push needs the owning ad account.
type AccountResolverCache interface {
	Get(p platform.Platform, externalAccountID string) (*adaccountdomain.AdAccount, bool)
	Set(p platform.Platform, externalAccountID string, account *adaccountdomain.AdAccount)
	Invalidate(p platform.Platform, externalAccountID string)
}

type accountResolverCache struct {
	accounts Cache[string, *adaccountdomain.AdAccount]
	ttl      time.Duration
}

func NewAccountResolverCache() AccountResolverCache {
	return &accountResolverCache{
		accounts: NewTTLCache[string, *adaccountdomain.AdAccount](),
		ttl:      defaultAccountTTL,
	}
}

func (c *accountResolverCache) Get(p platform.Platform, externalAccountID string) (*adaccountdomain.AdAccount, bool) {
	return c.accounts.Get(cacheKey(string(p), externalAccountID))
}

func (c *accountResolverCache) Set(p platform.Platform, externalAccountID string, account *adaccountdomain.AdAccount) {
	if account == nil {
		return
	}
	c.accounts.Set(cacheKey(string(p), externalAccountID), account, c.ttl)
}

func (c *accountResolverCache) Invalidate(p platform.Platform, externalAccountID string) {
	c.accounts.Delete(cacheKey(string(p), externalAccountID))
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, "|")
}
