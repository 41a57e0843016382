package cache

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-dashboard-api/internal/config"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
)

// DomainCache wraps the raw Cache with the domain-shaped helpers used by
// the sync engine, the webhook processor and the read handlers. Every
// error is logged and swallowed: cache correctness favors freshness, a
// broken cache must never block a request.
type DomainCache struct {
	store Cache
	ttl   config.Cache
}

func NewDomainCache(store Cache, cfg config.Cache) *DomainCache {
	return &DomainCache{
		store: store,
		ttl:   cfg,
	}
}

func (c *DomainCache) GetAccounts() ([]*domain.AdAccount, bool) {
	accounts := make([]*domain.AdAccount, 0)
	hit, err := c.store.Get(AccountsKey(), &accounts)
	if err != nil {
		logrus.WithError(err).Warn("cache: accounts read failed, falling through")
		return nil, false
	}
	return accounts, hit
}

func (c *DomainCache) SetAccounts(accounts []*domain.AdAccount) {
	if err := c.store.Set(AccountsKey(), accounts, c.ttl.AccountsTTL); err != nil {
		logrus.WithError(err).Warn("cache: accounts write failed")
	}
}

func (c *DomainCache) GetCampaigns(accountID string) ([]*domain.Campaign, bool) {
	campaigns := make([]*domain.Campaign, 0)
	hit, err := c.store.Get(CampaignsKey(accountID), &campaigns)
	if err != nil {
		logrus.WithError(err).WithField("account_id", accountID).
			Warn("cache: campaigns read failed, falling through")
		return nil, false
	}
	return campaigns, hit
}

func (c *DomainCache) SetCampaigns(accountID string, campaigns []*domain.Campaign) {
	if err := c.store.Set(CampaignsKey(accountID), campaigns, c.ttl.CampaignsTTL); err != nil {
		logrus.WithError(err).WithField("account_id", accountID).
			Warn("cache: campaigns write failed")
	}
}

func (c *DomainCache) GetInsights(accountID, level string, dateStart, dateStop time.Time) ([]*domain.DailyInsight, bool) {
	insights := make([]*domain.DailyInsight, 0)
	hit, err := c.store.Get(InsightsKey(accountID, level, dateStart, dateStop), &insights)
	if err != nil {
		logrus.WithError(err).WithField("account_id", accountID).
			Warn("cache: insights read failed, falling through")
		return nil, false
	}
	return insights, hit
}

func (c *DomainCache) SetInsights(accountID, level string, dateStart, dateStop time.Time, insights []*domain.DailyInsight) {
	if err := c.store.Set(InsightsKey(accountID, level, dateStart, dateStop), insights, c.ttl.InsightsTTL); err != nil {
		logrus.WithError(err).WithField("account_id", accountID).
			Warn("cache: insights write failed")
	}
}

// InvalidateAccount drops every key scoped to the account plus the fleet
// account listing. Invoked on webhook changes regardless of TTL.
func (c *DomainCache) InvalidateAccount(accountID string) {
	if err := c.store.Delete(AccountsKey(), AccountKey(accountID), CampaignsKey(accountID)); err != nil {
		logrus.WithError(err).WithField("account_id", accountID).
			Warn("cache: account invalidation failed")
	}
	if err := c.store.DeletePrefix(InsightsPrefix(accountID)); err != nil {
		logrus.WithError(err).WithField("account_id", accountID).
			Warn("cache: insights invalidation failed")
	}
}

func (c *DomainCache) Ping() error {
	return c.store.Ping()
}
