package syncer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/graphclient"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
)

// Dashboard read paths. Each checks the cache first, runs the matching
// fetch-and-store flow on a miss and then serves the store, so a cold
// cache still reaches upstream and a dead upstream still serves stored
// rows.

// ListAccounts backs the account listing endpoint.
func (e *Engine) ListAccounts(ctx context.Context) ([]*domain.AdAccount, bool, error) {
	if accounts, hit := e.cache.GetAccounts(); hit {
		return accounts, true, nil
	}

	if _, err := e.SyncAllAccounts(ctx); err != nil {
		var busy *domain.ErrSyncAlreadyRunning
		if !errors.As(err, &busy) {
			logrus.WithError(err).Warn("syncer: account fetch failed on read, serving stored rows")
		}
	}

	accounts, err := e.accounts.List(ctx)
	if err != nil {
		return nil, false, err
	}

	return accounts, false, nil
}

// ListCampaigns backs the campaign listing endpoint for one account.
func (e *Engine) ListCampaigns(ctx context.Context, accountID string, limit int) ([]*domain.Campaign, bool, error) {
	accountID = normalizeAccountID(accountID)

	if campaigns, hit := e.cache.GetCampaigns(accountID); hit {
		return campaigns, true, nil
	}

	// Fetch failures are already logged per account; the store read
	// below still serves whatever survived.
	e.syncAccountCampaigns(ctx, accountID)

	campaigns, err := e.campaigns.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, false, err
	}

	return campaigns, false, nil
}

// InsightQuery bundles the stored-row filters of one insights read with
// its upstream breakdown projection.
type InsightQuery struct {
	Filters          repository.InsightFilters
	Breakdowns       []string
	ActionBreakdowns []string
}

// Cacheable reports whether the read maps to one canonical cache entry.
// Entity-scoped, limited or broken-down reads bypass the cache to keep
// the key space bounded.
func (q *InsightQuery) Cacheable() bool {
	return q.Filters.EntityID == "" && q.Filters.Limit == 0 &&
		len(q.Breakdowns) == 0 && len(q.ActionBreakdowns) == 0
}

// QueryInsights backs the insights endpoint.
func (e *Engine) QueryInsights(ctx context.Context, query InsightQuery) ([]*domain.DailyInsight, bool, error) {
	query.Filters.AccountID = normalizeAccountID(query.Filters.AccountID)
	filters := query.Filters

	if query.Cacheable() {
		rows, hit := e.cache.GetInsights(
			filters.AccountID, string(filters.EntityType),
			filters.DateStart, filters.DateEnd,
		)
		if hit {
			return rows, true, nil
		}
	}

	e.fetchInsightWindow(ctx, query)

	rows, err := e.insights.Query(ctx, filters)
	if err != nil {
		return nil, false, err
	}

	if query.Cacheable() {
		e.cache.SetInsights(
			filters.AccountID, string(filters.EntityType),
			filters.DateStart, filters.DateEnd, rows,
		)
	}

	return rows, false, nil
}

// fetchInsightWindow pulls the requested window upstream and upserts the
// rows. Failures degrade the read to stored data, they never fail it.
func (e *Engine) fetchInsightWindow(ctx context.Context, query InsightQuery) {
	filters := query.Filters

	timeRange := graphclient.TimeRange{Since: filters.DateStart, Until: filters.DateEnd}
	if timeRange.Since.IsZero() || timeRange.Until.IsZero() {
		timeRange = e.lookbackRange(0)
	}

	rows, err := e.client.GetAccountInsights(ctx, filters.AccountID, &graphclient.InsightOptions{
		TimeRange:        timeRange,
		Level:            string(filters.EntityType),
		Breakdowns:       query.Breakdowns,
		ActionBreakdowns: query.ActionBreakdowns,
	})
	if err != nil {
		logrus.WithError(err).WithField("account_id", filters.AccountID).
			Warn("syncer: insight fetch failed on read, serving stored rows")
		return
	}

	syncedAt := e.now()
	for i := range rows {
		insight := FactoryDailyInsight(&rows[i], filters.EntityType, filters.AccountID, syncedAt)

		if err := e.insights.SaveOrUpdate(ctx, insight); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"entity_type": insight.EntityType,
				"entity_id":   insight.EntityID,
			}).Error("syncer: insight upsert failed on read")
		}
	}
}
