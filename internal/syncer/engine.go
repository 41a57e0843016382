package syncer

import (
	"context"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/cache"
	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/graphclient"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/ads-dashboard-api/internal/config"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/realtime"
)

// accountProfileFields is the projection fetched on a targeted account
// refresh.
var accountProfileFields = "id,account_id,name,account_status,currency," +
	"timezone_name,business,amount_spent,balance,spend_cap,capabilities,created_time"

// campaignProfileFields mirrors graphclient.DefaultCampaignFields for a
// single-node fetch.
var campaignProfileFields = "id,account_id,name,objective,status," +
	"configured_status,effective_status,daily_budget,lifetime_budget," +
	"budget_remaining,bid_strategy,optimization_goal,spend_cap," +
	"start_time,stop_time,issues_info,created_time,updated_time"

// Engine coordinates upstream fetches, database upserts and cache
// write-through for every sync flavor. Each scope is single flight: a
// request for a scope that is already running is rejected, never queued.
type Engine struct {
	client      graphclient.Client
	accounts    repository.AccountRepository
	campaigns   repository.CampaignRepository
	insights    repository.InsightRepository
	cache       *cache.DomainCache
	broadcaster realtime.Broadcaster
	jobs        config.SyncJobs

	mutex   sync.Mutex
	running map[domain.SyncScope]bool
	lastRun map[domain.SyncScope]time.Time

	now func() time.Time
}

func NewEngine(
	client graphclient.Client,
	accounts repository.AccountRepository,
	campaigns repository.CampaignRepository,
	insights repository.InsightRepository,
	domainCache *cache.DomainCache,
	broadcaster realtime.Broadcaster,
	jobs config.SyncJobs,
) *Engine {
	return &Engine{
		client:      client,
		accounts:    accounts,
		campaigns:   campaigns,
		insights:    insights,
		cache:       domainCache,
		broadcaster: broadcaster,
		jobs:        jobs,
		running:     make(map[domain.SyncScope]bool),
		lastRun:     make(map[domain.SyncScope]time.Time),
		now:         time.Now,
	}
}

// tryAcquire claims the scope lock or reports the scope as busy. The
// caller must release with the same scope.
func (e *Engine) tryAcquire(scope domain.SyncScope) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.running[scope] {
		return &domain.ErrSyncAlreadyRunning{Scope: scope}
	}

	e.running[scope] = true
	return nil
}

func (e *Engine) release(scope domain.SyncScope) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	delete(e.running, scope)
	e.lastRun[scope] = e.now()
}

// Status reports the scopes currently running and when each scope last
// finished. Scheduled job timings are appended by the scheduler.
func (e *Engine) Status() domain.SyncStatus {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	status := domain.SyncStatus{
		LastRun: make(map[domain.SyncScope]time.Time, len(e.lastRun)),
	}
	for scope := range e.running {
		status.RunningScopes = append(status.RunningScopes, scope)
	}
	for scope, at := range e.lastRun {
		status.LastRun[scope] = at
	}
	status.IsRunning = len(status.RunningScopes) > 0
	status.Status = "idle"
	if status.IsRunning {
		status.Status = "running"
	}
	status.AvailableSyncTypes = domain.ValidSyncScopes

	return status
}

// SyncAllAccounts refreshes every ad account visible to the configured
// token. A failing account is counted and skipped, never aborts the run.
func (e *Engine) SyncAllAccounts(ctx context.Context) (*domain.SyncResult, error) {
	if err := e.tryAcquire(domain.SyncScopeAccounts); err != nil {
		return nil, err
	}
	defer e.release(domain.SyncScopeAccounts)

	result := e.newResult(domain.SyncScopeAccounts, "")

	rawAccounts, err := e.client.GetAdAccounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "syncer: fetching ad accounts")
	}

	syncedAt := e.now()
	saved := make([]*domain.AdAccount, 0, len(rawAccounts))

	for i := range rawAccounts {
		account := FactoryAdAccount(&rawAccounts[i], syncedAt)

		if err := e.accounts.SaveOrUpdate(ctx, account); err != nil {
			logrus.WithError(err).WithField("account_id", account.ID).
				Error("syncer: account upsert failed")
			result.Errors++
			continue
		}

		result.Processed++
		saved = append(saved, account)
	}

	e.cache.SetAccounts(saved)

	return e.finish(result), nil
}

// SyncAllCampaigns refreshes the campaigns of every known account, up to
// MaxConcurrentJobs accounts in flight at once.
func (e *Engine) SyncAllCampaigns(ctx context.Context) (*domain.SyncResult, error) {
	if err := e.tryAcquire(domain.SyncScopeCampaigns); err != nil {
		return nil, err
	}
	defer e.release(domain.SyncScopeCampaigns)

	result := e.newResult(domain.SyncScopeCampaigns, "")

	accounts, err := e.accounts.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "syncer: listing accounts for campaign sync")
	}

	e.forEachAccount(ctx, accounts, result, func(ctx context.Context, account *domain.AdAccount) (int, int) {
		return e.syncAccountCampaigns(ctx, account.ID)
	})

	return e.finish(result), nil
}

// SyncAllAccountsInsights refreshes daily insight rows for every account
// over the lookback window. days <= 0 falls back to the configured
// lookback.
func (e *Engine) SyncAllAccountsInsights(ctx context.Context, days int) (*domain.SyncResult, error) {
	if err := e.tryAcquire(domain.SyncScopeInsights); err != nil {
		return nil, err
	}
	defer e.release(domain.SyncScopeInsights)

	result := e.newResult(domain.SyncScopeInsights, "")

	accounts, err := e.accounts.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "syncer: listing accounts for insight sync")
	}

	timeRange := e.lookbackRange(days)

	e.forEachAccount(ctx, accounts, result, func(ctx context.Context, account *domain.AdAccount) (int, int) {
		return e.syncAccountInsights(ctx, account.ID, timeRange)
	})

	return e.finish(result), nil
}

// SyncSpecificAccount refreshes one account end to end: profile first,
// then campaigns, then the insight window. The lock is per account, two
// different accounts may refresh concurrently.
func (e *Engine) SyncSpecificAccount(ctx context.Context, accountID string) (*domain.SyncResult, error) {
	accountID = normalizeAccountID(accountID)

	scope := domain.SyncScope("account:" + accountID)
	if err := e.tryAcquire(scope); err != nil {
		return nil, err
	}
	defer e.release(scope)

	result := e.newResult(domain.SyncScopeAccount, accountID)

	if err := e.syncAccountProfile(ctx, accountID); err != nil {
		return nil, err
	}
	result.Processed++

	processed, failed := e.syncAccountCampaigns(ctx, accountID)
	result.Processed += processed
	result.Errors += failed

	processed, failed = e.syncAccountInsights(ctx, accountID, e.lookbackRange(0))
	result.Processed += processed
	result.Errors += failed

	e.cache.InvalidateAccount(accountID)

	return e.finish(result), nil
}

// SyncCampaign point-refreshes a single campaign and its recent insight
// rows. Used by the webhook processor when a significant field changed.
func (e *Engine) SyncCampaign(ctx context.Context, campaignID string) error {
	body, err := e.client.Get(ctx, campaignID, fieldsParam(campaignProfileFields))
	if err != nil {
		return errors.Wrapf(err, "syncer: fetching campaign %s", campaignID)
	}

	var raw graphdomain.RawCampaign
	if err := unmarshalNode(body, &raw); err != nil {
		return errors.Wrapf(err, "syncer: decoding campaign %s", campaignID)
	}

	campaign := FactoryCampaign(&raw, raw.AccountID, e.now())
	if err := e.campaigns.SaveOrUpdate(ctx, campaign); err != nil {
		return errors.Wrapf(err, "syncer: upserting campaign %s", campaignID)
	}

	timeRange := e.lookbackRange(0)
	rows, err := e.client.GetCampaignInsights(ctx, campaignID, &graphclient.InsightOptions{
		TimeRange: timeRange,
		Level:     string(domain.EntityTypeCampaign),
	})
	if err != nil {
		return errors.Wrapf(err, "syncer: fetching insights for campaign %s", campaignID)
	}

	syncedAt := e.now()
	for i := range rows {
		insight := FactoryDailyInsight(&rows[i], domain.EntityTypeCampaign, campaign.AccountID, syncedAt)
		if err := e.insights.SaveOrUpdate(ctx, insight); err != nil {
			return errors.Wrapf(err, "syncer: upserting insight for campaign %s", campaignID)
		}
	}

	e.cache.InvalidateAccount(campaign.AccountID)

	return nil
}

// forEachAccount fans the per-account worker out over the fleet with at
// most MaxConcurrentJobs in flight, folding counters into result.
func (e *Engine) forEachAccount(
	ctx context.Context,
	accounts []*domain.AdAccount,
	result *domain.SyncResult,
	work func(ctx context.Context, account *domain.AdAccount) (int, int),
) {
	concurrency := e.jobs.MaxConcurrentJobs
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		wg        sync.WaitGroup
		counters  sync.Mutex
		semaphore = make(chan struct{}, concurrency)
	)

	for _, account := range accounts {
		account := account

		wg.Add(1)
		semaphore <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			processed, failed := work(ctx, account)

			counters.Lock()
			result.Processed += processed
			result.Errors += failed
			counters.Unlock()
		}()
	}

	wg.Wait()
}

func (e *Engine) syncAccountProfile(ctx context.Context, accountID string) error {
	body, err := e.client.Get(ctx, accountID, fieldsParam(accountProfileFields))
	if err != nil {
		return errors.Wrapf(err, "syncer: fetching account %s", accountID)
	}

	var raw graphdomain.RawAdAccount
	if err := unmarshalNode(body, &raw); err != nil {
		return errors.Wrapf(err, "syncer: decoding account %s", accountID)
	}

	account := FactoryAdAccount(&raw, e.now())
	if err := e.accounts.SaveOrUpdate(ctx, account); err != nil {
		return errors.Wrapf(err, "syncer: upserting account %s", accountID)
	}

	return nil
}

// syncAccountCampaigns returns (processed, errors) for one account. A
// failed upstream fetch counts as a single error for the whole account.
func (e *Engine) syncAccountCampaigns(ctx context.Context, accountID string) (int, int) {
	rawCampaigns, err := e.client.GetCampaigns(ctx, accountID, nil, 0)
	if err != nil {
		logrus.WithError(err).WithField("account_id", accountID).
			Error("syncer: campaign fetch failed")
		return 0, 1
	}

	syncedAt := e.now()
	processed, failed := 0, 0
	saved := make([]*domain.Campaign, 0, len(rawCampaigns))

	for i := range rawCampaigns {
		campaign := FactoryCampaign(&rawCampaigns[i], accountID, syncedAt)

		if err := e.campaigns.SaveOrUpdate(ctx, campaign); err != nil {
			logrus.WithError(err).WithField("campaign_id", campaign.ID).
				Error("syncer: campaign upsert failed")
			failed++
			continue
		}

		processed++
		saved = append(saved, campaign)
	}

	e.cache.SetCampaigns(accountID, saved)

	return processed, failed
}

// syncAccountInsights pulls both the account-level and campaign-level
// daily rows of one account over the window.
func (e *Engine) syncAccountInsights(ctx context.Context, accountID string, timeRange graphclient.TimeRange) (int, int) {
	processed, failed := 0, 0

	for _, level := range []domain.EntityType{domain.EntityTypeAccount, domain.EntityTypeCampaign} {
		rows, err := e.client.GetAccountInsights(ctx, accountID, &graphclient.InsightOptions{
			TimeRange: timeRange,
			Level:     string(level),
		})
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"account_id": accountID,
				"level":      level,
			}).Error("syncer: insights fetch failed")
			failed++
			continue
		}

		syncedAt := e.now()
		for i := range rows {
			insight := FactoryDailyInsight(&rows[i], level, accountID, syncedAt)

			if err := e.insights.SaveOrUpdate(ctx, insight); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"entity_type": insight.EntityType,
					"entity_id":   insight.EntityID,
					"date_start":  insight.DateStart,
				}).Error("syncer: insight upsert failed")
				failed++
				continue
			}

			processed++
		}
	}

	return processed, failed
}

// lookbackRange builds the inclusive [today-days, today] window. days
// <= 0 uses the configured lookback, itself defaulting to a week.
func (e *Engine) lookbackRange(days int) graphclient.TimeRange {
	if days <= 0 {
		days = e.jobs.LookbackDays
	}
	if days <= 0 {
		days = 7
	}

	today := e.now().Truncate(24 * time.Hour)

	return graphclient.TimeRange{
		Since: today.AddDate(0, 0, -days),
		Until: today,
	}
}

func (e *Engine) newResult(scope domain.SyncScope, accountID string) *domain.SyncResult {
	runID, err := gonanoid.New()
	if err != nil {
		runID = "unknown"
	}

	return &domain.SyncResult{
		RunID:     runID,
		SyncType:  scope,
		AccountID: accountID,
	}
}

// finish stamps and publishes the run outcome.
func (e *Engine) finish(result *domain.SyncResult) *domain.SyncResult {
	result.Success = result.Errors == 0
	result.Timestamp = e.now()

	logrus.WithFields(logrus.Fields{
		"run_id":    result.RunID,
		"sync_type": result.SyncType,
		"processed": result.Processed,
		"errors":    result.Errors,
		"success":   result.Success,
	}).Info("syncer: run finished")

	e.broadcaster.Broadcast("sync.completed", result)

	return result
}
