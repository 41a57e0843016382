package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/ads-dashboard-api/infrastructure/cache"
	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/graphclient"
	clientmocks "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/graphclient/mocks"
	repomocks "github.com/vfg2006/ads-dashboard-api/infrastructure/repository/mocks"
	"github.com/vfg2006/ads-dashboard-api/internal/config"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/realtime"
)

type engineMocks struct {
	client    *clientmocks.MockClient
	accounts  *repomocks.MockAccountRepository
	campaigns *repomocks.MockCampaignRepository
	insights  *repomocks.MockInsightRepository
}

func newTestEngine(t *testing.T) (*Engine, *engineMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	store, err := cache.NewBadgerCache(config.Cache{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mocks := &engineMocks{
		client:    clientmocks.NewMockClient(ctrl),
		accounts:  repomocks.NewMockAccountRepository(ctrl),
		campaigns: repomocks.NewMockCampaignRepository(ctrl),
		insights:  repomocks.NewMockInsightRepository(ctrl),
	}

	ttl := config.Cache{
		AccountsTTL:  time.Minute,
		CampaignsTTL: time.Minute,
		InsightsTTL:  time.Minute,
	}

	engine := NewEngine(
		mocks.client,
		mocks.accounts,
		mocks.campaigns,
		mocks.insights,
		cache.NewDomainCache(store, ttl),
		realtime.NewLogBroadcaster(),
		config.SyncJobs{LookbackDays: 7, MaxConcurrentJobs: 2},
	)

	return engine, mocks
}

func TestSyncAllAccountsCountsPartialFailures(t *testing.T) {
	engine, mocks := newTestEngine(t)
	ctx := context.Background()

	rawAccounts := []graphdomain.RawAdAccount{
		{ID: "act_1", Name: "Alpha", AmountSpent: "10.50"},
		{ID: "act_2", Name: "Beta"},
		{ID: "act_3", Name: "Gamma"},
	}

	mocks.client.EXPECT().GetAdAccounts(ctx).Return(rawAccounts, nil)
	mocks.accounts.EXPECT().SaveOrUpdate(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, account *domain.AdAccount) error {
			if account.ID == "act_2" {
				return errors.New("constraint violation")
			}
			return nil
		}).Times(3)

	result, err := engine.SyncAllAccounts(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Errors)
	assert.False(t, result.Success)
	assert.Equal(t, domain.SyncScopeAccounts, result.SyncType)
	assert.NotEmpty(t, result.RunID)
}

func TestSyncAllAccountsRejectsConcurrentRun(t *testing.T) {
	engine, _ := newTestEngine(t)

	require.NoError(t, engine.tryAcquire(domain.SyncScopeAccounts))
	defer engine.release(domain.SyncScopeAccounts)

	result, err := engine.SyncAllAccounts(context.Background())
	assert.Nil(t, result)

	var busy *domain.ErrSyncAlreadyRunning
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, domain.SyncScopeAccounts, busy.Scope)
}

func TestSyncScopesAreIndependent(t *testing.T) {
	engine, mocks := newTestEngine(t)
	ctx := context.Background()

	// An insights run in flight must not block the accounts scope.
	require.NoError(t, engine.tryAcquire(domain.SyncScopeInsights))
	defer engine.release(domain.SyncScopeInsights)

	mocks.client.EXPECT().GetAdAccounts(ctx).Return(nil, nil)

	result, err := engine.SyncAllAccounts(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)

	status := engine.Status()
	assert.True(t, status.IsRunning)
	assert.Contains(t, status.RunningScopes, domain.SyncScopeInsights)
}

func TestSyncAllCampaignsFansOutOverAccounts(t *testing.T) {
	engine, mocks := newTestEngine(t)
	ctx := context.Background()

	accounts := []*domain.AdAccount{
		{ID: "act_1"},
		{ID: "act_2"},
	}
	mocks.accounts.EXPECT().List(ctx).Return(accounts, nil)

	mocks.client.EXPECT().GetCampaigns(ctx, gomock.Any(), nil, 0).
		DoAndReturn(func(_ context.Context, accountID string, _ []string, _ int) ([]graphdomain.RawCampaign, error) {
			return []graphdomain.RawCampaign{
				{ID: accountID + "-c1", Status: "ACTIVE"},
				{ID: accountID + "-c2", Status: "PAUSED"},
			}, nil
		}).Times(2)

	mocks.campaigns.EXPECT().SaveOrUpdate(ctx, gomock.Any()).Return(nil).Times(4)

	result, err := engine.SyncAllCampaigns(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Processed)
	assert.Zero(t, result.Errors)
	assert.True(t, result.Success)
}

func TestSyncAllCampaignsCountsFetchFailurePerAccount(t *testing.T) {
	engine, mocks := newTestEngine(t)
	ctx := context.Background()

	mocks.accounts.EXPECT().List(ctx).Return([]*domain.AdAccount{
		{ID: "act_1"},
		{ID: "act_2"},
	}, nil)

	mocks.client.EXPECT().GetCampaigns(ctx, gomock.Any(), nil, 0).
		DoAndReturn(func(_ context.Context, accountID string, _ []string, _ int) ([]graphdomain.RawCampaign, error) {
			if accountID == "act_2" {
				return nil, &graphdomain.UpstreamError{Status: 500, Message: "server error"}
			}
			return []graphdomain.RawCampaign{{ID: "c1"}}, nil
		}).Times(2)

	mocks.campaigns.EXPECT().SaveOrUpdate(ctx, gomock.Any()).Return(nil)

	result, err := engine.SyncAllCampaigns(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Errors)
	assert.False(t, result.Success)
}

func TestSyncAllAccountsInsightsUsesDefaultLookback(t *testing.T) {
	engine, mocks := newTestEngine(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return now }
	today := now.Truncate(24 * time.Hour)

	mocks.accounts.EXPECT().List(ctx).Return([]*domain.AdAccount{{ID: "act_1"}}, nil)

	mocks.client.EXPECT().GetAccountInsights(ctx, "act_1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, options *graphclient.InsightOptions) ([]graphdomain.RawInsight, error) {
			assert.Equal(t, today.AddDate(0, 0, -7), options.TimeRange.Since)
			assert.Equal(t, today, options.TimeRange.Until)
			return []graphdomain.RawInsight{{
				DateStart: "2025-06-14", DateStop: "2025-06-14",
				Spend: "12.34", Impressions: "100", Reach: "80",
			}}, nil
		}).Times(2) // account level and campaign level

	mocks.insights.EXPECT().SaveOrUpdate(ctx, gomock.Any()).Return(nil).Times(2)

	result, err := engine.SyncAllAccountsInsights(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.True(t, result.Success)
}

func TestSyncCampaignRefreshesCampaignAndInsights(t *testing.T) {
	engine, mocks := newTestEngine(t)
	ctx := context.Background()

	campaignBody := []byte(`{
		"id": "123",
		"account_id": "1",
		"name": "Launch",
		"status": "ACTIVE",
		"daily_budget": "5000"
	}`)

	mocks.client.EXPECT().Get(ctx, "123", gomock.Any()).Return(campaignBody, nil)

	mocks.campaigns.EXPECT().SaveOrUpdate(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, campaign *domain.Campaign) error {
			assert.Equal(t, "123", campaign.ID)
			assert.Equal(t, "act_1", campaign.AccountID)
			require.NotNil(t, campaign.DailyBudget)
			assert.InDelta(t, 50.0, *campaign.DailyBudget, 0.001)
			return nil
		})

	mocks.client.EXPECT().GetCampaignInsights(ctx, "123", gomock.Any()).
		Return([]graphdomain.RawInsight{{
			CampaignID: "123", DateStart: "2025-06-14", DateStop: "2025-06-14", Spend: "1.00",
		}}, nil)

	mocks.insights.EXPECT().SaveOrUpdate(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, insight *domain.DailyInsight) error {
			assert.Equal(t, domain.EntityTypeCampaign, insight.EntityType)
			assert.Equal(t, "123", insight.EntityID)
			return nil
		})

	require.NoError(t, engine.SyncCampaign(ctx, "123"))
}

func TestSyncSpecificAccountRunsProfileCampaignsInsights(t *testing.T) {
	engine, mocks := newTestEngine(t)
	ctx := context.Background()

	accountBody := []byte(`{"id":"act_9","name":"Niner","account_status":1,"amount_spent":"7.00"}`)

	mocks.client.EXPECT().Get(ctx, "act_9", gomock.Any()).Return(accountBody, nil)
	mocks.accounts.EXPECT().SaveOrUpdate(ctx, gomock.Any()).Return(nil)

	mocks.client.EXPECT().GetCampaigns(ctx, "act_9", nil, 0).
		Return([]graphdomain.RawCampaign{{ID: "c1"}}, nil)
	mocks.campaigns.EXPECT().SaveOrUpdate(ctx, gomock.Any()).Return(nil)

	mocks.client.EXPECT().GetAccountInsights(ctx, "act_9", gomock.Any()).
		Return([]graphdomain.RawInsight{{DateStart: "2025-06-14", DateStop: "2025-06-14"}}, nil).
		Times(2)
	mocks.insights.EXPECT().SaveOrUpdate(ctx, gomock.Any()).Return(nil).Times(2)

	result, err := engine.SyncSpecificAccount(ctx, "9")
	require.NoError(t, err)

	assert.Equal(t, domain.SyncScopeAccount, result.SyncType)
	assert.Equal(t, "act_9", result.AccountID)
	assert.Equal(t, 4, result.Processed) // profile + campaign + 2 insight rows
	assert.True(t, result.Success)
}
