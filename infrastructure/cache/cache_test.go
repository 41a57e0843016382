package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-dashboard-api/internal/config"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
)

func newTestCache(t *testing.T) (*BadgerCache, *DomainCache) {
	t.Helper()

	cfg := config.Cache{
		InMemory:     true,
		AccountsTTL:  time.Hour,
		CampaignsTTL: 30 * time.Minute,
		InsightsTTL:  15 * time.Minute,
	}

	store, err := NewBadgerCache(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, NewDomainCache(store, cfg)
}

func TestBadgerCache_GetSetDelete(t *testing.T) {
	store, _ := newTestCache(t)

	var value string
	hit, err := store.Get("missing", &value)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, store.Set("greeting", "hello", time.Hour))

	hit, err = store.Get("greeting", &value)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "hello", value)

	require.NoError(t, store.Delete("greeting"))

	hit, err = store.Get("greeting", &value)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestBadgerCache_DeletePrefix(t *testing.T) {
	store, _ := newTestCache(t)

	require.NoError(t, store.Set("insights:act_1:campaign:a", 1, time.Hour))
	require.NoError(t, store.Set("insights:act_1:account:b", 2, time.Hour))
	require.NoError(t, store.Set("insights:act_2:campaign:c", 3, time.Hour))

	require.NoError(t, store.DeletePrefix("insights:act_1:"))

	var value int
	hit, err := store.Get("insights:act_1:campaign:a", &value)
	require.NoError(t, err)
	assert.False(t, hit)

	hit, err = store.Get("insights:act_2:campaign:c", &value)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestDomainCache_CampaignsRoundTrip(t *testing.T) {
	_, dc := newTestCache(t)

	campaigns, hit := dc.GetCampaigns("act_1")
	assert.False(t, hit)
	assert.Empty(t, campaigns)

	dc.SetCampaigns("act_1", []*domain.Campaign{
		{ID: "c1", AccountID: "act_1", Name: "Launch"},
		{ID: "c2", AccountID: "act_1", Name: "Retargeting"},
	})

	campaigns, hit = dc.GetCampaigns("act_1")
	assert.True(t, hit)
	require.Len(t, campaigns, 2)
	assert.Equal(t, "c1", campaigns[0].ID)
}

func TestDomainCache_InvalidateAccount(t *testing.T) {
	_, dc := newTestCache(t)

	dateStart := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	dateStop := time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)

	dc.SetAccounts([]*domain.AdAccount{{ID: "act_1"}})
	dc.SetCampaigns("act_1", []*domain.Campaign{{ID: "c1"}})
	dc.SetCampaigns("act_2", []*domain.Campaign{{ID: "c9"}})
	dc.SetInsights("act_1", "campaign", dateStart, dateStop, []*domain.DailyInsight{{EntityID: "c1"}})

	dc.InvalidateAccount("act_1")

	_, hit := dc.GetCampaigns("act_1")
	assert.False(t, hit)

	_, hit = dc.GetInsights("act_1", "campaign", dateStart, dateStop)
	assert.False(t, hit)

	_, hit = dc.GetAccounts()
	assert.False(t, hit)

	// Sibling accounts keep their entries.
	_, hit = dc.GetCampaigns("act_2")
	assert.True(t, hit)
}
