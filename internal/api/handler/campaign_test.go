package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
)

func TestCampaignListFetchesUpstreamOnColdCache(t *testing.T) {
	fixture := newHandlerFixture(t)

	raw := []graphdomain.RawCampaign{
		{ID: "c1", Name: "Launch", Status: "ACTIVE", EffectiveStatus: "ACTIVE"},
	}
	stored := []*domain.Campaign{
		{ID: "c1", AccountID: "act_1", Name: "Launch", EffectiveStatus: "ACTIVE"},
	}

	// The miss path fetches upstream, upserts and serves the store.
	fixture.client.EXPECT().GetCampaigns(gomock.Any(), "act_1", nil, 0).Return(raw, nil).Times(1)
	fixture.campaigns.EXPECT().SaveOrUpdate(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	fixture.campaigns.EXPECT().ListByAccount(gomock.Any(), "act_1", 0).Return(stored, nil).Times(1)

	handler := CampaignList(fixture.engine)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/campaigns?account_id=act_1", nil))
	require.Equal(t, http.StatusOK, first.Code)

	var firstResponse domain.CampaignListResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResponse))
	assert.False(t, firstResponse.Cached)
	assert.Equal(t, 1, firstResponse.Total)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/campaigns?account_id=act_1", nil))
	require.Equal(t, http.StatusOK, second.Code)

	var secondResponse domain.CampaignListResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResponse))
	assert.True(t, secondResponse.Cached)
	assert.Equal(t, 1, secondResponse.Total)
}

func TestCampaignListFiltersAfterTheRead(t *testing.T) {
	fixture := newHandlerFixture(t)

	fixture.domainCache.SetCampaigns("act_1", []*domain.Campaign{
		{ID: "c1", EffectiveStatus: "ACTIVE", Objective: "OUTCOME_SALES"},
		{ID: "c2", EffectiveStatus: "PAUSED", Objective: "OUTCOME_SALES"},
		{ID: "c3", EffectiveStatus: "ACTIVE", Objective: "OUTCOME_TRAFFIC"},
	})

	recorder := httptest.NewRecorder()
	CampaignList(fixture.engine).ServeHTTP(recorder, httptest.NewRequest(
		http.MethodGet, "/v1/campaigns?account_id=act_1&status=ACTIVE&objective=OUTCOME_SALES", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var response domain.CampaignListResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Equal(t, 1, response.Total)
	assert.Equal(t, "c1", response.Campaigns[0].ID)
}
