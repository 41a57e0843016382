package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/graphclient"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
	"github.com/vfg2006/ads-dashboard-api/pkg/apiErrors"
)

func TestInsightListFetchesUpstreamOnColdCache(t *testing.T) {
	fixture := newHandlerFixture(t)

	raw := []graphdomain.RawInsight{{
		AccountID:   "act_1",
		Spend:       "12.5",
		Impressions: "100",
		DateStart:   "2024-05-01",
		DateStop:    "2024-05-01",
	}}
	stored := []*domain.DailyInsight{{
		EntityType:  domain.EntityTypeAccount,
		EntityID:    "act_1",
		AccountID:   "act_1",
		Spend:       12.5,
		Impressions: 100,
	}}

	// A cold cache and an unsynced store still answer with upstream
	// data: the window is fetched, upserted, cached and served.
	fixture.client.EXPECT().GetAccountInsights(gomock.Any(), "act_1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, options *graphclient.InsightOptions) ([]graphdomain.RawInsight, error) {
			assert.Equal(t, "account", options.Level)
			assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), options.TimeRange.Since)
			assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), options.TimeRange.Until)
			return raw, nil
		}).Times(1)
	fixture.insights.EXPECT().SaveOrUpdate(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	fixture.insights.EXPECT().Query(gomock.Any(), gomock.Any()).Return(stored, nil).Times(1)

	handler := InsightList(fixture.engine)
	target := "/v1/insights?account_id=act_1&date_start=2024-05-01&date_end=2024-05-07"

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, first.Code)

	var firstResponse domain.InsightListResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResponse))
	assert.False(t, firstResponse.Cached)
	assert.Equal(t, 1, firstResponse.Total)
	assert.InDelta(t, 12.5, firstResponse.Summary.TotalSpend, 0.001)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, second.Code)

	var secondResponse domain.InsightListResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResponse))
	assert.True(t, secondResponse.Cached)
	assert.Equal(t, 1, secondResponse.Total)
}

func TestInsightListForwardsBreakdownsUpstream(t *testing.T) {
	fixture := newHandlerFixture(t)

	fixture.client.EXPECT().GetAccountInsights(gomock.Any(), "act_1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, options *graphclient.InsightOptions) ([]graphdomain.RawInsight, error) {
			assert.Equal(t, []string{"age", "gender"}, options.Breakdowns)
			assert.Equal(t, []string{"action_type"}, options.ActionBreakdowns)
			return nil, nil
		})
	fixture.insights.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, nil)

	target := "/v1/insights?account_id=act_1&date_start=2024-05-01&date_end=2024-05-07" +
		"&breakdowns=age,gender&action_breakdowns=action_type"

	recorder := httptest.NewRecorder()
	InsightList(fixture.engine).
		ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	// Broken-down reads never populate the canonical cache entry.
	var response domain.InsightListResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.False(t, response.Cached)
}

func TestInsightListAcceptsSinceUntilAliases(t *testing.T) {
	fixture := newHandlerFixture(t)

	fixture.client.EXPECT().GetAccountInsights(gomock.Any(), "act_1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, options *graphclient.InsightOptions) ([]graphdomain.RawInsight, error) {
			assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), options.TimeRange.Since)
			return nil, nil
		})
	fixture.insights.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, nil)

	recorder := httptest.NewRecorder()
	InsightList(fixture.engine).ServeHTTP(recorder, httptest.NewRequest(
		http.MethodGet, "/v1/insights?account_id=act_1&since=2024-05-01&until=2024-05-07", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestInsightListRejectsMalformedDate(t *testing.T) {
	fixture := newHandlerFixture(t)

	recorder := httptest.NewRecorder()
	InsightList(fixture.engine).ServeHTTP(recorder, httptest.NewRequest(
		http.MethodGet, "/v1/insights?account_id=act_1&date_start=05-01-2024", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var apiErr apiErrors.APIError
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &apiErr))
	assert.Equal(t, apiErrors.ErrInvalidFormat, apiErr.Code)
}
