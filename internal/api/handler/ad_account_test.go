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
	"github.com/vfg2006/ads-dashboard-api/pkg/apiErrors"
)

func TestAdAccountListFetchesUpstreamOnColdCache(t *testing.T) {
	fixture := newHandlerFixture(t)

	raw := []graphdomain.RawAdAccount{
		{ID: "act_1", Name: "Alpha", AccountStatus: domain.AdAccountStatusActive},
		{ID: "act_2", Name: "Beta", AccountStatus: domain.AdAccountStatusDisabled},
	}
	stored := []*domain.AdAccount{
		{ID: "act_1", Name: "Alpha", Status: domain.AdAccountStatusActive},
		{ID: "act_2", Name: "Beta", Status: domain.AdAccountStatusDisabled},
	}

	// A cold cache reaches upstream exactly once and stores what it
	// fetched; the second request is a cache hit.
	fixture.client.EXPECT().GetAdAccounts(gomock.Any()).Return(raw, nil).Times(1)
	fixture.accounts.EXPECT().SaveOrUpdate(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	fixture.accounts.EXPECT().List(gomock.Any()).Return(stored, nil).Times(1)

	handler := AdAccountList(fixture.engine)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/accounts", nil))
	require.Equal(t, http.StatusOK, first.Code)

	var firstResponse domain.AdAccountListResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResponse))
	assert.False(t, firstResponse.Cached)
	assert.Equal(t, 2, firstResponse.Total)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/accounts", nil))
	require.Equal(t, http.StatusOK, second.Code)

	var secondResponse domain.AdAccountListResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResponse))
	assert.True(t, secondResponse.Cached)
	assert.Equal(t, 2, secondResponse.Total)
}

func TestAdAccountListServesStoredRowsWhenUpstreamIsDown(t *testing.T) {
	fixture := newHandlerFixture(t)

	stored := []*domain.AdAccount{
		{ID: "act_1", Status: domain.AdAccountStatusActive},
	}

	fixture.client.EXPECT().GetAdAccounts(gomock.Any()).
		Return(nil, &graphdomain.UpstreamError{Status: http.StatusServiceUnavailable, Message: "down"})
	fixture.accounts.EXPECT().List(gomock.Any()).Return(stored, nil)

	recorder := httptest.NewRecorder()
	AdAccountList(fixture.engine).
		ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/accounts", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var response domain.AdAccountListResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.False(t, response.Cached)
	assert.Equal(t, 1, response.Total)
}

func TestAdAccountListFiltersAfterTheRead(t *testing.T) {
	fixture := newHandlerFixture(t)

	fixture.domainCache.SetAccounts([]*domain.AdAccount{
		{ID: "act_1", Status: domain.AdAccountStatusActive},
		{ID: "act_2", Status: domain.AdAccountStatusDisabled},
		{ID: "act_3", Status: domain.AdAccountStatusActive},
	})

	recorder := httptest.NewRecorder()
	AdAccountList(fixture.engine).
		ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/accounts?status=1", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var response domain.AdAccountListResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Total)
	for _, account := range response.Accounts {
		assert.Equal(t, domain.AdAccountStatusActive, account.Status)
	}
}

func TestAdAccountListRejectsMalformedStatus(t *testing.T) {
	fixture := newHandlerFixture(t)

	recorder := httptest.NewRecorder()
	AdAccountList(fixture.engine).
		ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/accounts?status=active", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var apiErr apiErrors.APIError
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &apiErr))
	assert.Equal(t, apiErrors.ErrInvalidFormat, apiErr.Code)
}
