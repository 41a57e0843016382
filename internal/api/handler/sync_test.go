package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
	"github.com/vfg2006/ads-dashboard-api/pkg/apiErrors"
)

func TestTriggerSyncRejectsUnknownType(t *testing.T) {
	fixture := newHandlerFixture(t)

	request := httptest.NewRequest(http.MethodPost, "/v1/sync?type=everything", nil)
	recorder := httptest.NewRecorder()

	TriggerSync(fixture.engine).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var apiErr apiErrors.APIError
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &apiErr))
	assert.Equal(t, apiErrors.ErrInvalidRequest, apiErr.Code)
	assert.Contains(t, recorder.Body.String(), "valid_types")
}

func TestTriggerSyncRequiresType(t *testing.T) {
	fixture := newHandlerFixture(t)

	request := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
	recorder := httptest.NewRecorder()

	TriggerSync(fixture.engine).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestTriggerSyncAccountRequiresAccountID(t *testing.T) {
	fixture := newHandlerFixture(t)

	request := httptest.NewRequest(http.MethodPost, "/v1/sync?type=account", nil)
	recorder := httptest.NewRecorder()

	TriggerSync(fixture.engine).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var apiErr apiErrors.APIError
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &apiErr))
	assert.Equal(t, apiErrors.ErrMissingRequiredData, apiErr.Code)
}

func TestTriggerSyncRunsAccountsScope(t *testing.T) {
	fixture := newHandlerFixture(t)

	fixture.client.EXPECT().GetAdAccounts(gomock.Any()).
		Return([]graphdomain.RawAdAccount{{ID: "act_1", Name: "Alpha"}}, nil)
	fixture.accounts.EXPECT().SaveOrUpdate(gomock.Any(), gomock.Any()).Return(nil)

	body := strings.NewReader(`{"type":"accounts"}`)
	request := httptest.NewRequest(http.MethodPost, "/v1/sync", body)
	recorder := httptest.NewRecorder()

	TriggerSync(fixture.engine).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var result domain.SyncResult
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, domain.SyncScopeAccounts, result.SyncType)
}

func TestTriggerSyncAnswersConflictWhileScopeRuns(t *testing.T) {
	fixture := newHandlerFixture(t)

	started := make(chan struct{})
	release := make(chan struct{})

	fixture.client.EXPECT().GetAdAccounts(gomock.Any()).
		DoAndReturn(func(_ context.Context) ([]graphdomain.RawAdAccount, error) {
			close(started)
			<-release
			return nil, nil
		})

	go func() {
		request := httptest.NewRequest(http.MethodPost, "/v1/sync?type=accounts", nil)
		TriggerSync(fixture.engine).ServeHTTP(httptest.NewRecorder(), request)
	}()

	<-started
	defer close(release)

	request := httptest.NewRequest(http.MethodPost, "/v1/sync?type=accounts", nil)
	recorder := httptest.NewRecorder()

	TriggerSync(fixture.engine).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusConflict, recorder.Code)

	var apiErr apiErrors.APIError
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &apiErr))
	assert.Equal(t, apiErrors.ErrSyncInProgress, apiErr.Code)
}

func TestGetSyncStatusReportsIdleEngine(t *testing.T) {
	fixture := newHandlerFixture(t)

	request := httptest.NewRequest(http.MethodGet, "/v1/sync/status", nil)
	recorder := httptest.NewRecorder()

	GetSyncStatus(fixture.engine, nil).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var status domain.SyncStatus
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &status))
	assert.Equal(t, "idle", status.Status)
	assert.False(t, status.IsRunning)
	assert.Empty(t, status.RunningScopes)
	assert.ElementsMatch(t, domain.ValidSyncScopes, status.AvailableSyncTypes)
}
