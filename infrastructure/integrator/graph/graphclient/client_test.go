package graphclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/config"
)

func newTestClient(serverURL string) *GraphClient {
	cfg := &config.Config{}
	cfg.Graph = config.Graph{
		URL:            serverURL,
		AccessToken:    "test-token",
		RequestTimeout: 5 * time.Second,
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
	return NewClient(cfg)
}

func TestGraphClient_RetriesTransientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data":[{"id":"act_1","name":"Account One"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	accounts, err := client.GetAdAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	require.Len(t, accounts, 1)
	assert.Equal(t, "act_1", accounts[0].ID)
}

func TestGraphClient_DoesNotRetryTerminalErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Unsupported get request","type":"GraphMethodException","code":100}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetAdAccounts(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	upstreamErr, ok := err.(*graphdomain.UpstreamError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, upstreamErr.Status)
	assert.Equal(t, 100, upstreamErr.Code)
	assert.Equal(t, "Unsupported get request", upstreamErr.Message)
	assert.False(t, upstreamErr.Retryable())
}

func TestGraphClient_RetriesRateLimitResponses(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"User request limit reached","code":17}}`))
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetAdAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestGraphClient_ParsesRetryAfterHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"User request limit reached","code":17}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.retry.MaxAttempts = 1

	_, err := client.GetAdAccounts(context.Background())
	require.Error(t, err)

	upstreamErr, ok := err.(*graphdomain.UpstreamError)
	require.True(t, ok)
	// The server-advertised wait takes precedence over the computed
	// backoff on the next attempt.
	assert.Equal(t, 7*time.Second, upstreamErr.RetryAfter)
}

func TestGraphClient_RecordsUsageHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-App-Usage", `{"call_count":95,"total_time":12,"total_cputime":8}`)
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	// Before any call the client has nothing to report against.
	assert.Equal(t, RateLimitHealthy, client.CheckRateLimit().Status)

	_, err := client.GetAdAccounts(context.Background())
	require.NoError(t, err)

	status := client.CheckRateLimit()
	assert.Equal(t, RateLimitRateLimited, status.Status)
	assert.Equal(t, 95, status.CallCount)
	assert.NotEmpty(t, status.Error)
}

func TestGraphClient_BatchPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"code":200,"body":"{\"id\":\"c1\"}"},
			{"code":404,"body":"{\"error\":{\"message\":\"not found\",\"code\":803}}"},
			{"code":200,"body":"{\"id\":\"c3\"}"}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	results, err := client.BatchRequest(context.Background(), []BatchItem{
		{Method: http.MethodGet, RelativeURL: "c1"},
		{Method: http.MethodGet, RelativeURL: "missing"},
		{Method: http.MethodGet, RelativeURL: "c3"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Succeeded())
	assert.False(t, results[1].Succeeded())
	assert.True(t, results[2].Succeeded())
	assert.Equal(t, http.StatusNotFound, results[1].Err.Status)
	assert.Equal(t, "not found", results[1].Err.Message)
}

func TestGraphClient_InsightOptionsValidation(t *testing.T) {
	now := time.Now()

	valid := &InsightOptions{
		TimeRange: TimeRange{Since: now.AddDate(0, 0, -7), Until: now},
		Level:     "campaign",
	}
	assert.NoError(t, valid.Validate())

	inverted := &InsightOptions{
		TimeRange: TimeRange{Since: now, Until: now.AddDate(0, 0, -7)},
	}
	assert.Error(t, inverted.Validate())

	badLevel := &InsightOptions{
		TimeRange: TimeRange{Since: now.AddDate(0, 0, -1), Until: now},
		Level:     "placement",
	}
	assert.Error(t, badLevel.Validate())
}
