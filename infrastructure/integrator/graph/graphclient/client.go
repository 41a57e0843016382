package graphclient

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/config"
	"golang.org/x/time/rate"
)

// Client is the single point of contact with the rate-limited graph API.
type Client interface {
	GetAdAccounts(ctx context.Context) ([]graphdomain.RawAdAccount, error)
	GetCampaigns(ctx context.Context, accountID string, fields []string, limit int) ([]graphdomain.RawCampaign, error)
	GetAccountInsights(ctx context.Context, accountID string, options *InsightOptions) ([]graphdomain.RawInsight, error)
	GetCampaignInsights(ctx context.Context, campaignID string, options *InsightOptions) ([]graphdomain.RawInsight, error)
	Get(ctx context.Context, path string, params url.Values) ([]byte, error)
	Post(ctx context.Context, path string, body any) ([]byte, error)
	Delete(ctx context.Context, path string) ([]byte, error)
	BatchRequest(ctx context.Context, requests []BatchItem) ([]BatchResult, error)
	CheckRateLimit() RateLimitStatus
}

// GraphClient implements Client over plain HTTP with a client-side rate
// limiter, a circuit breaker and retry with exponential backoff.
type GraphClient struct {
	Cfg        *config.Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	retry      RetryPolicy

	usageMutex sync.Mutex
	lastUsage  *appUsage
}

func NewClient(cfg *config.Config) *GraphClient {
	settings := gobreaker.Settings{
		Name:    "graph-api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// A terminal 4xx is a valid upstream answer, not a sign
			// that the upstream is down.
			if upstreamErr, ok := err.(*graphdomain.UpstreamError); ok {
				return !upstreamErr.Retryable()
			}
			return false
		},
	}

	return &GraphClient{
		Cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Graph.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.Graph.RateLimitRPS), cfg.Graph.RateLimitBurst),
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		retry: RetryPolicy{
			MaxAttempts: cfg.Graph.MaxAttempts,
			BaseDelay:   cfg.Graph.RetryBaseDelay,
			MaxDelay:    30 * time.Second,
		},
	}
}
