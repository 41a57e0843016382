package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/ads-dashboard-api/infrastructure/cache"
	repomocks "github.com/vfg2006/ads-dashboard-api/infrastructure/repository/mocks"
	"github.com/vfg2006/ads-dashboard-api/internal/config"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
)

type stubRefresher struct {
	syncedCampaigns []string
	syncedAccounts  []string
	campaignErr     error
	accountErr      error
}

func (s *stubRefresher) SyncCampaign(_ context.Context, campaignID string) error {
	s.syncedCampaigns = append(s.syncedCampaigns, campaignID)
	return s.campaignErr
}

func (s *stubRefresher) SyncSpecificAccount(_ context.Context, accountID string) (*domain.SyncResult, error) {
	s.syncedAccounts = append(s.syncedAccounts, accountID)
	if s.accountErr != nil {
		return nil, s.accountErr
	}
	return &domain.SyncResult{Success: true}, nil
}

func newTestProcessor(t *testing.T) (*Processor, *stubRefresher, *repomocks.MockCampaignRepository) {
	t.Helper()

	store, err := cache.NewBadgerCache(config.Cache{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	refresher := &stubRefresher{}
	campaigns := repomocks.NewMockCampaignRepository(gomock.NewController(t))

	cfg := config.Webhook{
		VerifyToken: "verify-me",
		AppSecret:   "top-secret",
	}

	domainCache := cache.NewDomainCache(store, config.Cache{
		AccountsTTL:  time.Minute,
		CampaignsTTL: time.Minute,
		InsightsTTL:  time.Minute,
	})

	return NewProcessor(cfg, refresher, domainCache, campaigns), refresher, campaigns
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySubscription(t *testing.T) {
	processor, _, _ := newTestProcessor(t)

	challenge, err := processor.VerifySubscription("subscribe", "verify-me", "12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", challenge)

	_, err = processor.VerifySubscription("subscribe", "wrong-token", "12345")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = processor.VerifySubscription("unsubscribe", "verify-me", "12345")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifySignature(t *testing.T) {
	processor, _, _ := newTestProcessor(t)
	body := []byte(`{"object":"campaign","entry":[]}`)

	assert.NoError(t, processor.VerifySignature(body, sign("top-secret", body)))

	assert.ErrorIs(t, processor.VerifySignature(body, ""), ErrMissingSignature)
	assert.ErrorIs(t, processor.VerifySignature(body, sign("wrong-secret", body)), ErrInvalidSignature)
	assert.ErrorIs(t, processor.VerifySignature(body, "sha256=zz-not-hex"), ErrInvalidSignature)
	assert.ErrorIs(t, processor.VerifySignature(body, "md5=abcdef"), ErrInvalidSignature)

	// Tampering with a single byte must break verification.
	signature := sign("top-secret", body)
	tampered := append([]byte{}, body...)
	tampered[0] = '['
	assert.ErrorIs(t, processor.VerifySignature(tampered, signature), ErrInvalidSignature)
}

func TestProcessCampaignChangeTriggersPointRefresh(t *testing.T) {
	processor, refresher, campaigns := newTestProcessor(t)

	campaigns.EXPECT().GetByID(gomock.Any(), "c1").
		Return(&domain.Campaign{ID: "c1", AccountID: "act_1"}, nil)

	payload := &domain.WebhookPayload{
		Object: domain.WebhookObjectCampaign,
		Entry: []domain.WebhookEntry{{
			ID: "c1",
			Changes: []domain.WebhookChange{
				{Field: "daily_budget", Value: json.RawMessage(`{"new_value":"5000"}`)},
			},
		}},
	}

	processed, failed := processor.Process(context.Background(), payload)

	assert.Equal(t, 1, processed)
	assert.Zero(t, failed)
	assert.Equal(t, []string{"c1"}, refresher.syncedCampaigns)
}

func TestProcessInsignificantChangeSkipsRefresh(t *testing.T) {
	processor, refresher, campaigns := newTestProcessor(t)

	campaigns.EXPECT().GetByID(gomock.Any(), "c1").
		Return(&domain.Campaign{ID: "c1", AccountID: "act_1"}, nil)

	payload := &domain.WebhookPayload{
		Object: domain.WebhookObjectCampaign,
		Entry: []domain.WebhookEntry{{
			ID: "c1",
			Changes: []domain.WebhookChange{
				{Field: "name", Value: json.RawMessage(`{"new_value":"Renamed"}`)},
			},
		}},
	}

	processed, failed := processor.Process(context.Background(), payload)

	assert.Equal(t, 1, processed)
	assert.Zero(t, failed)
	assert.Empty(t, refresher.syncedCampaigns)
}

func TestProcessIsolatesEntryFailures(t *testing.T) {
	processor, refresher, campaigns := newTestProcessor(t)
	refresher.campaignErr = errors.New("upstream down")

	campaigns.EXPECT().GetByID(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("not found")).Times(2)

	payload := &domain.WebhookPayload{
		Object: domain.WebhookObjectCampaign,
		Entry: []domain.WebhookEntry{
			{ID: "c1", Changes: []domain.WebhookChange{{Field: "status"}}},
			{ID: "c2", Changes: []domain.WebhookChange{{Field: "name"}}},
		},
	}

	processed, failed := processor.Process(context.Background(), payload)

	// c1's refresh fails, c2 has nothing significant and succeeds.
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, failed)
}

func TestProcessAccountChangeToleratesRunningSync(t *testing.T) {
	processor, refresher, _ := newTestProcessor(t)
	refresher.accountErr = &domain.ErrSyncAlreadyRunning{Scope: "account:act_1"}

	payload := &domain.WebhookPayload{
		Object: domain.WebhookObjectAdAccount,
		Entry: []domain.WebhookEntry{{
			ID:      "act_1",
			Changes: []domain.WebhookChange{{Field: "amount_spent"}},
		}},
	}

	processed, failed := processor.Process(context.Background(), payload)

	assert.Equal(t, 1, processed)
	assert.Zero(t, failed)
	assert.Equal(t, []string{"act_1"}, refresher.syncedAccounts)
}

func TestProcessUnknownObjectTypesAreLoggedOnly(t *testing.T) {
	processor, refresher, _ := newTestProcessor(t)

	payload := &domain.WebhookPayload{
		Object: domain.WebhookObjectAdset,
		Entry:  []domain.WebhookEntry{{ID: "as1", Changes: []domain.WebhookChange{{Field: "status"}}}},
	}

	processed, failed := processor.Process(context.Background(), payload)

	assert.Equal(t, 1, processed)
	assert.Zero(t, failed)
	assert.Empty(t, refresher.syncedCampaigns)
	assert.Empty(t, refresher.syncedAccounts)
}
