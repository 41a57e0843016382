package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/cache"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/ads-dashboard-api/internal/config"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
)

// SignatureHeader carries the HMAC of the notification body.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

var (
	ErrMissingSignature = errors.New("webhook: missing signature header")
	ErrInvalidSignature = errors.New("webhook: signature mismatch")
	ErrInvalidToken     = errors.New("webhook: verify token mismatch")
)

// refresher is the slice of the sync engine the processor needs for
// point refreshes.
type refresher interface {
	SyncCampaign(ctx context.Context, campaignID string) error
	SyncSpecificAccount(ctx context.Context, accountID string) (*domain.SyncResult, error)
}

// Processor verifies and applies upstream change notifications. One bad
// entry never blocks the rest of the batch.
type Processor struct {
	cfg       config.Webhook
	engine    refresher
	cache     *cache.DomainCache
	campaigns repository.CampaignRepository
}

func NewProcessor(cfg config.Webhook, engine refresher, domainCache *cache.DomainCache, campaigns repository.CampaignRepository) *Processor {
	return &Processor{
		cfg:       cfg,
		engine:    engine,
		cache:     domainCache,
		campaigns: campaigns,
	}
}

// VerifySubscription answers the upstream subscription handshake. The
// challenge must be echoed back verbatim when the token matches.
func (p *Processor) VerifySubscription(mode, token, challenge string) (string, error) {
	if mode != "subscribe" {
		return "", ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(p.cfg.VerifyToken)) != 1 {
		return "", ErrInvalidToken
	}
	return challenge, nil
}

// VerifySignature checks the HMAC-SHA256 of the raw body against the
// signature header. Verification runs over the exact bytes received,
// before any decoding.
func (p *Processor) VerifySignature(body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if !strings.HasPrefix(signature, signaturePrefix) {
		return ErrInvalidSignature
	}

	received, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(p.cfg.AppSecret))
	mac.Write(body)

	if !hmac.Equal(received, mac.Sum(nil)) {
		return ErrInvalidSignature
	}

	return nil
}

// Process applies every entry of the notification, isolating failures
// per entry. Returns the processed and failed entry counts.
func (p *Processor) Process(ctx context.Context, payload *domain.WebhookPayload) (int, int) {
	processed, failed := 0, 0

	for _, entry := range payload.Entry {
		if err := p.processEntry(ctx, payload.Object, entry); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"object":   payload.Object,
				"entry_id": entry.ID,
			}).Error("webhook: entry processing failed")
			failed++
			continue
		}
		processed++
	}

	return processed, failed
}

func (p *Processor) processEntry(ctx context.Context, object domain.WebhookObjectType, entry domain.WebhookEntry) error {
	switch object {
	case domain.WebhookObjectAdAccount:
		return p.handleAccountEntry(ctx, entry)
	case domain.WebhookObjectCampaign:
		return p.handleCampaignEntry(ctx, entry)
	case domain.WebhookObjectAdset, domain.WebhookObjectAd, domain.WebhookObjectPage:
		// Not materialized locally yet; acknowledge and move on.
		logrus.WithFields(logrus.Fields{
			"object":   object,
			"entry_id": entry.ID,
			"changes":  len(entry.Changes),
		}).Info("webhook: change acknowledged without local handling")
		return nil
	default:
		return errors.Errorf("webhook: unknown object type %q", object)
	}
}

func (p *Processor) handleAccountEntry(ctx context.Context, entry domain.WebhookEntry) error {
	accountID := entry.ID
	p.cache.InvalidateAccount(accountID)

	if !hasSignificantChange(entry.Changes) {
		return nil
	}

	if _, err := p.engine.SyncSpecificAccount(ctx, accountID); err != nil {
		var busy *domain.ErrSyncAlreadyRunning
		if errors.As(err, &busy) {
			// A refresh is already in flight; the change is covered.
			logrus.WithField("account_id", accountID).
				Info("webhook: account refresh already running")
			return nil
		}
		return err
	}

	return nil
}

func (p *Processor) handleCampaignEntry(ctx context.Context, entry domain.WebhookEntry) error {
	campaignID := entry.ID

	if campaign, err := p.campaigns.GetByID(ctx, campaignID); err == nil && campaign != nil {
		p.cache.InvalidateAccount(campaign.AccountID)
	}

	if !hasSignificantChange(entry.Changes) {
		return nil
	}

	return p.engine.SyncCampaign(ctx, campaignID)
}

func hasSignificantChange(changes []domain.WebhookChange) bool {
	for _, change := range changes {
		if domain.IsSignificantField(change.Field) {
			return true
		}
	}
	return false
}
