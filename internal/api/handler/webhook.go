package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/webhooks"
	"github.com/vfg2006/ads-dashboard-api/pkg/apiErrors"
)

// maxWebhookBody bounds the notification body read into memory.
const maxWebhookBody = 1 << 20

// VerifyWebhook answers the upstream subscription handshake. The
// challenge is echoed back as plain text, exactly as received.
func VerifyWebhook(processor *webhooks.Processor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		challenge, err := processor.VerifySubscription(
			query.Get("hub.mode"),
			query.Get("hub.verify_token"),
			query.Get("hub.challenge"),
		)
		if err != nil {
			logrus.WithField("mode", query.Get("hub.mode")).
				Warn("webhook: subscription verification rejected")
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "verification failed", nil)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(challenge)); err != nil {
			logrus.WithError(err).Warn("webhook: challenge write failed")
		}
	})
}

// ReceiveWebhook verifies the body signature over the raw bytes, then
// hands the decoded payload to the processor. The response acknowledges
// receipt; per-entry failures are logged, not surfaced, so the upstream
// does not retry a batch that mostly succeeded.
func ReceiveWebhook(processor *webhooks.Processor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "unreadable request body", nil)
			return
		}

		signature := r.Header.Get(webhooks.SignatureHeader)
		if err := processor.VerifySignature(body, signature); err != nil {
			if errors.Is(err, webhooks.ErrMissingSignature) {
				apiErrors.WriteError(w, apiErrors.ErrMissingSignature, "signature header is required", nil)
				return
			}
			apiErrors.WriteError(w, apiErrors.ErrInvalidSignature, "signature verification failed", nil)
			return
		}

		var payload domain.WebhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "malformed notification body", nil)
			return
		}

		processed, failed := processor.Process(r.Context(), &payload)

		respondJSON(w, http.StatusOK, map[string]any{
			"received":  true,
			"processed": processed,
			"failed":    failed,
		})
	})
}
