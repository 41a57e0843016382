package domain

import (
	"encoding/json"
)

// WebhookObjectType is the tagged discriminator of a change notification.
type WebhookObjectType string

const (
	WebhookObjectAdAccount WebhookObjectType = "ad_account"
	WebhookObjectCampaign  WebhookObjectType = "campaign"
	WebhookObjectAdset     WebhookObjectType = "adset"
	WebhookObjectAd        WebhookObjectType = "ad"
	WebhookObjectPage      WebhookObjectType = "page"
)

// WebhookPayload is the notification body posted by the upstream platform.
type WebhookPayload struct {
	Object WebhookObjectType `json:"object"`
	Entry  []WebhookEntry    `json:"entry"`
}

// WebhookEntry carries the changes observed for one entity.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Time    int64           `json:"time"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange keeps the change value opaque; each object handler
// decodes only the fields it understands.
type WebhookChange struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// significantFields are the changes that justify a synchronous point
// refresh of the entity instead of waiting for the next scheduled sync.
var significantFields = map[string]struct{}{
	"status":           {},
	"effective_status": {},
	"daily_budget":     {},
	"lifetime_budget":  {},
	"budget_remaining": {},
	"spend_cap":        {},
	"amount_spent":     {},
}

// IsSignificantField reports whether a changed field triggers a refresh.
func IsSignificantField(field string) bool {
	_, ok := significantFields[field]
	return ok
}
