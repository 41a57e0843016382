package domain

import (
	"time"
)

// Upstream account_status codes we care about. Stored as reported,
// never inferred locally.
const (
	AdAccountStatusActive    = 1
	AdAccountStatusDisabled  = 2
	AdAccountStatusUnsettled = 3
)

type AdAccount struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       int       `json:"account_status"`
	Currency     string    `json:"currency"`
	Timezone     string    `json:"timezone_name"`
	BusinessID   *string   `json:"business_id,omitempty"`
	BusinessName *string   `json:"business_name,omitempty"`
	AmountSpent  float64   `json:"amount_spent"`
	Balance      float64   `json:"balance"`
	SpendCap     *float64  `json:"spend_cap,omitempty"`
	Capabilities []string  `json:"capabilities,omitempty"`
	CreatedTime  time.Time `json:"created_time"`
	LastSyncAt   time.Time `json:"last_sync_at"`
}

type AdAccountListResponse struct {
	Accounts []*AdAccount `json:"accounts"`
	Total    int          `json:"total"`
	Cached   bool         `json:"cached"`
}
