package domain

import (
	"encoding/json"
	"time"
)

type CampaignStatus string

const (
	CampaignStatusActive   CampaignStatus = "ACTIVE"
	CampaignStatusPaused   CampaignStatus = "PAUSED"
	CampaignStatusDeleted  CampaignStatus = "DELETED"
	CampaignStatusArchived CampaignStatus = "ARCHIVED"
	CampaignStatusDraft    CampaignStatus = "IN_PROCESS"
)

// Campaign mirrors the upstream campaign object. The three status fields
// can legitimately diverge upstream and all three are retained verbatim.
type Campaign struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	Name             string          `json:"name"`
	Objective        string          `json:"objective"`
	Status           CampaignStatus  `json:"status"`
	ConfiguredStatus CampaignStatus  `json:"configured_status"`
	EffectiveStatus  CampaignStatus  `json:"effective_status"`
	DailyBudget      *float64        `json:"daily_budget,omitempty"`
	LifetimeBudget   *float64        `json:"lifetime_budget,omitempty"`
	BudgetRemaining  *float64        `json:"budget_remaining,omitempty"`
	BidStrategy      *string         `json:"bid_strategy,omitempty"`
	OptimizationGoal *string         `json:"optimization_goal,omitempty"`
	SpendCap         *float64        `json:"spend_cap,omitempty"`
	StartTime        *time.Time      `json:"start_time,omitempty"`
	StopTime         *time.Time      `json:"stop_time,omitempty"`
	Issues           json.RawMessage `json:"issues,omitempty"`
	CreatedTime      time.Time       `json:"created_time"`
	UpdatedTime      time.Time       `json:"updated_time"`

	// LastSyncAt records the local write, never upstream's updated_time.
	LastSyncAt time.Time `json:"last_sync_at"`
}

type CampaignListResponse struct {
	Campaigns []*Campaign `json:"campaigns"`
	Total     int         `json:"total"`
	Cached    bool        `json:"cached"`
}
