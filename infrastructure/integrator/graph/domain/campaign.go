package domain

import (
	"encoding/json"
)

// RawCampaign is a campaign as returned by the graph API.
type RawCampaign struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	Name             string          `json:"name"`
	Objective        string          `json:"objective"`
	Status           string          `json:"status"`
	ConfiguredStatus string          `json:"configured_status"`
	EffectiveStatus  string          `json:"effective_status"`
	DailyBudget      string          `json:"daily_budget"`
	LifetimeBudget   string          `json:"lifetime_budget"`
	BudgetRemaining  string          `json:"budget_remaining"`
	BidStrategy      string          `json:"bid_strategy"`
	OptimizationGoal string          `json:"optimization_goal"`
	SpendCap         string          `json:"spend_cap"`
	StartTime        string          `json:"start_time"`
	StopTime         string          `json:"stop_time"`
	IssuesInfo       json.RawMessage `json:"issues_info"`
	CreatedTime      string          `json:"created_time"`
	UpdatedTime      string          `json:"updated_time"`
}
