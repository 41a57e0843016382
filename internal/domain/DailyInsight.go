package domain

import (
	"time"

	"github.com/vfg2006/ads-dashboard-api/pkg/utils"
)

type EntityType string

const (
	EntityTypeAccount  EntityType = "account"
	EntityTypeCampaign EntityType = "campaign"
	EntityTypeAdset    EntityType = "adset"
	EntityTypeAd       EntityType = "ad"
)

// ActionMap maps an upstream action-type label to its numeric value.
type ActionMap map[string]float64

// VideoMetrics groups the video engagement counters of one insight row.
type VideoMetrics struct {
	Plays            int64   `json:"plays"`
	WatchedP25       int64   `json:"watched_p25"`
	WatchedP50       int64   `json:"watched_p50"`
	WatchedP75       int64   `json:"watched_p75"`
	WatchedP100      int64   `json:"watched_p100"`
	AverageWatchTime float64 `json:"average_watch_time"`
	CompleteViews    int64   `json:"complete_views"`
}

// DailyInsight is one performance row. Identity is the composite
// (entity_type, entity_id, date_start, date_stop); the same entity can
// carry several breakdown rows per day.
type DailyInsight struct {
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	EntityName  string     `json:"entity_name"`
	AccountID   string     `json:"account_id"`
	DateStart   time.Time  `json:"date_start"`
	DateStop    time.Time  `json:"date_stop"`
	Spend       float64    `json:"spend"`
	Impressions int64      `json:"impressions"`
	Clicks      int64      `json:"clicks"`
	Reach       int64      `json:"reach"`
	Frequency   float64    `json:"frequency"`
	CTR         float64    `json:"ctr"`
	CPC         float64    `json:"cpc"`
	CPM         float64    `json:"cpm"`
	CPP         float64    `json:"cpp"`

	Actions           ActionMap     `json:"actions,omitempty"`
	ActionValues      ActionMap     `json:"action_values,omitempty"`
	Conversions       ActionMap     `json:"conversions,omitempty"`
	CostPerActionType ActionMap     `json:"cost_per_action_type,omitempty"`
	Video             *VideoMetrics `json:"video,omitempty"`

	LastSyncAt time.Time `json:"last_sync_at"`
}

// InsightSummary is the rollup served to the dashboard.
type InsightSummary struct {
	TotalSpend       float64 `json:"total_spend"`
	TotalImpressions int64   `json:"total_impressions"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalReach       int64   `json:"total_reach"`
	Rows             int     `json:"rows"`
}

// SummarizeInsights rolls up a set of rows. Spend, impressions and
// clicks are additive; reach is NOT, audiences overlap across rows, so
// the summary keeps the maximum observed reach instead of a sum.
func SummarizeInsights(insights []*DailyInsight) *InsightSummary {
	summary := &InsightSummary{Rows: len(insights)}

	for _, insight := range insights {
		summary.TotalSpend += insight.Spend
		summary.TotalImpressions += insight.Impressions
		summary.TotalClicks += insight.Clicks

		if insight.Reach > summary.TotalReach {
			summary.TotalReach = insight.Reach
		}
	}

	summary.TotalSpend = utils.RoundWithTwoDecimalPlace(summary.TotalSpend)

	return summary
}

type InsightListResponse struct {
	Insights []*DailyInsight `json:"insights"`
	Summary  *InsightSummary `json:"summary"`
	Total    int             `json:"total"`
	Cached   bool            `json:"cached"`
}
