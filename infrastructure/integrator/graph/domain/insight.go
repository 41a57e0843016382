package domain

// ActionEntry is one (action_type, value) pair of an insight row. Values
// are strings upstream, like every other graph API numeric.
type ActionEntry struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// RawInsight is one insights row as returned by the graph API.
type RawInsight struct {
	AccountID    string `json:"account_id"`
	AccountName  string `json:"account_name"`
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	AdsetID      string `json:"adset_id"`
	AdsetName    string `json:"adset_name"`
	AdID         string `json:"ad_id"`
	AdName       string `json:"ad_name"`

	Spend       string `json:"spend"`
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	Reach       string `json:"reach"`
	Frequency   string `json:"frequency"`
	CTR         string `json:"ctr"`
	CPC         string `json:"cpc"`
	CPM         string `json:"cpm"`
	CPP         string `json:"cpp"`

	Actions           []ActionEntry `json:"actions"`
	ActionValues      []ActionEntry `json:"action_values"`
	Conversions       []ActionEntry `json:"conversions"`
	CostPerActionType []ActionEntry `json:"cost_per_action_type"`

	VideoPlayActions            []ActionEntry `json:"video_play_actions"`
	VideoP25WatchedActions      []ActionEntry `json:"video_p25_watched_actions"`
	VideoP50WatchedActions      []ActionEntry `json:"video_p50_watched_actions"`
	VideoP75WatchedActions      []ActionEntry `json:"video_p75_watched_actions"`
	VideoP100WatchedActions     []ActionEntry `json:"video_p100_watched_actions"`
	VideoAvgTimeWatchedActions  []ActionEntry `json:"video_avg_time_watched_actions"`
	VideoThruplayWatchedActions []ActionEntry `json:"video_thruplay_watched_actions"`

	DateStart string `json:"date_start"`
	DateStop  string `json:"date_stop"`
}
