package syncer

import (
	"strings"
	"time"

	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
	"github.com/vfg2006/ads-dashboard-api/pkg/utils"
)

// upstreamTimeLayout is the timestamp format the graph API uses.
const upstreamTimeLayout = "2006-01-02T15:04:05-0700"

// FactoryAdAccount converts a raw upstream account into the stored
// shape. String monetary fields parse with 0 defaults.
func FactoryAdAccount(raw *graphdomain.RawAdAccount, syncedAt time.Time) *domain.AdAccount {
	account := &domain.AdAccount{
		ID:           raw.ID,
		Name:         raw.Name,
		Status:       raw.AccountStatus,
		Currency:     raw.Currency,
		Timezone:     raw.TimezoneName,
		AmountSpent:  utils.ParseFloatOrZero(raw.AmountSpent),
		Balance:      utils.ParseFloatOrZero(raw.Balance),
		Capabilities: raw.Capabilities,
		CreatedTime:  parseUpstreamTime(raw.CreatedTime),
		LastSyncAt:   syncedAt,
	}

	if raw.SpendCap != "" {
		spendCap := utils.ParseFloatOrZero(raw.SpendCap)
		account.SpendCap = &spendCap
	}

	if raw.Business != nil {
		account.BusinessID = &raw.Business.ID
		account.BusinessName = &raw.Business.Name
	}

	return account
}

// FactoryCampaign converts a raw upstream campaign. All three status
// fields are stored as reported; LastSyncAt is the local write time,
// never upstream's updated_time.
func FactoryCampaign(raw *graphdomain.RawCampaign, accountID string, syncedAt time.Time) *domain.Campaign {
	campaign := &domain.Campaign{
		ID:               raw.ID,
		AccountID:        accountID,
		Name:             raw.Name,
		Objective:        raw.Objective,
		Status:           domain.CampaignStatus(raw.Status),
		ConfiguredStatus: domain.CampaignStatus(raw.ConfiguredStatus),
		EffectiveStatus:  domain.CampaignStatus(raw.EffectiveStatus),
		Issues:           raw.IssuesInfo,
		CreatedTime:      parseUpstreamTime(raw.CreatedTime),
		UpdatedTime:      parseUpstreamTime(raw.UpdatedTime),
		LastSyncAt:       syncedAt,
	}

	if raw.AccountID != "" {
		campaign.AccountID = normalizeAccountID(raw.AccountID)
	}

	campaign.DailyBudget = optionalBudget(raw.DailyBudget)
	campaign.LifetimeBudget = optionalBudget(raw.LifetimeBudget)
	campaign.BudgetRemaining = optionalBudget(raw.BudgetRemaining)
	campaign.SpendCap = optionalBudget(raw.SpendCap)

	if raw.BidStrategy != "" {
		campaign.BidStrategy = &raw.BidStrategy
	}
	if raw.OptimizationGoal != "" {
		campaign.OptimizationGoal = &raw.OptimizationGoal
	}
	if t := parseUpstreamTime(raw.StartTime); !t.IsZero() {
		campaign.StartTime = &t
	}
	if t := parseUpstreamTime(raw.StopTime); !t.IsZero() {
		campaign.StopTime = &t
	}

	return campaign
}

// FactoryDailyInsight converts one raw insight row for the given level.
func FactoryDailyInsight(raw *graphdomain.RawInsight, level domain.EntityType, accountID string, syncedAt time.Time) *domain.DailyInsight {
	insight := &domain.DailyInsight{
		EntityType:  level,
		AccountID:   normalizeAccountID(accountID),
		DateStart:   parseUpstreamDate(raw.DateStart),
		DateStop:    parseUpstreamDate(raw.DateStop),
		Spend:       utils.ParseFloatOrZero(raw.Spend),
		Impressions: utils.ParseIntOrZero(raw.Impressions),
		Clicks:      utils.ParseIntOrZero(raw.Clicks),
		Reach:       utils.ParseIntOrZero(raw.Reach),
		Frequency:   utils.ParseFloatOrZero(raw.Frequency),
		CTR:         utils.ParseFloatOrZero(raw.CTR),
		CPC:         utils.ParseFloatOrZero(raw.CPC),
		CPM:         utils.ParseFloatOrZero(raw.CPM),
		CPP:         utils.ParseFloatOrZero(raw.CPP),

		Actions:           actionEntriesToMap(raw.Actions),
		ActionValues:      actionEntriesToMap(raw.ActionValues),
		Conversions:       actionEntriesToMap(raw.Conversions),
		CostPerActionType: actionEntriesToMap(raw.CostPerActionType),
		Video:             factoryVideoMetrics(raw),

		LastSyncAt: syncedAt,
	}

	switch level {
	case domain.EntityTypeCampaign:
		insight.EntityID = raw.CampaignID
		insight.EntityName = raw.CampaignName
	case domain.EntityTypeAdset:
		insight.EntityID = raw.AdsetID
		insight.EntityName = raw.AdsetName
	case domain.EntityTypeAd:
		insight.EntityID = raw.AdID
		insight.EntityName = raw.AdName
	default:
		insight.EntityID = normalizeAccountID(accountID)
		insight.EntityName = raw.AccountName
	}

	return insight
}

// actionEntriesToMap flattens the upstream list-of-pairs shape into an
// explicit action-type to value mapping.
func actionEntriesToMap(entries []graphdomain.ActionEntry) domain.ActionMap {
	if len(entries) == 0 {
		return nil
	}

	m := make(domain.ActionMap, len(entries))
	for _, entry := range entries {
		m[entry.ActionType] = utils.ParseFloatOrZero(entry.Value)
	}

	return m
}

func factoryVideoMetrics(raw *graphdomain.RawInsight) *domain.VideoMetrics {
	if len(raw.VideoPlayActions) == 0 &&
		len(raw.VideoP25WatchedActions) == 0 &&
		len(raw.VideoP100WatchedActions) == 0 &&
		len(raw.VideoAvgTimeWatchedActions) == 0 {
		return nil
	}

	return &domain.VideoMetrics{
		Plays:            sumActionEntries(raw.VideoPlayActions),
		WatchedP25:       sumActionEntries(raw.VideoP25WatchedActions),
		WatchedP50:       sumActionEntries(raw.VideoP50WatchedActions),
		WatchedP75:       sumActionEntries(raw.VideoP75WatchedActions),
		WatchedP100:      sumActionEntries(raw.VideoP100WatchedActions),
		AverageWatchTime: firstActionValue(raw.VideoAvgTimeWatchedActions),
		CompleteViews:    sumActionEntries(raw.VideoThruplayWatchedActions),
	}
}

func sumActionEntries(entries []graphdomain.ActionEntry) int64 {
	var total int64
	for _, entry := range entries {
		total += utils.ParseIntOrZero(entry.Value)
	}
	return total
}

func firstActionValue(entries []graphdomain.ActionEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	return utils.ParseFloatOrZero(entries[0].Value)
}

func optionalBudget(value string) *float64 {
	if value == "" {
		return nil
	}
	// Budgets arrive in minor currency units (cents).
	budget := utils.ParseFloatOrZero(value) / 100
	return &budget
}

func normalizeAccountID(accountID string) string {
	if accountID == "" || strings.HasPrefix(accountID, "act_") {
		return accountID
	}
	return "act_" + accountID
}

func parseUpstreamTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(upstreamTimeLayout, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}

func parseUpstreamDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
