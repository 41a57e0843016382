package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vfg2006/ads-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/syncer"
	"github.com/vfg2006/ads-dashboard-api/pkg/apiErrors"
)

// InsightList serves daily insight rows for an account with the summary
// rollup: cache first, the engine's fetch-and-store path on a miss.
// Only the plain (account, level, window) read goes through the cache;
// entity-filtered and broken-down reads always go to the engine.
func InsightList(engine *syncer.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := accountIDParam(r)
		if accountID == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "account ID is required", nil)
			return
		}

		query, err := parseInsightQuery(accountID, r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		rows, cached, err := engine.QueryInsights(r.Context(), query)
		if err != nil {
			respondStorageError(w, err, "Error querying insights")
			return
		}

		respondJSON(w, http.StatusOK, domain.InsightListResponse{
			Insights: rows,
			Summary:  domain.SummarizeInsights(rows),
			Total:    len(rows),
			Cached:   cached,
		})
	})
}

// DeleteOldInsights is the operator retention endpoint; nothing runs it
// automatically.
func DeleteOldInsights(insights repository.InsightRepository) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawDays := r.URL.Query().Get("days")
		if rawDays == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "days query parameter is required", nil)
			return
		}

		days, err := strconv.Atoi(rawDays)
		if err != nil || days <= 0 {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "days must be a positive integer", nil)
			return
		}

		deleted, err := insights.DeleteOlderThan(r.Context(), days)
		if err != nil {
			respondStorageError(w, err, "Error pruning insights")
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"deleted": deleted,
			"days":    days,
		})
	})
}

// parseInsightQuery reads the filters; dates come as date_start/date_end
// with since/until accepted as aliases.
func parseInsightQuery(accountID string, r *http.Request) (syncer.InsightQuery, error) {
	values := r.URL.Query()

	query := syncer.InsightQuery{
		Filters: repository.InsightFilters{
			AccountID: accountID,
			EntityID:  values.Get("entity_id"),
		},
		Breakdowns:       csvParam(values.Get("breakdowns")),
		ActionBreakdowns: csvParam(values.Get("action_breakdowns")),
	}

	level := values.Get("level")
	if level == "" {
		level = string(domain.EntityTypeAccount)
	}
	switch domain.EntityType(level) {
	case domain.EntityTypeAccount, domain.EntityTypeCampaign, domain.EntityTypeAdset, domain.EntityTypeAd:
		query.Filters.EntityType = domain.EntityType(level)
	default:
		return query, errInvalidParam("level must be one of account, campaign, adset, ad")
	}

	var err error
	if query.Filters.DateStart, err = parseDateParam(firstParam(values, "date_start", "since")); err != nil {
		return query, errInvalidParam("date_start must be formatted as YYYY-MM-DD")
	}
	if query.Filters.DateEnd, err = parseDateParam(firstParam(values, "date_end", "until")); err != nil {
		return query, errInvalidParam("date_end must be formatted as YYYY-MM-DD")
	}
	if !query.Filters.DateStart.IsZero() && !query.Filters.DateEnd.IsZero() &&
		query.Filters.DateStart.After(query.Filters.DateEnd) {
		return query, errInvalidParam("date_start must not be after date_end")
	}

	if rawLimit := values.Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 0 {
			return query, errInvalidParam("limit must be a non-negative integer")
		}
		query.Filters.Limit = limit
	}

	return query, nil
}

func firstParam(values url.Values, names ...string) string {
	for _, name := range names {
		if value := values.Get(name); value != "" {
			return value
		}
	}
	return ""
}

func csvParam(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}

	return values
}

func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, raw)
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return string(e) }
