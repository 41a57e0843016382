package graphclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
)

// DefaultInsightFields is the projection requested when the caller does
// not ask for specific fields.
var DefaultInsightFields = []string{
	"account_id", "account_name", "campaign_id", "campaign_name",
	"spend", "impressions", "clicks", "reach",
	"frequency", "ctr", "cpc", "cpm", "cpp",
	"actions", "action_values", "conversions", "cost_per_action_type",
	"video_play_actions", "video_p25_watched_actions", "video_p50_watched_actions",
	"video_p75_watched_actions", "video_p100_watched_actions",
	"video_avg_time_watched_actions", "video_thruplay_watched_actions",
	"date_start", "date_stop",
}

const defaultInsightLimit = 500

// TimeRange bounds an insights query; both dates are inclusive.
type TimeRange struct {
	Since time.Time
	Until time.Time
}

// InsightOptions parameterizes an insights call.
type InsightOptions struct {
	Fields           []string
	TimeRange        TimeRange
	Breakdowns       []string
	ActionBreakdowns []string
	Level            string
	Limit            int
}

// Validate checks the option invariants before the call is made.
func (o *InsightOptions) Validate() error {
	if o == nil {
		return errors.New("insight options are required")
	}
	if o.TimeRange.Since.IsZero() || o.TimeRange.Until.IsZero() {
		return errors.New("time range is required")
	}
	if o.TimeRange.Since.After(o.TimeRange.Until) {
		return errors.New("time range since must not be after until")
	}
	if o.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	switch o.Level {
	case "", "account", "campaign", "adset", "ad":
	default:
		return errors.Errorf("invalid insights level %q", o.Level)
	}
	return nil
}

func (o *InsightOptions) toParams() url.Values {
	fields := o.Fields
	if len(fields) == 0 {
		fields = DefaultInsightFields
	}
	limit := o.Limit
	if limit == 0 {
		limit = defaultInsightLimit
	}

	params := url.Values{}
	params.Set("fields", strings.Join(fields, ","))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("time_range", fmt.Sprintf(
		`{"since":"%s","until":"%s"}`,
		o.TimeRange.Since.Format(time.DateOnly),
		o.TimeRange.Until.Format(time.DateOnly),
	))
	params.Set("time_increment", "1")

	if o.Level != "" {
		params.Set("level", o.Level)
	}
	if len(o.Breakdowns) > 0 {
		params.Set("breakdowns", strings.Join(o.Breakdowns, ","))
	}
	if len(o.ActionBreakdowns) > 0 {
		params.Set("action_breakdowns", strings.Join(o.ActionBreakdowns, ","))
	}

	return params
}

type responseInsights struct {
	Data   []graphdomain.RawInsight `json:"data"`
	Paging graphdomain.Paging       `json:"paging"`
}

// GetAccountInsights fetches insight rows for an ad account.
func (c *GraphClient) GetAccountInsights(ctx context.Context, accountID string, options *InsightOptions) ([]graphdomain.RawInsight, error) {
	return c.getInsights(ctx, fmt.Sprintf("%s/insights", actPrefix(accountID)), options)
}

// GetCampaignInsights fetches insight rows for a single campaign.
func (c *GraphClient) GetCampaignInsights(ctx context.Context, campaignID string, options *InsightOptions) ([]graphdomain.RawInsight, error) {
	return c.getInsights(ctx, fmt.Sprintf("%s/insights", campaignID), options)
}

func (c *GraphClient) getInsights(ctx context.Context, path string, options *InsightOptions) ([]graphdomain.RawInsight, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	body, err := c.Get(ctx, path, options.toParams())
	if err != nil {
		return nil, err
	}

	var response responseInsights
	if err := json.Unmarshal(body, &response); err != nil {
		logrus.WithError(err).Error("graph: failed to decode insights response")
		return nil, err
	}

	return response.Data, nil
}
