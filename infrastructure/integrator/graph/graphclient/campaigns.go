package graphclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
)

// DefaultCampaignFields is the projection requested when the caller does
// not ask for specific fields.
var DefaultCampaignFields = []string{
	"id", "account_id", "name", "objective",
	"status", "configured_status", "effective_status",
	"daily_budget", "lifetime_budget", "budget_remaining",
	"bid_strategy", "optimization_goal", "spend_cap",
	"start_time", "stop_time", "issues_info",
	"created_time", "updated_time",
}

const defaultCampaignLimit = 100

type responseCampaigns struct {
	Data   []graphdomain.RawCampaign `json:"data"`
	Paging graphdomain.Paging        `json:"paging"`
}

// GetCampaigns fetches up to limit campaigns of an account with the
// requested field projection.
func (c *GraphClient) GetCampaigns(ctx context.Context, accountID string, fields []string, limit int) ([]graphdomain.RawCampaign, error) {
	if limit <= 0 {
		limit = defaultCampaignLimit
	}
	if len(fields) == 0 {
		fields = DefaultCampaignFields
	}

	params := url.Values{}
	params.Set("fields", strings.Join(fields, ","))
	params.Set("limit", strconv.Itoa(limit))

	path := fmt.Sprintf("%s/campaigns", actPrefix(accountID))

	body, err := c.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var response responseCampaigns
	if err := json.Unmarshal(body, &response); err != nil {
		logrus.WithError(err).Error("graph: failed to decode campaigns response")
		return nil, err
	}

	return response.Data, nil
}

// actPrefix normalizes an account ID to the act_<id> path form the graph
// API expects.
func actPrefix(accountID string) string {
	if strings.HasPrefix(accountID, "act_") {
		return accountID
	}
	return "act_" + accountID
}
