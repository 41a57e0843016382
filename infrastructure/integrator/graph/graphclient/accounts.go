package graphclient

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
)

const adAccountFields = "id,account_id,name,account_status,currency,timezone_name," +
	"business,amount_spent,balance,spend_cap,capabilities,created_time"

type responseAdAccounts struct {
	Data   []graphdomain.RawAdAccount `json:"data"`
	Paging graphdomain.Paging         `json:"paging"`
}

// GetAdAccounts fetches every ad account visible to the configured
// credential, following pagination cursors.
func (c *GraphClient) GetAdAccounts(ctx context.Context) ([]graphdomain.RawAdAccount, error) {
	accounts := make([]graphdomain.RawAdAccount, 0)

	params := url.Values{}
	params.Set("fields", adAccountFields)
	params.Set("limit", strconv.Itoa(100))

	after := ""
	for {
		if after != "" {
			params.Set("after", after)
		}

		body, err := c.Get(ctx, "me/adaccounts", params)
		if err != nil {
			return nil, err
		}

		var response responseAdAccounts
		if err := json.Unmarshal(body, &response); err != nil {
			logrus.WithError(err).Error("graph: failed to decode ad accounts response")
			return nil, err
		}

		accounts = append(accounts, response.Data...)

		if response.Paging.Cursors.After == "" || response.Paging.Next == "" {
			break
		}
		after = response.Paging.Cursors.After
	}

	return accounts, nil
}
