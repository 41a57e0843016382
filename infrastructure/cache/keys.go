package cache

import (
	"fmt"
	"time"
)

// Key layout, namespaced by domain + account + optional sub-scope:
//
//	accounts:all
//	account:<account_id>
//	campaigns:<account_id>
//	insights:<account_id>:<level>:<date_start>:<date_stop>

func AccountsKey() string {
	return "accounts:all"
}

func AccountKey(accountID string) string {
	return "account:" + accountID
}

func CampaignsKey(accountID string) string {
	return "campaigns:" + accountID
}

func InsightsKey(accountID, level string, dateStart, dateStop time.Time) string {
	return fmt.Sprintf("insights:%s:%s:%s:%s",
		accountID, level,
		dateStart.Format(time.DateOnly),
		dateStop.Format(time.DateOnly),
	)
}

// InsightsPrefix covers every cached insights window of an account.
func InsightsPrefix(accountID string) string {
	return "insights:" + accountID + ":"
}
