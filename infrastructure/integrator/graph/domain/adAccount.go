package domain

// RawAdAccount is an ad account as returned by the graph API. Monetary
// fields arrive as strings and are parsed by the sync engine, not here.
type RawAdAccount struct {
	ID            string       `json:"id"`
	AccountID     string       `json:"account_id"`
	Name          string       `json:"name"`
	AccountStatus int          `json:"account_status"`
	Currency      string       `json:"currency"`
	TimezoneName  string       `json:"timezone_name"`
	Business      *RawBusiness `json:"business,omitempty"`
	AmountSpent   string       `json:"amount_spent"`
	Balance       string       `json:"balance"`
	SpendCap      string       `json:"spend_cap"`
	Capabilities  []string     `json:"capabilities"`
	CreatedTime   string       `json:"created_time"`
}

type RawBusiness struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Paging struct {
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
	Next string `json:"next"`
}
