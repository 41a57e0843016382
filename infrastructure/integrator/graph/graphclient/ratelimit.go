package graphclient

import (
	"encoding/json"
	"net/http"
	"time"
)

// Rate-limit health states reported by CheckRateLimit.
const (
	RateLimitHealthy     = "healthy"
	RateLimitRateLimited = "rate_limited"
	RateLimitUnhealthy   = "unhealthy"
)

// usageWarnThreshold is the X-App-Usage percentage above which we stop
// considering the credential healthy.
const usageWarnThreshold = 90

// appUsage mirrors the X-App-Usage header the graph API attaches to
// every response.
type appUsage struct {
	CallCount    int `json:"call_count"`
	TotalTime    int `json:"total_time"`
	TotalCPUTime int `json:"total_cputime"`

	observedAt time.Time
}

// RateLimitStatus is the answer of CheckRateLimit.
type RateLimitStatus struct {
	Status       string     `json:"status"`
	CallCount    int        `json:"call_count,omitempty"`
	TotalTime    int        `json:"total_time,omitempty"`
	TotalCPUTime int        `json:"total_cputime,omitempty"`
	ObservedAt   *time.Time `json:"observed_at,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// recordUsage stores the usage counters from the latest response so that
// CheckRateLimit can answer without a billable upstream call.
func (c *GraphClient) recordUsage(header http.Header) {
	raw := header.Get("X-App-Usage")
	if raw == "" {
		return
	}

	usage := &appUsage{}
	if err := json.Unmarshal([]byte(raw), usage); err != nil {
		return
	}
	usage.observedAt = time.Now()

	c.usageMutex.Lock()
	c.lastUsage = usage
	c.usageMutex.Unlock()
}

// CheckRateLimit inspects the most recently observed usage counters. It
// never makes a new upstream call.
func (c *GraphClient) CheckRateLimit() RateLimitStatus {
	c.usageMutex.Lock()
	usage := c.lastUsage
	c.usageMutex.Unlock()

	if usage == nil {
		return RateLimitStatus{Status: RateLimitHealthy}
	}

	status := RateLimitStatus{
		Status:       RateLimitHealthy,
		CallCount:    usage.CallCount,
		TotalTime:    usage.TotalTime,
		TotalCPUTime: usage.TotalCPUTime,
		ObservedAt:   &usage.observedAt,
	}

	if usage.CallCount >= usageWarnThreshold ||
		usage.TotalTime >= usageWarnThreshold ||
		usage.TotalCPUTime >= usageWarnThreshold {
		status.Status = RateLimitRateLimited
		status.Error = "upstream usage counters above threshold"
	}

	return status
}
