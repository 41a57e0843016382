package domain

import (
	"fmt"
	"net/http"
	"time"
)

// UpstreamError carries the HTTP status and the upstream error body of a
// failed graph API call. RetryAfter holds the server-advertised wait
// when the response carried a Retry-After header.
type UpstreamError struct {
	Status     int           `json:"status"`
	Code       int           `json:"code,omitempty"`
	Message    string        `json:"message"`
	TraceID    string        `json:"fbtrace_id,omitempty"`
	RetryAfter time.Duration `json:"-"`
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d, code %d): %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether the call may be retried. Rate limiting and
// server-side failures are transient; any other 4xx is terminal.
func (e *UpstreamError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// ErrorBody is the JSON error envelope returned by the graph API.
type ErrorBody struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}
