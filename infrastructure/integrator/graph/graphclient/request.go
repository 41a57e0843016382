package graphclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
)

// Get executes a GET against a relative graph API path.
func (c *GraphClient) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.doWithRetry(ctx, http.MethodGet, path, params, nil)
}

// Post executes a POST with a JSON body against a relative path.
func (c *GraphClient) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.doWithRetry(ctx, http.MethodPost, path, nil, body)
}

// Delete executes a DELETE against a relative path.
func (c *GraphClient) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.doWithRetry(ctx, http.MethodDelete, path, nil, nil)
}

// doWithRetry runs one logical call through the retry policy. Transient
// failures (429/5xx) back off exponentially; terminal errors and an open
// circuit breaker surface immediately.
func (c *GraphClient) doWithRetry(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		data, err := c.doOnce(ctx, method, path, params, body)
		if err == nil {
			return data, nil
		}

		lastErr = err

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &graphdomain.UpstreamError{
				Status:  http.StatusServiceUnavailable,
				Message: "upstream circuit open: " + err.Error(),
			}
		}

		upstreamErr, ok := err.(*graphdomain.UpstreamError)
		if !ok || !upstreamErr.Retryable() || attempt == c.retry.MaxAttempts {
			return nil, err
		}

		backoff := c.retry.Backoff(attempt)
		if upstreamErr.RetryAfter > backoff {
			backoff = upstreamErr.RetryAfter
		}

		logrus.WithFields(logrus.Fields{
			"path":    path,
			"attempt": attempt,
			"status":  upstreamErr.Status,
			"backoff": backoff.String(),
		}).Warn("graph: transient upstream error, backing off")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// doOnce performs a single attempt: limiter wait, then the HTTP round
// trip inside the circuit breaker.
func (c *GraphClient) doOnce(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, params, body)
	})
}

func (c *GraphClient) roundTrip(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.Cfg.Graph.AccessToken)

	fullURL := fmt.Sprintf("%s/%s?%s", c.Cfg.Graph.URL, strings.TrimPrefix(path, "/"), params.Encode())

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &graphdomain.UpstreamError{
			Status:  http.StatusBadGateway,
			Message: err.Error(),
		}
	}
	defer resp.Body.Close()

	c.recordUsage(resp.Header)

	return c.handleResponse(resp)
}

// handleResponse reads the body and converts non-2xx answers into a
// typed UpstreamError carrying the graph error envelope.
func (c *GraphClient) handleResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	upstreamErr := &graphdomain.UpstreamError{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
		upstreamErr.RetryAfter = time.Duration(seconds) * time.Second
	}

	var errBody graphdomain.ErrorBody
	if err := json.Unmarshal(data, &errBody); err == nil && errBody.Error.Message != "" {
		upstreamErr.Message = errBody.Error.Message
		upstreamErr.Code = errBody.Error.Code
		upstreamErr.TraceID = errBody.Error.FBTraceID
	}

	return nil, upstreamErr
}
