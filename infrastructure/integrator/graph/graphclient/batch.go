package graphclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	graphdomain "github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/domain"
)

// maxBatchSize is the upstream cap on batch items per call.
const maxBatchSize = 50

// BatchItem is one logical call inside a batch request.
type BatchItem struct {
	Method      string `json:"method"`
	RelativeURL string `json:"relative_url"`
	Body        string `json:"body,omitempty"`
}

// BatchResult is the per-item outcome. A failed item carries its own
// UpstreamError and does not fail its siblings.
type BatchResult struct {
	Code int             `json:"code"`
	Body json.RawMessage `json:"body"`
	Err  *graphdomain.UpstreamError
}

// Succeeded reports whether the item completed with a 2xx code.
func (r BatchResult) Succeeded() bool {
	return r.Err == nil
}

type rawBatchResult struct {
	Code int    `json:"code"`
	Body string `json:"body"`
}

// BatchRequest submits several logical calls in one network round trip
// and returns an ordered result per item.
func (c *GraphClient) BatchRequest(ctx context.Context, requests []BatchItem) ([]BatchResult, error) {
	if len(requests) == 0 {
		return nil, errors.New("batch request requires at least one item")
	}
	if len(requests) > maxBatchSize {
		return nil, errors.Errorf("batch request exceeds the %d item limit", maxBatchSize)
	}

	payload, err := json.Marshal(requests)
	if err != nil {
		return nil, errors.Wrap(err, "encoding batch payload")
	}

	body, err := c.Post(ctx, "", map[string]string{"batch": string(payload)})
	if err != nil {
		return nil, err
	}

	var rawResults []rawBatchResult
	if err := json.Unmarshal(body, &rawResults); err != nil {
		return nil, errors.Wrap(err, "decoding batch response")
	}

	results := make([]BatchResult, 0, len(rawResults))
	for _, raw := range rawResults {
		result := BatchResult{
			Code: raw.Code,
			Body: json.RawMessage(raw.Body),
		}

		if raw.Code < 200 || raw.Code >= 300 {
			upstreamErr := &graphdomain.UpstreamError{
				Status:  raw.Code,
				Message: http.StatusText(raw.Code),
			}
			var errBody graphdomain.ErrorBody
			if err := json.Unmarshal([]byte(raw.Body), &errBody); err == nil && errBody.Error.Message != "" {
				upstreamErr.Message = errBody.Error.Message
				upstreamErr.Code = errBody.Error.Code
			}
			result.Err = upstreamErr
		}

		results = append(results, result)
	}

	return results, nil
}
