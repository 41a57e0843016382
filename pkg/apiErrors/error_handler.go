package apiErrors

import (
	"encoding/json"
	"net/http"
)

// Standardized error codes returned to clients
const (
	// Authentication / authorization errors (1000-1999)
	ErrMissingSignature = "AUTH_001" // Webhook signature header absent
	ErrInvalidSignature = "AUTH_002" // Webhook signature does not match
	ErrInvalidToken     = "AUTH_003" // Verify token does not match

	// Validation errors (2000-2999)
	ErrInvalidRequest      = "VAL_001" // Malformed request
	ErrMissingRequiredData = "VAL_002" // Required parameter absent
	ErrInvalidFormat       = "VAL_003" // Parameter present but unparsable

	// Server errors (5000-5999)
	ErrInternalServer    = "SRV_001" // Unexpected internal error
	ErrDatabaseOperation = "SRV_002" // Database operation failed
	ErrExternalService   = "SRV_003" // Upstream graph API failure
	ErrSyncInProgress    = "SRV_004" // Fleet sync already running
)

var httpStatusMap = map[string]int{
	ErrMissingSignature:    http.StatusBadRequest,
	ErrInvalidSignature:    http.StatusForbidden,
	ErrInvalidToken:        http.StatusForbidden,
	ErrInvalidRequest:      http.StatusBadRequest,
	ErrMissingRequiredData: http.StatusBadRequest,
	ErrInvalidFormat:       http.StatusBadRequest,
	ErrInternalServer:      http.StatusInternalServerError,
	ErrDatabaseOperation:   http.StatusInternalServerError,
	ErrExternalService:     http.StatusBadGateway,
	ErrSyncInProgress:      http.StatusConflict,
}

// APIError is the standardized error body
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// WriteError writes the standardized error to the HTTP response
func WriteError(w http.ResponseWriter, code string, message string, details any) {
	status, exists := httpStatusMap[code]
	if !exists {
		status = http.StatusInternalServerError
	}

	apiErr := APIError{
		Code:    code,
		Message: message,
		Details: details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiErr)
}

// FromError builds an APIError from a Go error
func FromError(err error, code string) APIError {
	if err == nil {
		return APIError{
			Code:    ErrInternalServer,
			Message: "Unknown error",
		}
	}

	return APIError{
		Code:    code,
		Message: err.Error(),
	}
}
