package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used for request validation failures
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeMethodNotAllowed is used when a known path is hit with the wrong method
	ErrCodeMethodNotAllowed = "ERR_METHOD_NOT_ALLOWED"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Webhook error codes
const (
	// ErrCodeInvalidSignature is used when webhook signature verification fails
	ErrCodeInvalidSignature = "ERR_INVALID_SIGNATURE"
	// ErrCodeMalformedPayload is used when a webhook body cannot be parsed
	ErrCodeMalformedPayload = "ERR_MALFORMED_PAYLOAD"
	// ErrCodeUnknownEventType is used for unrecognized webhook event types
	ErrCodeUnknownEventType = "ERR_UNKNOWN_EVENT_TYPE"
)

// Sync error codes
const (
	// ErrCodeMarketplaceNotConfigured is used when no gateway exists for a marketplace
	ErrCodeMarketplaceNotConfigured = "ERR_MARKETPLACE_NOT_CONFIGURED"
	// ErrCodeCycleRunning is used when a sync cycle is already in progress
	ErrCodeCycleRunning = "ERR_CYCLE_RUNNING"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,

	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	ErrCodeInvalidSignature: http.StatusUnauthorized,
	ErrCodeMalformedPayload: http.StatusBadRequest,
	ErrCodeUnknownEventType: http.StatusBadRequest,

	ErrCodeMarketplaceNotConfigured: http.StatusNotFound,
	ErrCodeCycleRunning:             http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
