package integration

import (
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Sentinel Errors
// ---------------------------------------------------------------------------

var (
	// Marketplace / gateway errors
	ErrMarketplaceNotConfigured = errors.New("integration: marketplace not configured")
	ErrMarketplaceNotEnabled    = errors.New("integration: marketplace not enabled")
	ErrGatewayInvalidResponse   = errors.New("integration: invalid gateway response")

	// Webhook errors
	ErrInvalidSignature = errors.New("integration: invalid webhook signature")
	ErrUnknownEventType = errors.New("integration: unknown webhook event type")
	ErrMalformedPayload = errors.New("integration: malformed webhook payload")

	// DuplicateEvent marks an idempotent no-op: the event was already applied.
	// Callers treat it as success, not failure.
	ErrDuplicateEvent = errors.New("integration: duplicate event")

	// Store errors
	ErrJobNotFound          = errors.New("integration: sync job not found")
	ErrJobNotClaimable      = errors.New("integration: sync job not in a claimable state")
	ErrMappingNotFound      = errors.New("integration: product mapping not found")
	ErrOrderMappingNotFound = errors.New("integration: order mapping not found")
	ErrOrderAlreadyMapped   = errors.New("integration: remote order already mapped")

	// Entity validation errors
	ErrInvalidMarketplace = errors.New("integration: invalid marketplace code")
	ErrInvalidEntityKind  = errors.New("integration: invalid entity kind")
	ErrInvalidOperation   = errors.New("integration: invalid job operation")
	ErrInvalidLocalID     = errors.New("integration: invalid local entity id")
	ErrInvalidRemoteID    = errors.New("integration: invalid remote entity id")
)

// ---------------------------------------------------------------------------
// Gateway Error Taxonomy
// ---------------------------------------------------------------------------

// TransientError wraps a failure that is expected to succeed on retry:
// connection errors and HTTP 5xx responses. The gateway client retries these
// internally; a TransientError surfacing to a worker means the retry budget
// was exhausted.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("integration: transient failure during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RateLimitError indicates the marketplace rejected the call with HTTP 429
// and the bounded retry-with-delay budget was exhausted.
type RateLimitError struct {
	Op         string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("integration: rate limited during %s (retry after %s)", e.Op, e.RetryAfter)
}

// ClientError indicates the marketplace rejected the request with a non-429
// 4xx status. These are terminal: retrying the identical request cannot
// succeed.
type ClientError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ClientError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("integration: marketplace rejected request (HTTP %d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("integration: marketplace rejected request (HTTP %d): %s", e.StatusCode, e.Message)
}

// MappingMissingError indicates a required category, brand, or product
// mapping is absent or inactive. Terminal until an operator fixes the
// mapping configuration; never auto-retried.
type MappingMissingError struct {
	Kind        string // "category", "brand", "product"
	LocalID     string
	Marketplace MarketplaceCode
}

func (e *MappingMissingError) Error() string {
	return fmt.Sprintf("integration: no active %s mapping for %s on %s", e.Kind, e.LocalID, e.Marketplace)
}

// IsRetryable reports whether an error is worth re-attempting through the
// job store's retry policy. Transient and rate-limit failures are retryable;
// client errors, missing mappings, and signature failures are not.
func IsRetryable(err error) bool {
	var transient *TransientError
	var rateLimited *RateLimitError
	return errors.As(err, &transient) || errors.As(err, &rateLimited)
}
