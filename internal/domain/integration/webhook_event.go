package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// WebhookEvent Types
// ---------------------------------------------------------------------------

// WebhookEventType classifies an inbound marketplace notification.
type WebhookEventType string

const (
	// EventOrderCreated announces a new remote order.
	EventOrderCreated WebhookEventType = "order-created"
	// EventOrderStatusChanged announces a remote status transition.
	EventOrderStatusChanged WebhookEventType = "order-status-changed"
	// EventStockUpdated announces marketplace-side stock changes.
	EventStockUpdated WebhookEventType = "stock-updated"
)

// IsValid returns true for event types the engine knows how to dispatch.
func (t WebhookEventType) IsValid() bool {
	switch t {
	case EventOrderCreated, EventOrderStatusChanged, EventStockUpdated:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// WebhookEvent Record
// ---------------------------------------------------------------------------

// WebhookEvent is the append-only audit record of one inbound delivery.
// Every delivery is recorded, including signature failures and unknown
// event types, so duplicate deliveries and rejections stay observable.
type WebhookEvent struct {
	ID          uuid.UUID
	Marketplace MarketplaceCode
	// EventType is the raw type string from the payload; kept verbatim even
	// when unknown.
	EventType string
	// SignatureValid reports whether the keyed-hash check passed.
	SignatureValid bool
	// Processed reports whether dispatch ran (false for rejections before
	// classification).
	Processed bool
	// Success reports whether dispatch succeeded. A duplicate delivery is
	// recorded as processed and successful with a duplicate note.
	Success bool
	// ErrorMessage holds the rejection or dispatch failure, or a
	// duplicate-no-op note.
	ErrorMessage string
	ReceivedAt   time.Time
}

// NewWebhookEvent creates an audit record for one delivery.
func NewWebhookEvent(marketplace MarketplaceCode, eventType string) *WebhookEvent {
	return &WebhookEvent{
		ID:          uuid.New(),
		Marketplace: marketplace,
		EventType:   eventType,
		ReceivedAt:  time.Now(),
	}
}

// MarkRejected records a delivery that was refused before dispatch.
func (e *WebhookEvent) MarkRejected(signatureValid bool, reason string) {
	e.SignatureValid = signatureValid
	e.Processed = false
	e.Success = false
	e.ErrorMessage = reason
}

// MarkProcessed records the dispatch outcome of an accepted delivery.
func (e *WebhookEvent) MarkProcessed(success bool, message string) {
	e.SignatureValid = true
	e.Processed = true
	e.Success = success
	e.ErrorMessage = message
}

// ---------------------------------------------------------------------------
// WebhookEventRepository Port
// ---------------------------------------------------------------------------

// WebhookEventFilter defines filter criteria for event listings.
type WebhookEventFilter struct {
	Marketplace *MarketplaceCode
	EventType   *string
	Success     *bool
	Page        int
	PageSize    int
}

// WebhookEventStats aggregates delivery counts for the admin surface.
type WebhookEventStats struct {
	Total     int64
	Succeeded int64
	Failed    int64
	ByType    map[string]int64
}

// WebhookEventRepository persists webhook audit records.
type WebhookEventRepository interface {
	// Insert appends one event record.
	Insert(ctx context.Context, event *WebhookEvent) error

	// List returns events matching the filter, newest first, plus the total
	// count.
	List(ctx context.Context, filter WebhookEventFilter) ([]WebhookEvent, int64, error)

	// Stats aggregates delivery counts for one marketplace.
	Stats(ctx context.Context, marketplace MarketplaceCode) (*WebhookEventStats, error)
}
