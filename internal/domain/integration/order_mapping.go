package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// OrderMapping Entity
// ---------------------------------------------------------------------------

// OrderMapping links a local order to its marketplace order. RemoteOrderID
// is unique per marketplace and is the deduplication key for inbound order
// import: an order delivered via both polling and webhook is imported once.
type OrderMapping struct {
	ID           uuid.UUID
	LocalOrderID uuid.UUID
	Marketplace  MarketplaceCode
	// RemoteOrderID is the order id on the marketplace.
	RemoteOrderID string
	// RemoteStatus is the last-known status in the marketplace vocabulary.
	RemoteStatus string
	// LocalStatus is the last-known status in the local vocabulary.
	LocalStatus LocalOrderStatus
	// RawPayload is the original remote order document, kept for audit and
	// replay.
	RawPayload string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrderMapping creates a mapping for a freshly imported remote order.
func NewOrderMapping(localOrderID uuid.UUID, marketplace MarketplaceCode, remoteOrderID string) (*OrderMapping, error) {
	if localOrderID == uuid.Nil {
		return nil, ErrInvalidLocalID
	}
	if !marketplace.IsValid() {
		return nil, ErrInvalidMarketplace
	}
	if remoteOrderID == "" {
		return nil, ErrInvalidRemoteID
	}

	now := time.Now()
	return &OrderMapping{
		ID:            uuid.New(),
		LocalOrderID:  localOrderID,
		Marketplace:   marketplace,
		RemoteOrderID: remoteOrderID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// RecordStatus updates the last-known statuses on both sides.
func (m *OrderMapping) RecordStatus(remoteStatus string, localStatus LocalOrderStatus) {
	if remoteStatus != "" {
		m.RemoteStatus = remoteStatus
	}
	if localStatus != "" {
		m.LocalStatus = localStatus
	}
	m.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// OrderMappingRepository Port
// ---------------------------------------------------------------------------

// OrderMappingFilter defines filter criteria for order mapping listings.
type OrderMappingFilter struct {
	Marketplace *MarketplaceCode
	LocalStatus *LocalOrderStatus
	Page        int
	PageSize    int
}

// OrderMappingRepository persists order mappings. Insert must fail with
// ErrOrderAlreadyMapped when the (marketplace, remote order id) pair exists,
// which is what makes inbound import idempotent under concurrent delivery.
type OrderMappingRepository interface {
	// Insert persists a new mapping. Returns ErrOrderAlreadyMapped on a
	// duplicate (marketplace, remote order id).
	Insert(ctx context.Context, mapping *OrderMapping) error

	// ExistsByRemoteOrder reports whether a remote order was already
	// imported.
	ExistsByRemoteOrder(ctx context.Context, marketplace MarketplaceCode, remoteOrderID string) (bool, error)

	// FindByRemoteOrder returns the mapping for a remote order, or
	// ErrOrderMappingNotFound.
	FindByRemoteOrder(ctx context.Context, marketplace MarketplaceCode, remoteOrderID string) (*OrderMapping, error)

	// FindByLocalOrder returns the mapping for a local order on one
	// marketplace.
	FindByLocalOrder(ctx context.Context, localOrderID uuid.UUID, marketplace MarketplaceCode) (*OrderMapping, error)

	// UpdateStatus persists the last-known statuses after a push or an
	// inbound status change.
	UpdateStatus(ctx context.Context, id uuid.UUID, remoteStatus string, localStatus LocalOrderStatus) error

	// List returns mappings matching the filter plus the total count.
	List(ctx context.Context, filter OrderMappingFilter) ([]OrderMapping, int64, error)
}
