package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncStatus
// ---------------------------------------------------------------------------

// SyncStatus is the last-known synchronization outcome recorded on a
// mapping row.
type SyncStatus string

const (
	// SyncStatusPending means the entity has never been pushed.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusSynced means the last push succeeded.
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusError means the last push failed; the error text is on the
	// mapping row.
	SyncStatusError SyncStatus = "error"
)

// IsValid returns true if the status is known.
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusSynced, SyncStatusError:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// ProductMapping Entity
// ---------------------------------------------------------------------------

// ProductMapping is the persisted correspondence between a local product and
// its listing on one marketplace. At most one active remote id exists per
// (local product, marketplace) pair; the repository enforces this with a
// unique key.
type ProductMapping struct {
	ID             uuid.UUID
	LocalProductID uuid.UUID
	Marketplace    MarketplaceCode
	// RemoteProductID is the marketplace-assigned listing id. Empty until
	// the first successful create call.
	RemoteProductID string
	// RemoteBarcode is the barcode the marketplace lists the product under.
	RemoteBarcode string
	// Approved reports whether the marketplace has approved the listing for
	// sale.
	Approved bool
	// LastSyncStatus is the outcome of the most recent push.
	LastSyncStatus SyncStatus
	// LastSyncError holds the failure message when LastSyncStatus is error.
	LastSyncError string
	// LastSyncAt is when the most recent push finished.
	LastSyncAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewProductMapping creates a mapping in the pending state. The remote id is
// filled in by RecordSyncSuccess after the first create call.
func NewProductMapping(localProductID uuid.UUID, marketplace MarketplaceCode) (*ProductMapping, error) {
	if localProductID == uuid.Nil {
		return nil, ErrInvalidLocalID
	}
	if !marketplace.IsValid() {
		return nil, ErrInvalidMarketplace
	}

	now := time.Now()
	return &ProductMapping{
		ID:             uuid.New(),
		LocalProductID: localProductID,
		Marketplace:    marketplace,
		LastSyncStatus: SyncStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// RecordSyncSuccess records a successful push and the marketplace-assigned
// identifiers.
func (m *ProductMapping) RecordSyncSuccess(remoteProductID, remoteBarcode string) {
	now := time.Now()
	if remoteProductID != "" {
		m.RemoteProductID = remoteProductID
	}
	if remoteBarcode != "" {
		m.RemoteBarcode = remoteBarcode
	}
	m.LastSyncStatus = SyncStatusSynced
	m.LastSyncError = ""
	m.LastSyncAt = &now
	m.UpdatedAt = now
}

// RecordSyncFailure records a failed push. The persistent error message is
// how exhausted jobs are surfaced to operators instead of being dropped.
func (m *ProductMapping) RecordSyncFailure(errMsg string) {
	now := time.Now()
	m.LastSyncStatus = SyncStatusError
	m.LastSyncError = errMsg
	m.LastSyncAt = &now
	m.UpdatedAt = now
}

// IsCreated reports whether the product already exists on the marketplace.
func (m *ProductMapping) IsCreated() bool {
	return m.RemoteProductID != ""
}

// ---------------------------------------------------------------------------
// ProductMappingRepository Port
// ---------------------------------------------------------------------------

// ProductMappingFilter defines filter criteria for mapping listings.
type ProductMappingFilter struct {
	Marketplace    *MarketplaceCode
	LastSyncStatus *SyncStatus
	Approved       *bool
	Page           int
	PageSize       int
}

// ProductMappingRepository persists product mappings.
type ProductMappingRepository interface {
	// FindByLocalProduct returns the mapping for a (local product,
	// marketplace) pair, or ErrMappingNotFound.
	FindByLocalProduct(ctx context.Context, localProductID uuid.UUID, marketplace MarketplaceCode) (*ProductMapping, error)

	// FindByRemoteProduct returns the mapping owning a remote product id.
	FindByRemoteProduct(ctx context.Context, marketplace MarketplaceCode, remoteProductID string) (*ProductMapping, error)

	// FindByBarcode returns the mapping whose remote barcode matches. Used
	// by stock-updated webhooks, which identify products by barcode.
	FindByBarcode(ctx context.Context, marketplace MarketplaceCode, barcode string) (*ProductMapping, error)

	// Upsert creates or updates the mapping keyed by (local product,
	// marketplace).
	Upsert(ctx context.Context, mapping *ProductMapping) error

	// List returns mappings matching the filter plus the total count.
	List(ctx context.Context, filter ProductMappingFilter) ([]ProductMapping, int64, error)

	// CountBySyncStatus returns mapping counts per sync status for one
	// marketplace. Used by the health surface.
	CountBySyncStatus(ctx context.Context, marketplace MarketplaceCode) (map[SyncStatus]int64, error)
}
