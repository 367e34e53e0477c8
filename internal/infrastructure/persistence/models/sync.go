package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// SyncJobModel
// ---------------------------------------------------------------------------

// SyncJobModel is the persistence model for the SyncJob domain entity.
type SyncJobModel struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primary_key"`
	Marketplace   integration.MarketplaceCode `gorm:"type:varchar(20);not null;index:idx_sync_jobs_claim,priority:1"`
	EntityKind    integration.EntityKind      `gorm:"type:varchar(20);not null;index:idx_sync_jobs_claim,priority:2"`
	EntityLocalID string                      `gorm:"type:varchar(100);not null"`
	Operation     integration.JobOperation    `gorm:"type:varchar(20);not null"`
	Status        integration.JobStatus       `gorm:"type:varchar(20);not null;index:idx_sync_jobs_claim,priority:3"`
	Attempts      int                         `gorm:"not null;default:0"`
	MaxAttempts   int                         `gorm:"not null;default:3"`
	LastError     string                      `gorm:"type:text"`
	ClaimedAt     *time.Time                  `gorm:"index"`
	CreatedAt     time.Time                   `gorm:"not null;index:idx_sync_jobs_claim,priority:4"`
	UpdatedAt     time.Time                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the persistence model to a domain SyncJob entity.
func (m *SyncJobModel) ToDomain() *integration.SyncJob {
	return &integration.SyncJob{
		ID:            m.ID,
		Marketplace:   m.Marketplace,
		EntityKind:    m.EntityKind,
		EntityLocalID: m.EntityLocalID,
		Operation:     m.Operation,
		Status:        m.Status,
		Attempts:      m.Attempts,
		MaxAttempts:   m.MaxAttempts,
		LastError:     m.LastError,
		ClaimedAt:     m.ClaimedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// SyncJobModelFromDomain creates a persistence model from a domain SyncJob.
func SyncJobModelFromDomain(j *integration.SyncJob) *SyncJobModel {
	return &SyncJobModel{
		ID:            j.ID,
		Marketplace:   j.Marketplace,
		EntityKind:    j.EntityKind,
		EntityLocalID: j.EntityLocalID,
		Operation:     j.Operation,
		Status:        j.Status,
		Attempts:      j.Attempts,
		MaxAttempts:   j.MaxAttempts,
		LastError:     j.LastError,
		ClaimedAt:     j.ClaimedAt,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// ProductMappingModel
// ---------------------------------------------------------------------------

// ProductMappingModel is the persistence model for the ProductMapping domain
// entity. The unique index on (local_product_id, marketplace) enforces at
// most one listing per pair.
type ProductMappingModel struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primary_key"`
	LocalProductID  uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:uq_product_mappings_local_marketplace,priority:1"`
	Marketplace     integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:uq_product_mappings_local_marketplace,priority:2;index:idx_product_mappings_remote,priority:1"`
	RemoteProductID string                      `gorm:"type:varchar(100);index:idx_product_mappings_remote,priority:2"`
	RemoteBarcode   string                      `gorm:"type:varchar(100);index"`
	Approved        bool                        `gorm:"not null;default:false"`
	LastSyncStatus  integration.SyncStatus      `gorm:"type:varchar(20);not null;default:'pending'"`
	LastSyncError   string                      `gorm:"type:text"`
	LastSyncAt      *time.Time                  `gorm:"index"`
	CreatedAt       time.Time                   `gorm:"not null"`
	UpdatedAt       time.Time                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductMappingModel) TableName() string {
	return "product_mappings"
}

// ToDomain converts the persistence model to a domain ProductMapping entity.
func (m *ProductMappingModel) ToDomain() *integration.ProductMapping {
	return &integration.ProductMapping{
		ID:              m.ID,
		LocalProductID:  m.LocalProductID,
		Marketplace:     m.Marketplace,
		RemoteProductID: m.RemoteProductID,
		RemoteBarcode:   m.RemoteBarcode,
		Approved:        m.Approved,
		LastSyncStatus:  m.LastSyncStatus,
		LastSyncError:   m.LastSyncError,
		LastSyncAt:      m.LastSyncAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ProductMappingModelFromDomain creates a persistence model from a domain
// ProductMapping.
func ProductMappingModelFromDomain(pm *integration.ProductMapping) *ProductMappingModel {
	return &ProductMappingModel{
		ID:              pm.ID,
		LocalProductID:  pm.LocalProductID,
		Marketplace:     pm.Marketplace,
		RemoteProductID: pm.RemoteProductID,
		RemoteBarcode:   pm.RemoteBarcode,
		Approved:        pm.Approved,
		LastSyncStatus:  pm.LastSyncStatus,
		LastSyncError:   pm.LastSyncError,
		LastSyncAt:      pm.LastSyncAt,
		CreatedAt:       pm.CreatedAt,
		UpdatedAt:       pm.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// OrderMappingModel
// ---------------------------------------------------------------------------

// OrderMappingModel is the persistence model for the OrderMapping domain
// entity. The unique index on (marketplace, remote_order_id) is what makes
// inbound import idempotent under concurrent delivery.
type OrderMappingModel struct {
	ID            uuid.UUID                    `gorm:"type:uuid;primary_key"`
	LocalOrderID  uuid.UUID                    `gorm:"type:uuid;not null;index"`
	Marketplace   integration.MarketplaceCode  `gorm:"type:varchar(20);not null;uniqueIndex:uq_order_mappings_remote,priority:1"`
	RemoteOrderID string                       `gorm:"type:varchar(100);not null;uniqueIndex:uq_order_mappings_remote,priority:2"`
	RemoteStatus  string                       `gorm:"type:varchar(50)"`
	LocalStatus   integration.LocalOrderStatus `gorm:"type:varchar(20)"`
	RawPayload    string                       `gorm:"type:jsonb"`
	CreatedAt     time.Time                    `gorm:"not null"`
	UpdatedAt     time.Time                    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderMappingModel) TableName() string {
	return "order_mappings"
}

// ToDomain converts the persistence model to a domain OrderMapping entity.
func (m *OrderMappingModel) ToDomain() *integration.OrderMapping {
	return &integration.OrderMapping{
		ID:            m.ID,
		LocalOrderID:  m.LocalOrderID,
		Marketplace:   m.Marketplace,
		RemoteOrderID: m.RemoteOrderID,
		RemoteStatus:  m.RemoteStatus,
		LocalStatus:   m.LocalStatus,
		RawPayload:    m.RawPayload,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// OrderMappingModelFromDomain creates a persistence model from a domain
// OrderMapping.
func OrderMappingModelFromDomain(om *integration.OrderMapping) *OrderMappingModel {
	return &OrderMappingModel{
		ID:            om.ID,
		LocalOrderID:  om.LocalOrderID,
		Marketplace:   om.Marketplace,
		RemoteOrderID: om.RemoteOrderID,
		RemoteStatus:  om.RemoteStatus,
		LocalStatus:   om.LocalStatus,
		RawPayload:    om.RawPayload,
		CreatedAt:     om.CreatedAt,
		UpdatedAt:     om.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// WebhookEventModel
// ---------------------------------------------------------------------------

// WebhookEventModel is the persistence model for the WebhookEvent audit
// record.
type WebhookEventModel struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primary_key"`
	Marketplace    integration.MarketplaceCode `gorm:"type:varchar(20);not null;index"`
	EventType      string                      `gorm:"type:varchar(50);index"`
	SignatureValid bool                        `gorm:"not null;default:false"`
	Processed      bool                        `gorm:"not null;default:false"`
	Success        bool                        `gorm:"not null;default:false"`
	ErrorMessage   string                      `gorm:"type:text"`
	ReceivedAt     time.Time                   `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (WebhookEventModel) TableName() string {
	return "webhook_events"
}

// ToDomain converts the persistence model to a domain WebhookEvent.
func (m *WebhookEventModel) ToDomain() *integration.WebhookEvent {
	return &integration.WebhookEvent{
		ID:             m.ID,
		Marketplace:    m.Marketplace,
		EventType:      m.EventType,
		SignatureValid: m.SignatureValid,
		Processed:      m.Processed,
		Success:        m.Success,
		ErrorMessage:   m.ErrorMessage,
		ReceivedAt:     m.ReceivedAt,
	}
}

// WebhookEventModelFromDomain creates a persistence model from a domain
// WebhookEvent.
func WebhookEventModelFromDomain(e *integration.WebhookEvent) *WebhookEventModel {
	return &WebhookEventModel{
		ID:             e.ID,
		Marketplace:    e.Marketplace,
		EventType:      e.EventType,
		SignatureValid: e.SignatureValid,
		Processed:      e.Processed,
		Success:        e.Success,
		ErrorMessage:   e.ErrorMessage,
		ReceivedAt:     e.ReceivedAt,
	}
}

// ---------------------------------------------------------------------------
// Vocabulary Mapping Models
// ---------------------------------------------------------------------------

// CategoryMappingModel links a local category to a marketplace category.
type CategoryMappingModel struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primary_key"`
	LocalCategoryID  uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:uq_category_mappings,priority:1"`
	Marketplace      integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:uq_category_mappings,priority:2"`
	RemoteCategoryID string                      `gorm:"type:varchar(100);not null"`
	IsActive         bool                        `gorm:"not null;default:true"`
	CreatedAt        time.Time                   `gorm:"not null"`
	UpdatedAt        time.Time                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryMappingModel) TableName() string {
	return "category_mappings"
}

// BrandMappingModel links a local brand to a marketplace brand.
type BrandMappingModel struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primary_key"`
	LocalBrandID  uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:uq_brand_mappings,priority:1"`
	Marketplace   integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:uq_brand_mappings,priority:2"`
	RemoteBrandID string                      `gorm:"type:varchar(100);not null"`
	IsActive      bool                        `gorm:"not null;default:true"`
	CreatedAt     time.Time                   `gorm:"not null"`
	UpdatedAt     time.Time                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BrandMappingModel) TableName() string {
	return "brand_mappings"
}

// AttributeMappingModel links a local attribute name to a marketplace
// attribute name.
type AttributeMappingModel struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primary_key"`
	LocalName   string                      `gorm:"type:varchar(100);not null;uniqueIndex:uq_attribute_mappings,priority:1"`
	Marketplace integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:uq_attribute_mappings,priority:2"`
	RemoteName  string                      `gorm:"type:varchar(100);not null"`
	IsActive    bool                        `gorm:"not null;default:true"`
	CreatedAt   time.Time                   `gorm:"not null"`
	UpdatedAt   time.Time                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AttributeMappingModel) TableName() string {
	return "attribute_mappings"
}
