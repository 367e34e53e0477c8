package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Local Commerce System Models
// ---------------------------------------------------------------------------

// The sync engine shares a database with the local commerce system. These
// models cover only the slices of its product and order tables the engine
// reads and writes; the commerce system owns the rest of the schema.

// LocalProductModel is the persistence model for the local product record.
type LocalProductModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	Title      string          `gorm:"type:varchar(200);not null"`
	StockCode  string          `gorm:"type:varchar(50);not null"`
	Barcode    string          `gorm:"type:varchar(50);index"`
	CategoryID uuid.UUID       `gorm:"type:uuid;index"`
	BrandID    uuid.UUID       `gorm:"type:uuid;index"`
	ListPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SalePrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ImageURLs  string          `gorm:"type:jsonb"`
	Attributes string          `gorm:"type:jsonb"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LocalProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a LocalProduct.
func (m *LocalProductModel) ToDomain() (*integration.LocalProduct, error) {
	product := &integration.LocalProduct{
		ID:         m.ID,
		Title:      m.Title,
		StockCode:  m.StockCode,
		Barcode:    m.Barcode,
		CategoryID: m.CategoryID,
		BrandID:    m.BrandID,
		ListPrice:  m.ListPrice,
		SalePrice:  m.SalePrice,
		Quantity:   m.Quantity,
		Attributes: map[string]string{},
	}
	if m.ImageURLs != "" {
		if err := json.Unmarshal([]byte(m.ImageURLs), &product.ImageURLs); err != nil {
			return nil, err
		}
	}
	if m.Attributes != "" {
		if err := json.Unmarshal([]byte(m.Attributes), &product.Attributes); err != nil {
			return nil, err
		}
	}
	return product, nil
}

// LocalOrderModel is the persistence model for the local order record.
type LocalOrderModel struct {
	ID              uuid.UUID                    `gorm:"type:uuid;primary_key"`
	OrderNumber     string                       `gorm:"type:varchar(50);not null;uniqueIndex"`
	Source          string                       `gorm:"type:varchar(20);not null"`
	Status          integration.LocalOrderStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	CustomerName    string                       `gorm:"type:varchar(100)"`
	CustomerEmail   string                       `gorm:"type:varchar(100)"`
	ShippingAddress string                       `gorm:"type:text"`
	ShippingCity    string                       `gorm:"type:varchar(50)"`
	Total           decimal.Decimal              `gorm:"type:decimal(18,4);not null;default:0"`
	Currency        string                       `gorm:"type:varchar(3);not null;default:'TRY'"`
	CreatedAt       time.Time                    `gorm:"not null"`
	UpdatedAt       time.Time                    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LocalOrderModel) TableName() string {
	return "orders"
}

// LocalOrderLineModel is the persistence model for one local order line.
type LocalOrderLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"`
	Description string          `gorm:"type:varchar(200);not null"`
	Barcode     string          `gorm:"type:varchar(50)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LocalOrderLineModel) TableName() string {
	return "order_lines"
}
