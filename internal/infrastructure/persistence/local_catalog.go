package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
)

// GormLocalCatalog implements LocalCatalog against the commerce system's
// product table. The engine reads product data and writes nothing back
// except stock quantities.
type GormLocalCatalog struct {
	db *gorm.DB
}

// NewGormLocalCatalog creates a new GormLocalCatalog
func NewGormLocalCatalog(db *gorm.DB) *GormLocalCatalog {
	return &GormLocalCatalog{db: db}
}

// GetProduct loads one product by id
func (c *GormLocalCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*integration.LocalProduct, error) {
	var model models.LocalProductModel
	if err := c.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("integration: product %s not found", id)
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindProductByBarcode resolves a barcode to a product, (nil, nil) when no
// product matches
func (c *GormLocalCatalog) FindProductByBarcode(ctx context.Context, barcode string) (*integration.LocalProduct, error) {
	if barcode == "" {
		return nil, nil
	}
	var model models.LocalProductModel
	if err := c.db.WithContext(ctx).First(&model, "barcode = ?", barcode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain()
}

// UpdateStock overwrites the product's stock quantity
func (c *GormLocalCatalog) UpdateStock(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	result := c.db.WithContext(ctx).Model(&models.LocalProductModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("integration: product %s not found", id)
	}
	return nil
}

// Ensure GormLocalCatalog implements LocalCatalog
var _ integration.LocalCatalog = (*GormLocalCatalog)(nil)
