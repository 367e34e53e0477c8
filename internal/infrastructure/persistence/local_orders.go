package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
)

// GormLocalOrders implements LocalOrders against the commerce system's
// order tables. Orders imported from a marketplace carry the marketplace
// code as their source.
type GormLocalOrders struct {
	db *gorm.DB
}

// NewGormLocalOrders creates a new GormLocalOrders
func NewGormLocalOrders(db *gorm.DB) *GormLocalOrders {
	return &GormLocalOrders{db: db}
}

// Create inserts the order and its lines in one transaction
func (o *GormLocalOrders) Create(ctx context.Context, order *integration.LocalOrderData) (uuid.UUID, error) {
	orderID := uuid.New()
	now := time.Now()

	orderNumber := order.OrderNumber
	if orderNumber == "" {
		orderNumber = fmt.Sprintf("%s-%s", strings.ToUpper(string(order.Marketplace)), order.RemoteOrderID)
	}

	model := &models.LocalOrderModel{
		ID:              orderID,
		OrderNumber:     orderNumber,
		Source:          string(order.Marketplace),
		Status:          integration.LocalStatusPending,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		ShippingAddress: order.ShippingAddress,
		ShippingCity:    order.ShippingCity,
		Total:           order.Total,
		Currency:        order.Currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	lineModels := make([]models.LocalOrderLineModel, len(order.Lines))
	for i, line := range order.Lines {
		lineModels[i] = models.LocalOrderLineModel{
			ID:          uuid.New(),
			OrderID:     orderID,
			ProductID:   line.LocalProductID,
			Description: line.Description,
			Barcode:     line.Barcode,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			CreatedAt:   now,
		}
	}

	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(lineModels) > 0 {
			if err := tx.Create(&lineModels).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return orderID, nil
}

// SetStatus updates the order's status
func (o *GormLocalOrders) SetStatus(ctx context.Context, id uuid.UUID, status integration.LocalOrderStatus) error {
	result := o.db.WithContext(ctx).Model(&models.LocalOrderModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("integration: order %s not found", id)
	}
	return nil
}

// Delete removes the order and its lines in one transaction. Used to take
// back an order whose import lost the mapping race to a concurrent delivery.
func (o *GormLocalOrders) Delete(ctx context.Context, id uuid.UUID) error {
	return o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.LocalOrderLineModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.LocalOrderModel{}).Error
	})
}

// Ensure GormLocalOrders implements LocalOrders
var _ integration.LocalOrders = (*GormLocalOrders)(nil)
