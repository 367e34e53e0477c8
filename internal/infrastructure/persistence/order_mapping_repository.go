package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// GormOrderMappingRepository implements OrderMappingRepository using GORM
type GormOrderMappingRepository struct {
	db *gorm.DB
}

// NewGormOrderMappingRepository creates a new GormOrderMappingRepository
func NewGormOrderMappingRepository(db *gorm.DB) *GormOrderMappingRepository {
	return &GormOrderMappingRepository{db: db}
}

// Insert persists a new mapping. The unique key on (marketplace,
// remote_order_id) turns a concurrent duplicate into ErrOrderAlreadyMapped,
// which is the idempotency guarantee inbound import relies on.
func (r *GormOrderMappingRepository) Insert(ctx context.Context, mapping *integration.OrderMapping) error {
	err := r.db.WithContext(ctx).Create(models.OrderMappingModelFromDomain(mapping)).Error
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return integration.ErrOrderAlreadyMapped
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return integration.ErrOrderAlreadyMapped
		}
		return err
	}
	return nil
}

// ExistsByRemoteOrder reports whether a remote order was already imported
func (r *GormOrderMappingRepository) ExistsByRemoteOrder(ctx context.Context, marketplace integration.MarketplaceCode, remoteOrderID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderMappingModel{}).
		Where("marketplace = ? AND remote_order_id = ?", marketplace, remoteOrderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByRemoteOrder returns the mapping for a remote order
func (r *GormOrderMappingRepository) FindByRemoteOrder(ctx context.Context, marketplace integration.MarketplaceCode, remoteOrderID string) (*integration.OrderMapping, error) {
	var model models.OrderMappingModel
	if err := r.db.WithContext(ctx).
		Where("marketplace = ? AND remote_order_id = ?", marketplace, remoteOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrOrderMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLocalOrder returns the mapping for a local order on one marketplace
func (r *GormOrderMappingRepository) FindByLocalOrder(ctx context.Context, localOrderID uuid.UUID, marketplace integration.MarketplaceCode) (*integration.OrderMapping, error) {
	var model models.OrderMappingModel
	if err := r.db.WithContext(ctx).
		Where("local_order_id = ? AND marketplace = ?", localOrderID, marketplace).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrOrderMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateStatus persists the last-known statuses. Empty arguments leave the
// corresponding column untouched.
func (r *GormOrderMappingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, remoteStatus string, localStatus integration.LocalOrderStatus) error {
	updates := map[string]interface{}{
		"updated_at": gorm.Expr("NOW()"),
	}
	if remoteStatus != "" {
		updates["remote_status"] = remoteStatus
	}
	if localStatus != "" {
		updates["local_status"] = localStatus
	}

	result := r.db.WithContext(ctx).Model(&models.OrderMappingModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrOrderMappingNotFound
	}
	return nil
}

// List returns mappings matching the filter plus the total count
func (r *GormOrderMappingRepository) List(ctx context.Context, filter integration.OrderMappingFilter) ([]integration.OrderMapping, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderMappingModel{})
	if filter.Marketplace != nil && filter.Marketplace.IsValid() {
		query = query.Where("marketplace = ?", *filter.Marketplace)
	}
	if filter.LocalStatus != nil {
		query = query.Where("local_status = ?", *filter.LocalStatus)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var mappingModels []models.OrderMappingModel
	if err := query.Order("created_at DESC").Find(&mappingModels).Error; err != nil {
		return nil, 0, err
	}

	mappings := make([]integration.OrderMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, count, nil
}

// Ensure GormOrderMappingRepository implements OrderMappingRepository
var _ integration.OrderMappingRepository = (*GormOrderMappingRepository)(nil)
