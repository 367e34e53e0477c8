package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
)

// GormProductMappingRepository implements ProductMappingRepository using GORM
type GormProductMappingRepository struct {
	db *gorm.DB
}

// NewGormProductMappingRepository creates a new GormProductMappingRepository
func NewGormProductMappingRepository(db *gorm.DB) *GormProductMappingRepository {
	return &GormProductMappingRepository{db: db}
}

// FindByLocalProduct finds the mapping for a (local product, marketplace) pair
func (r *GormProductMappingRepository) FindByLocalProduct(ctx context.Context, localProductID uuid.UUID, marketplace integration.MarketplaceCode) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("local_product_id = ? AND marketplace = ?", localProductID, marketplace).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRemoteProduct finds the mapping owning a remote product id
func (r *GormProductMappingRepository) FindByRemoteProduct(ctx context.Context, marketplace integration.MarketplaceCode, remoteProductID string) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("marketplace = ? AND remote_product_id = ?", marketplace, remoteProductID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBarcode finds the mapping whose remote barcode matches
func (r *GormProductMappingRepository) FindByBarcode(ctx context.Context, marketplace integration.MarketplaceCode, barcode string) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("marketplace = ? AND remote_barcode = ?", marketplace, barcode).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Upsert creates or updates the mapping keyed by (local product, marketplace)
func (r *GormProductMappingRepository) Upsert(ctx context.Context, mapping *integration.ProductMapping) error {
	model := models.ProductMappingModelFromDomain(mapping)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "local_product_id"}, {Name: "marketplace"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"remote_product_id", "remote_barcode", "approved",
				"last_sync_status", "last_sync_error", "last_sync_at", "updated_at",
			}),
		}).
		Create(model).Error
}

// List returns mappings matching the filter plus the total count
func (r *GormProductMappingRepository) List(ctx context.Context, filter integration.ProductMappingFilter) ([]integration.ProductMapping, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductMappingModel{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var mappingModels []models.ProductMappingModel
	if err := query.Order("created_at DESC").Find(&mappingModels).Error; err != nil {
		return nil, 0, err
	}

	mappings := make([]integration.ProductMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, count, nil
}

// CountBySyncStatus returns mapping counts per sync status for one marketplace
func (r *GormProductMappingRepository) CountBySyncStatus(ctx context.Context, marketplace integration.MarketplaceCode) (map[integration.SyncStatus]int64, error) {
	type row struct {
		LastSyncStatus integration.SyncStatus
		Count          int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.ProductMappingModel{}).
		Select("last_sync_status, COUNT(*) AS count").
		Where("marketplace = ?", marketplace).
		Group("last_sync_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[integration.SyncStatus]int64, len(rows))
	for _, item := range rows {
		counts[item.LastSyncStatus] = item.Count
	}
	return counts, nil
}

func (r *GormProductMappingRepository) applyFilter(query *gorm.DB, filter integration.ProductMappingFilter) *gorm.DB {
	if filter.Marketplace != nil && filter.Marketplace.IsValid() {
		query = query.Where("marketplace = ?", *filter.Marketplace)
	}
	if filter.LastSyncStatus != nil && filter.LastSyncStatus.IsValid() {
		query = query.Where("last_sync_status = ?", *filter.LastSyncStatus)
	}
	if filter.Approved != nil {
		query = query.Where("approved = ?", *filter.Approved)
	}
	return query
}

// Ensure GormProductMappingRepository implements ProductMappingRepository
var _ integration.ProductMappingRepository = (*GormProductMappingRepository)(nil)
