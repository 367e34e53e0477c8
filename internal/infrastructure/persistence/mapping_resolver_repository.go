package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
)

// GormMappingResolver implements MappingResolver against the category,
// brand, and attribute mapping tables. Category and brand misses are
// terminal (*MappingMissingError); attribute misses are dropped.
type GormMappingResolver struct {
	db *gorm.DB
}

// NewGormMappingResolver creates a new GormMappingResolver
func NewGormMappingResolver(db *gorm.DB) *GormMappingResolver {
	return &GormMappingResolver{db: db}
}

// ResolveCategory resolves a local category into the marketplace's
// vocabulary
func (r *GormMappingResolver) ResolveCategory(ctx context.Context, marketplace integration.MarketplaceCode, localCategoryID uuid.UUID) (string, error) {
	var model models.CategoryMappingModel
	if err := r.db.WithContext(ctx).
		Where("local_category_id = ? AND marketplace = ? AND is_active = ?", localCategoryID, marketplace, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", &integration.MappingMissingError{
				Kind:        "category",
				LocalID:     localCategoryID.String(),
				Marketplace: marketplace,
			}
		}
		return "", err
	}
	return model.RemoteCategoryID, nil
}

// ResolveBrand resolves a local brand into the marketplace's vocabulary
func (r *GormMappingResolver) ResolveBrand(ctx context.Context, marketplace integration.MarketplaceCode, localBrandID uuid.UUID) (string, error) {
	var model models.BrandMappingModel
	if err := r.db.WithContext(ctx).
		Where("local_brand_id = ? AND marketplace = ? AND is_active = ?", localBrandID, marketplace, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", &integration.MappingMissingError{
				Kind:        "brand",
				LocalID:     localBrandID.String(),
				Marketplace: marketplace,
			}
		}
		return "", err
	}
	return model.RemoteBrandID, nil
}

// ResolveAttributes translates attribute names into the marketplace's
// vocabulary, dropping attributes without an active mapping
func (r *GormMappingResolver) ResolveAttributes(ctx context.Context, marketplace integration.MarketplaceCode, attributes map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(attributes))
	if len(attributes) == 0 {
		return resolved, nil
	}

	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}

	var mappingModels []models.AttributeMappingModel
	if err := r.db.WithContext(ctx).
		Where("local_name IN ? AND marketplace = ? AND is_active = ?", names, marketplace, true).
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	for _, model := range mappingModels {
		if value, ok := attributes[model.LocalName]; ok {
			resolved[model.RemoteName] = value
		}
	}
	return resolved, nil
}

// Ensure GormMappingResolver implements MappingResolver
var _ integration.MappingResolver = (*GormMappingResolver)(nil)
