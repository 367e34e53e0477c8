package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
)

// GormWebhookEventRepository implements WebhookEventRepository using GORM
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewGormWebhookEventRepository creates a new GormWebhookEventRepository
func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// Insert appends one event record
func (r *GormWebhookEventRepository) Insert(ctx context.Context, event *integration.WebhookEvent) error {
	return r.db.WithContext(ctx).Create(models.WebhookEventModelFromDomain(event)).Error
}

// List returns events matching the filter, newest first, plus the total count
func (r *GormWebhookEventRepository) List(ctx context.Context, filter integration.WebhookEventFilter) ([]integration.WebhookEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WebhookEventModel{})
	if filter.Marketplace != nil && filter.Marketplace.IsValid() {
		query = query.Where("marketplace = ?", *filter.Marketplace)
	}
	if filter.EventType != nil {
		query = query.Where("event_type = ?", *filter.EventType)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var eventModels []models.WebhookEventModel
	if err := query.Order("received_at DESC").Find(&eventModels).Error; err != nil {
		return nil, 0, err
	}

	events := make([]integration.WebhookEvent, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}
	return events, count, nil
}

// Stats aggregates delivery counts for one marketplace
func (r *GormWebhookEventRepository) Stats(ctx context.Context, marketplace integration.MarketplaceCode) (*integration.WebhookEventStats, error) {
	stats := &integration.WebhookEventStats{ByType: make(map[string]int64)}

	type row struct {
		EventType string
		Success   bool
		Count     int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.WebhookEventModel{}).
		Select("event_type, success, COUNT(*) AS count").
		Where("marketplace = ?", marketplace).
		Group("event_type, success").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, item := range rows {
		stats.Total += item.Count
		if item.Success {
			stats.Succeeded += item.Count
		} else {
			stats.Failed += item.Count
		}
		stats.ByType[item.EventType] += item.Count
	}
	return stats, nil
}

// Ensure GormWebhookEventRepository implements WebhookEventRepository
var _ integration.WebhookEventRepository = (*GormWebhookEventRepository)(nil)
