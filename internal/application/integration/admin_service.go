package integration

import (
	"context"

	"github.com/google/uuid"

	"github.com/marketsync/backend/internal/domain/integration"
)

// SyncAdminService is the read-and-repair surface behind the admin API:
// listings, per-marketplace statistics, and manual re-enqueue of jobs that
// exhausted their retry budget.
type SyncAdminService struct {
	jobs      integration.SyncJobRepository
	mappings  integration.ProductMappingRepository
	orderMaps integration.OrderMappingRepository
	events    integration.WebhookEventRepository
}

// NewSyncAdminService creates a new SyncAdminService.
func NewSyncAdminService(
	jobs integration.SyncJobRepository,
	mappings integration.ProductMappingRepository,
	orderMaps integration.OrderMappingRepository,
	events integration.WebhookEventRepository,
) *SyncAdminService {
	return &SyncAdminService{
		jobs:      jobs,
		mappings:  mappings,
		orderMaps: orderMaps,
		events:    events,
	}
}

const defaultPageSize = 20

// ListJobs lists sync jobs with filtering and pagination.
func (s *SyncAdminService) ListJobs(ctx context.Context, filter integration.SyncJobFilter) ([]integration.SyncJob, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	return s.jobs.List(ctx, filter)
}

// RequeueJob returns a terminal-error job to the pending queue with a fresh
// attempt budget.
func (s *SyncAdminService) RequeueJob(ctx context.Context, id uuid.UUID) error {
	return s.jobs.Requeue(ctx, id)
}

// GetJob retrieves one job by id.
func (s *SyncAdminService) GetJob(ctx context.Context, id uuid.UUID) (*integration.SyncJob, error) {
	return s.jobs.FindByID(ctx, id)
}

// ListProductMappings lists product mappings with filtering and pagination.
func (s *SyncAdminService) ListProductMappings(ctx context.Context, filter integration.ProductMappingFilter) ([]integration.ProductMapping, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	return s.mappings.List(ctx, filter)
}

// ListOrderMappings lists order mappings with filtering and pagination.
func (s *SyncAdminService) ListOrderMappings(ctx context.Context, filter integration.OrderMappingFilter) ([]integration.OrderMapping, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	return s.orderMaps.List(ctx, filter)
}

// ListWebhookEvents lists webhook audit records with filtering and
// pagination.
func (s *SyncAdminService) ListWebhookEvents(ctx context.Context, filter integration.WebhookEventFilter) ([]integration.WebhookEvent, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	return s.events.List(ctx, filter)
}

// MarketplaceStats aggregates the sync health of one marketplace.
type MarketplaceStats struct {
	Marketplace integration.MarketplaceCode      `json:"marketplace"`
	Jobs        map[integration.JobStatus]int64  `json:"jobs"`
	Mappings    map[integration.SyncStatus]int64 `json:"mappings"`
	Webhooks    *integration.WebhookEventStats   `json:"webhooks"`
}

// Stats aggregates job, mapping, and webhook counts for one marketplace.
func (s *SyncAdminService) Stats(ctx context.Context, marketplace integration.MarketplaceCode) (*MarketplaceStats, error) {
	if !marketplace.IsValid() {
		return nil, integration.ErrInvalidMarketplace
	}

	jobCounts, err := s.jobs.CountByStatus(ctx, marketplace)
	if err != nil {
		return nil, err
	}
	mappingCounts, err := s.mappings.CountBySyncStatus(ctx, marketplace)
	if err != nil {
		return nil, err
	}
	webhookStats, err := s.events.Stats(ctx, marketplace)
	if err != nil {
		return nil, err
	}

	return &MarketplaceStats{
		Marketplace: marketplace,
		Jobs:        jobCounts,
		Mappings:    mappingCounts,
		Webhooks:    webhookStats,
	}, nil
}
