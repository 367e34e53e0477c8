package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
)

// GormSyncJobRepository implements SyncJobRepository using GORM
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// Enqueue persists a new pending job
func (r *GormSyncJobRepository) Enqueue(ctx context.Context, job *integration.SyncJob) error {
	return r.db.WithContext(ctx).Create(models.SyncJobModelFromDomain(job)).Error
}

// ClaimNext atomically claims the oldest pending job for the marketplace and
// kind using FOR UPDATE SKIP LOCKED, so concurrent workers never take the
// same job. Returns (nil, nil) when nothing is claimable.
func (r *GormSyncJobRepository) ClaimNext(ctx context.Context, marketplace integration.MarketplaceCode, kind integration.EntityKind) (*integration.SyncJob, error) {
	var claimed *models.SyncJobModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.SyncJobModel
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Options:  "SKIP LOCKED",
			}).
			Where("marketplace = ? AND entity_kind = ? AND status = ?",
				marketplace, kind, integration.JobStatusPending).
			Order("created_at ASC").
			First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.SyncJobModel{}).
			Where("id = ?", model.ID).
			Updates(map[string]interface{}{
				"status":     integration.JobStatusProcessing,
				"claimed_at": now,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		model.Status = integration.JobStatusProcessing
		model.ClaimedAt = &now
		model.UpdatedAt = now
		claimed = &model
		return nil
	})
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		return nil, nil
	}
	return claimed.ToDomain(), nil
}

// MarkCompleted transitions a claimed job to completed
func (r *GormSyncJobRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.SyncJobModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     integration.JobStatusCompleted,
			"last_error": "",
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrJobNotFound
	}
	return nil
}

// MarkFailed records a failed attempt inside a transaction so the attempt
// counter and the resulting state stay consistent under concurrency.
func (r *GormSyncJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, terminal bool) (*integration.SyncJob, error) {
	var updated *models.SyncJobModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.SyncJobModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return integration.ErrJobNotFound
			}
			return err
		}

		job := model.ToDomain()
		if terminal {
			job.FailTerminal(errMsg)
		} else {
			job.Fail(errMsg)
		}

		if err := tx.Model(&models.SyncJobModel{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     job.Status,
				"attempts":   job.Attempts,
				"last_error": job.LastError,
				"claimed_at": nil,
				"updated_at": job.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		updated = models.SyncJobModelFromDomain(job)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.ToDomain(), nil
}

// Requeue returns a terminal-error job to pending with reset attempts
func (r *GormSyncJobRepository) Requeue(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.SyncJobModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     integration.JobStatusPending,
			"attempts":   0,
			"last_error": "",
			"claimed_at": nil,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrJobNotFound
	}
	return nil
}

// RequeueStuck returns to pending every job left in processing longer than
// the given age. Crash recovery: a worker that died mid-job never released
// its claim.
func (r *GormSyncJobRepository) RequeueStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := r.db.WithContext(ctx).Model(&models.SyncJobModel{}).
		Where("status = ? AND claimed_at < ?", integration.JobStatusProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":     integration.JobStatusPending,
			"claimed_at": nil,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// FindByID retrieves one job
func (r *GormSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncJob, error) {
	var model models.SyncJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrJobNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns jobs matching the filter plus the total count
func (r *GormSyncJobRepository) List(ctx context.Context, filter integration.SyncJobFilter) ([]integration.SyncJob, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SyncJobModel{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var jobModels []models.SyncJobModel
	if err := query.Order("created_at DESC").Find(&jobModels).Error; err != nil {
		return nil, 0, err
	}

	jobs := make([]integration.SyncJob, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = *model.ToDomain()
	}
	return jobs, count, nil
}

// CountByStatus returns job counts per status for one marketplace
func (r *GormSyncJobRepository) CountByStatus(ctx context.Context, marketplace integration.MarketplaceCode) (map[integration.JobStatus]int64, error) {
	type row struct {
		Status integration.JobStatus
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.SyncJobModel{}).
		Select("status, COUNT(*) AS count").
		Where("marketplace = ?", marketplace).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[integration.JobStatus]int64, len(rows))
	for _, item := range rows {
		counts[item.Status] = item.Count
	}
	return counts, nil
}

func (r *GormSyncJobRepository) applyFilter(query *gorm.DB, filter integration.SyncJobFilter) *gorm.DB {
	if filter.Marketplace != nil && filter.Marketplace.IsValid() {
		query = query.Where("marketplace = ?", *filter.Marketplace)
	}
	if filter.EntityKind != nil && filter.EntityKind.IsValid() {
		query = query.Where("entity_kind = ?", *filter.EntityKind)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// Ensure GormSyncJobRepository implements SyncJobRepository
var _ integration.SyncJobRepository = (*GormSyncJobRepository)(nil)
