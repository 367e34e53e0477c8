package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/marketsync/backend/internal/domain/integration"
)

// newMockSyncJobRepository creates a GormSyncJobRepository with a mocked SQL connection
func newMockSyncJobRepository(t *testing.T) (*GormSyncJobRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormSyncJobRepository(gormDB), mock, mockDB
}

func syncJobColumns() []string {
	return []string{
		"id", "marketplace", "entity_kind", "entity_local_id", "operation",
		"status", "attempts", "max_attempts", "last_error", "claimed_at",
		"created_at", "updated_at",
	}
}

func TestGormSyncJobRepository_ClaimNext(t *testing.T) {
	t.Run("claims oldest pending job with SKIP LOCKED", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(syncJobColumns()).
			AddRow(jobID, integration.MarketplaceTrendyol, integration.EntityKindProduct,
				uuid.New().String(), integration.OperationCreate,
				integration.JobStatusPending, 0, 3, "", nil, now.Add(-time.Minute), now.Add(-time.Minute))

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "sync_jobs" WHERE marketplace = \$1 AND entity_kind = \$2 AND status = \$3 ORDER BY created_at ASC,.* LIMIT .* FOR UPDATE SKIP LOCKED`).
			WithArgs(integration.MarketplaceTrendyol, integration.EntityKindProduct, integration.JobStatusPending, 1).
			WillReturnRows(rows)
		mock.ExpectExec(`UPDATE "sync_jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		job, err := repo.ClaimNext(context.Background(), integration.MarketplaceTrendyol, integration.EntityKindProduct)

		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, jobID, job.ID)
		assert.Equal(t, integration.JobStatusProcessing, job.Status)
		assert.NotNil(t, job.ClaimedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil when no pending job exists", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "sync_jobs" WHERE marketplace = \$1 AND entity_kind = \$2 AND status = \$3`).
			WithArgs(integration.MarketplaceN11, integration.EntityKindOrder, integration.JobStatusPending, 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectCommit()

		job, err := repo.ClaimNext(context.Background(), integration.MarketplaceN11, integration.EntityKindOrder)

		assert.NoError(t, err)
		assert.Nil(t, job)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncJobRepository_MarkCompleted(t *testing.T) {
	t.Run("completes claimed job", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()

		mock.ExpectExec(`UPDATE "sync_jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MarkCompleted(context.Background(), jobID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for unknown job", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "sync_jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkCompleted(context.Background(), uuid.New())

		assert.ErrorIs(t, err, integration.ErrJobNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncJobRepository_MarkFailed(t *testing.T) {
	t.Run("retryable failure returns job to pending", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()
		now := time.Now()
		claimed := now.Add(-time.Second)

		rows := sqlmock.NewRows(syncJobColumns()).
			AddRow(jobID, integration.MarketplaceTrendyol, integration.EntityKindProduct,
				uuid.New().String(), integration.OperationCreate,
				integration.JobStatusProcessing, 0, 3, "", claimed, now.Add(-time.Minute), now)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "sync_jobs" WHERE id = \$1 .* FOR UPDATE`).
			WithArgs(jobID, 1).
			WillReturnRows(rows)
		mock.ExpectExec(`UPDATE "sync_jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		job, err := repo.MarkFailed(context.Background(), jobID, "gateway timeout", false)

		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, integration.JobStatusPending, job.Status)
		assert.Equal(t, 1, job.Attempts)
		assert.Equal(t, "gateway timeout", job.LastError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exhausted attempts land in error state", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()
		now := time.Now()
		claimed := now.Add(-time.Second)

		rows := sqlmock.NewRows(syncJobColumns()).
			AddRow(jobID, integration.MarketplaceTrendyol, integration.EntityKindProduct,
				uuid.New().String(), integration.OperationCreate,
				integration.JobStatusProcessing, 2, 3, "gateway timeout", claimed, now.Add(-time.Minute), now)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "sync_jobs" WHERE id = \$1 .* FOR UPDATE`).
			WithArgs(jobID, 1).
			WillReturnRows(rows)
		mock.ExpectExec(`UPDATE "sync_jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		job, err := repo.MarkFailed(context.Background(), jobID, "gateway timeout", false)

		require.NoError(t, err)
		assert.Equal(t, integration.JobStatusError, job.Status)
		assert.Equal(t, 3, job.Attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("terminal failure skips remaining attempts", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()
		now := time.Now()
		claimed := now.Add(-time.Second)

		rows := sqlmock.NewRows(syncJobColumns()).
			AddRow(jobID, integration.MarketplaceHepsiburada, integration.EntityKindProduct,
				uuid.New().String(), integration.OperationCreate,
				integration.JobStatusProcessing, 0, 3, "", claimed, now.Add(-time.Minute), now)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "sync_jobs" WHERE id = \$1 .* FOR UPDATE`).
			WithArgs(jobID, 1).
			WillReturnRows(rows)
		mock.ExpectExec(`UPDATE "sync_jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		job, err := repo.MarkFailed(context.Background(), jobID, "category mapping missing", true)

		require.NoError(t, err)
		assert.Equal(t, integration.JobStatusError, job.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for unknown job", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "sync_jobs" WHERE id = \$1 .* FOR UPDATE`).
			WithArgs(jobID, 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectRollback()

		job, err := repo.MarkFailed(context.Background(), jobID, "boom", false)

		assert.ErrorIs(t, err, integration.ErrJobNotFound)
		assert.Nil(t, job)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncJobRepository_Requeue(t *testing.T) {
	t.Run("resets attempts and returns job to pending", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "sync_jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Requeue(context.Background(), uuid.New())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncJobRepository_RequeueStuck(t *testing.T) {
	t.Run("releases jobs claimed past the cutoff", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "sync_jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 2))

		released, err := repo.RequeueStuck(context.Background(), 10*time.Minute)

		assert.NoError(t, err)
		assert.Equal(t, int64(2), released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncJobRepository_FindByID(t *testing.T) {
	t.Run("returns ErrJobNotFound for unknown id", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "sync_jobs" WHERE id = \$1`).
			WithArgs(jobID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		job, err := repo.FindByID(context.Background(), jobID)

		assert.ErrorIs(t, err, integration.ErrJobNotFound)
		assert.Nil(t, job)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncJobRepository_CountByStatus(t *testing.T) {
	t.Run("aggregates counts per status", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"status", "count"}).
			AddRow(integration.JobStatusPending, 4).
			AddRow(integration.JobStatusError, 1)

		mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM "sync_jobs" WHERE marketplace = \$1 GROUP BY status`).
			WithArgs(integration.MarketplaceTrendyol).
			WillReturnRows(rows)

		counts, err := repo.CountByStatus(context.Background(), integration.MarketplaceTrendyol)

		require.NoError(t, err)
		assert.Equal(t, int64(4), counts[integration.JobStatusPending])
		assert.Equal(t, int64(1), counts[integration.JobStatusError])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncJobRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements SyncJobRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockSyncJobRepository(t)
		defer mockDB.Close()

		var _ integration.SyncJobRepository = repo
	})
}
