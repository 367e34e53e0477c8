package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncJob Types
// ---------------------------------------------------------------------------

// EntityKind is the kind of entity a sync job operates on.
type EntityKind string

const (
	// EntityKindProduct is a catalog push job.
	EntityKindProduct EntityKind = "product"
	// EntityKindOrder is an order push job.
	EntityKindOrder EntityKind = "order"
)

// IsValid returns true if the entity kind is known.
func (k EntityKind) IsValid() bool {
	return k == EntityKindProduct || k == EntityKindOrder
}

// JobOperation is the operation a sync job performs against the marketplace.
type JobOperation string

const (
	// OperationCreate creates the entity on the marketplace.
	OperationCreate JobOperation = "create"
	// OperationUpdate updates an already-mapped entity.
	OperationUpdate JobOperation = "update"
	// OperationStatusPush pushes a local order-status change outward.
	OperationStatusPush JobOperation = "statusPush"
)

// IsValid returns true if the operation is known.
func (o JobOperation) IsValid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationStatusPush:
		return true
	default:
		return false
	}
}

// JobStatus is the lifecycle state of a sync job.
type JobStatus string

const (
	// JobStatusPending means the job is queued and claimable.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing means a worker has claimed the job.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted is the successful terminal state.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusError is the terminal state after the retry ceiling is
	// exhausted; the job needs a manual or scheduled re-enqueue.
	JobStatusError JobStatus = "error"
)

// IsTerminal returns true for completed and error.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

// ---------------------------------------------------------------------------
// SyncJob Entity
// ---------------------------------------------------------------------------

// DefaultMaxAttempts is the retry ceiling applied when a job is enqueued
// without an explicit one.
const DefaultMaxAttempts = 3

// SyncJob is a unit of pending work to push local state to, or reconcile
// remote state from, one marketplace. Jobs are created by workers or the
// webhook ingestor and mutated only by the worker that claims them.
type SyncJob struct {
	ID            uuid.UUID
	Marketplace   MarketplaceCode
	EntityKind    EntityKind
	EntityLocalID string
	Operation     JobOperation
	Status        JobStatus
	Attempts      int
	MaxAttempts   int
	LastError     string
	// ClaimedAt is set when a worker claims the job; used by the
	// stuck-processing sweep after a crash.
	ClaimedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSyncJob creates a pending sync job.
func NewSyncJob(marketplace MarketplaceCode, kind EntityKind, localID string, op JobOperation) (*SyncJob, error) {
	if !marketplace.IsValid() {
		return nil, ErrInvalidMarketplace
	}
	if !kind.IsValid() {
		return nil, ErrInvalidEntityKind
	}
	if localID == "" {
		return nil, ErrInvalidLocalID
	}
	if !op.IsValid() {
		return nil, ErrInvalidOperation
	}

	now := time.Now()
	return &SyncJob{
		ID:            uuid.New(),
		Marketplace:   marketplace,
		EntityKind:    kind,
		EntityLocalID: localID,
		Operation:     op,
		Status:        JobStatusPending,
		MaxAttempts:   DefaultMaxAttempts,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Claim transitions pending → processing. Only valid on a pending job; the
// repository enforces the same transition atomically in storage.
func (j *SyncJob) Claim() error {
	if j.Status != JobStatusPending {
		return ErrJobNotClaimable
	}
	now := time.Now()
	j.Status = JobStatusProcessing
	j.ClaimedAt = &now
	j.UpdatedAt = now
	return nil
}

// Complete transitions the job to its successful terminal state.
func (j *SyncJob) Complete() {
	j.Status = JobStatusCompleted
	j.LastError = ""
	j.UpdatedAt = time.Now()
}

// Fail records a failed attempt. The job returns to pending while attempts
// remain below the ceiling; once the ceiling is reached it transitions to
// the terminal error state.
func (j *SyncJob) Fail(errMsg string) {
	j.Attempts++
	j.LastError = errMsg
	j.ClaimedAt = nil
	if j.Attempts >= j.MaxAttempts {
		j.Status = JobStatusError
	} else {
		j.Status = JobStatusPending
	}
	j.UpdatedAt = time.Now()
}

// FailTerminal moves the job straight to the error state regardless of
// remaining attempts. Used for non-retryable failures such as missing
// mappings, which require operator action.
func (j *SyncJob) FailTerminal(errMsg string) {
	j.Attempts++
	j.LastError = errMsg
	j.ClaimedAt = nil
	j.Status = JobStatusError
	j.UpdatedAt = time.Now()
}

// Requeue returns a terminal-error job to pending with a fresh attempt
// budget. Used by the manual re-enqueue surface.
func (j *SyncJob) Requeue() {
	j.Status = JobStatusPending
	j.Attempts = 0
	j.LastError = ""
	j.ClaimedAt = nil
	j.UpdatedAt = time.Now()
}

// Exhausted returns true once the attempt budget is used up.
func (j *SyncJob) Exhausted() bool {
	return j.Attempts >= j.MaxAttempts
}

// ---------------------------------------------------------------------------
// SyncJobRepository Port
// ---------------------------------------------------------------------------

// SyncJobFilter defines filter criteria for job listings.
type SyncJobFilter struct {
	Marketplace *MarketplaceCode
	EntityKind  *EntityKind
	Status      *JobStatus
	Page        int
	PageSize    int
}

// SyncJobRepository is the durable job store. ClaimNext must be atomic:
// two concurrent calls never return the same job.
type SyncJobRepository interface {
	// Enqueue persists a new pending job.
	Enqueue(ctx context.Context, job *SyncJob) error

	// ClaimNext atomically claims the oldest pending job for the
	// marketplace and kind, flipping it to processing. Returns (nil, nil)
	// when no job is claimable.
	ClaimNext(ctx context.Context, marketplace MarketplaceCode, kind EntityKind) (*SyncJob, error)

	// MarkCompleted transitions a claimed job to completed.
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// MarkFailed records a failed attempt, incrementing attempts. When the
	// ceiling is reached the job becomes terminal error instead of pending.
	// terminal=true forces the error state immediately (non-retryable
	// failures). Returns the updated job.
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, terminal bool) (*SyncJob, error)

	// Requeue returns a terminal-error job to pending with reset attempts.
	Requeue(ctx context.Context, id uuid.UUID) error

	// RequeueStuck returns to pending every job left in processing longer
	// than the given age (crash recovery). Reports how many were swept.
	RequeueStuck(ctx context.Context, olderThan time.Duration) (int64, error)

	// FindByID retrieves one job.
	FindByID(ctx context.Context, id uuid.UUID) (*SyncJob, error)

	// List returns jobs matching the filter plus the total count.
	List(ctx context.Context, filter SyncJobFilter) ([]SyncJob, int64, error)

	// CountByStatus returns job counts per status for one marketplace.
	CountByStatus(ctx context.Context, marketplace MarketplaceCode) (map[JobStatus]int64, error)
}
