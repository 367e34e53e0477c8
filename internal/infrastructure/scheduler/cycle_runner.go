package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Worker Ports
// ---------------------------------------------------------------------------

// ProductWorker drains queued product jobs for one marketplace.
type ProductWorker interface {
	Drain(ctx context.Context, marketplace integration.MarketplaceCode) (int, error)
}

// OrderWorker drains queued order jobs and polls for new remote orders.
type OrderWorker interface {
	Drain(ctx context.Context, marketplace integration.MarketplaceCode) (int, error)
	PullOrders(ctx context.Context, marketplace integration.MarketplaceCode, window integration.OrderWindow) (int, error)
}

// StuckJobReleaser returns abandoned processing jobs to pending.
type StuckJobReleaser interface {
	RequeueStuck(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ---------------------------------------------------------------------------
// CycleRunner
// ---------------------------------------------------------------------------

// CycleRunnerConfig holds configuration for a sync cycle.
type CycleRunnerConfig struct {
	// LockTTL bounds how long a crashed run can block the next cycle.
	LockTTL time.Duration

	// StuckJobAge is how long a job may sit in processing before it is
	// treated as abandoned and returned to pending.
	StuckJobAge time.Duration

	// Lookback is the trailing order-polling window. It overlaps with
	// previous cycles on purpose; the unique key on imported orders makes
	// the overlap harmless.
	Lookback time.Duration
}

// DefaultCycleRunnerConfig returns default cycle configuration
func DefaultCycleRunnerConfig() CycleRunnerConfig {
	return CycleRunnerConfig{
		LockTTL:     10 * time.Minute,
		StuckJobAge: 10 * time.Minute,
		Lookback:    30 * time.Minute,
	}
}

// CycleReport summarizes one sync cycle for one marketplace.
type CycleReport struct {
	Marketplace   integration.MarketplaceCode `json:"marketplace"`
	ReleasedStuck int64                       `json:"released_stuck"`
	ProductJobs   int                         `json:"product_jobs"`
	OrderJobs     int                         `json:"order_jobs"`
	OrdersPulled  int                         `json:"orders_pulled"`
	Skipped       bool                        `json:"skipped"`
	Errors        []string                    `json:"errors,omitempty"`
	StartedAt     time.Time                   `json:"started_at"`
	Duration      time.Duration               `json:"duration"`
}

// CycleRunner executes one sync cycle per marketplace: release stuck jobs,
// drain the product queue, drain the order status queue, then poll for new
// remote orders. Steps are independent; a failing step is recorded and the
// cycle moves on so one broken concern cannot starve the others.
type CycleRunner struct {
	config   CycleRunnerConfig
	jobs     StuckJobReleaser
	products ProductWorker
	orders   OrderWorker
	registry integration.GatewayRegistry
	lock     SyncLock
	logger   *zap.Logger
}

// NewCycleRunner creates a new cycle runner
func NewCycleRunner(
	config CycleRunnerConfig,
	jobs StuckJobReleaser,
	products ProductWorker,
	orders OrderWorker,
	registry integration.GatewayRegistry,
	lock SyncLock,
	logger *zap.Logger,
) *CycleRunner {
	return &CycleRunner{
		config:   config,
		jobs:     jobs,
		products: products,
		orders:   orders,
		registry: registry,
		lock:     lock,
		logger:   logger,
	}
}

// RunCycle executes one cycle for a marketplace. Returns
// ErrCycleAlreadyRunning when another holder owns the cycle lease.
func (r *CycleRunner) RunCycle(ctx context.Context, marketplace integration.MarketplaceCode) (*CycleReport, error) {
	acquired, err := r.lock.Acquire(ctx, marketplace, r.config.LockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		r.logger.Info("Sync cycle lease held elsewhere, skipping",
			zap.String("marketplace", string(marketplace)),
		)
		return &CycleReport{Marketplace: marketplace, Skipped: true}, ErrCycleAlreadyRunning
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx), marketplace); err != nil {
			r.logger.Warn("Failed to release sync cycle lease",
				zap.String("marketplace", string(marketplace)),
				zap.Error(err),
			)
		}
	}()

	report := &CycleReport{
		Marketplace: marketplace,
		StartedAt:   time.Now(),
	}

	released, err := r.jobs.RequeueStuck(ctx, r.config.StuckJobAge)
	if err != nil {
		r.recordStepError(report, marketplace, "requeue stuck jobs", err)
	} else {
		report.ReleasedStuck = released
	}

	if processed, err := r.products.Drain(ctx, marketplace); err != nil {
		report.ProductJobs = processed
		r.recordStepError(report, marketplace, "drain product queue", err)
	} else {
		report.ProductJobs = processed
	}

	if processed, err := r.orders.Drain(ctx, marketplace); err != nil {
		report.OrderJobs = processed
		r.recordStepError(report, marketplace, "drain order queue", err)
	} else {
		report.OrderJobs = processed
	}

	now := time.Now()
	window := integration.OrderWindow{Start: now.Add(-r.config.Lookback), End: now}
	if pulled, err := r.orders.PullOrders(ctx, marketplace, window); err != nil {
		report.OrdersPulled = pulled
		r.recordStepError(report, marketplace, "poll remote orders", err)
	} else {
		report.OrdersPulled = pulled
	}

	report.Duration = time.Since(report.StartedAt)

	r.logger.Info("Sync cycle completed",
		zap.String("marketplace", string(marketplace)),
		zap.Int64("released_stuck", report.ReleasedStuck),
		zap.Int("product_jobs", report.ProductJobs),
		zap.Int("order_jobs", report.OrderJobs),
		zap.Int("orders_pulled", report.OrdersPulled),
		zap.Int("step_errors", len(report.Errors)),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}

// RunAll executes one cycle for every configured marketplace. A marketplace
// whose lease is held elsewhere is skipped, and one whose cycle fails is
// recorded; neither stops the remaining marketplaces.
func (r *CycleRunner) RunAll(ctx context.Context) ([]CycleReport, error) {
	gateways := r.registry.All()
	reports := make([]CycleReport, 0, len(gateways))

	for _, gateway := range gateways {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		marketplace := gateway.Marketplace()
		report, err := r.RunCycle(ctx, marketplace)
		if err != nil && !errors.Is(err, ErrCycleAlreadyRunning) {
			r.logger.Error("Sync cycle failed",
				zap.String("marketplace", string(marketplace)),
				zap.Error(err),
			)
			reports = append(reports, CycleReport{Marketplace: marketplace, Errors: []string{err.Error()}})
			continue
		}
		if report != nil {
			reports = append(reports, *report)
		}
	}
	return reports, nil
}

// Marketplaces lists the marketplaces the runner cycles over.
func (r *CycleRunner) Marketplaces() []integration.MarketplaceCode {
	gateways := r.registry.All()
	codes := make([]integration.MarketplaceCode, 0, len(gateways))
	for _, gateway := range gateways {
		codes = append(codes, gateway.Marketplace())
	}
	return codes
}

func (r *CycleRunner) recordStepError(report *CycleReport, marketplace integration.MarketplaceCode, step string, err error) {
	report.Errors = append(report.Errors, step+": "+err.Error())
	r.logger.Error("Sync cycle step failed",
		zap.String("marketplace", string(marketplace)),
		zap.String("step", step),
		zap.Error(err),
	)
}
