package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/integration"
)

// CronTriggerConfig holds configuration for the cycle cron trigger
type CronTriggerConfig struct {
	// Interval is the default cycle cadence.
	Interval time.Duration

	// Intervals overrides the cadence per marketplace. Marketplaces without
	// an entry run on Interval.
	Intervals map[integration.MarketplaceCode]time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Interval: 5 * time.Minute,
	}
}

// CronTrigger runs one scheduler loop per configured marketplace, each on
// its own ticker, so marketplaces cycle independently: a slow or failing
// one cannot delay the others. The per-marketplace lease in the runner
// keeps overlapping instances from double-processing.
type CronTrigger struct {
	config CronTriggerConfig
	runner *CycleRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, runner *CycleRunner, logger *zap.Logger) *CronTrigger {
	return &CronTrigger{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Start starts one loop per configured marketplace
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for _, marketplace := range c.runner.Marketplaces() {
		interval := c.intervalFor(marketplace)
		c.wg.Add(1)
		go c.runLoop(ctx, marketplace, interval)

		c.logger.Info("Sync cycle trigger started",
			zap.String("marketplace", string(marketplace)),
			zap.Duration("interval", interval),
		)
	}

	return nil
}

// Stop stops all marketplace loops
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Sync cycle trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) intervalFor(marketplace integration.MarketplaceCode) time.Duration {
	if interval, ok := c.config.Intervals[marketplace]; ok && interval > 0 {
		return interval
	}
	return c.config.Interval
}

// runLoop cycles one marketplace on its own cadence until the context is
// canceled
func (c *CronTrigger) runLoop(ctx context.Context, marketplace integration.MarketplaceCode, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	c.runOnce(ctx, marketplace)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runOnce(ctx, marketplace)
		}
	}
}

func (c *CronTrigger) runOnce(ctx context.Context, marketplace integration.MarketplaceCode) {
	if _, err := c.runner.RunCycle(ctx, marketplace); err != nil && !errors.Is(err, ErrCycleAlreadyRunning) {
		c.logger.Error("Sync cycle run failed",
			zap.String("marketplace", string(marketplace)),
			zap.Error(err),
		)
	}
}

// TriggerManualCycle runs one cycle for a single marketplace outside the
// schedule
func (c *CronTrigger) TriggerManualCycle(ctx context.Context, marketplace integration.MarketplaceCode) (*CycleReport, error) {
	c.logger.Info("Manual sync cycle triggered",
		zap.String("marketplace", string(marketplace)),
	)
	return c.runner.RunCycle(ctx, marketplace)
}
