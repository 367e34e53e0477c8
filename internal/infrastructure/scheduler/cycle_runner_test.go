package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeReleaser struct {
	released int64
	err      error

	mu    sync.Mutex
	calls int
}

func (f *fakeReleaser) RequeueStuck(_ context.Context, _ time.Duration) (int64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.released, f.err
}

func (f *fakeReleaser) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeProductWorker struct {
	processed int
	err       error

	mu    sync.Mutex
	calls []integration.MarketplaceCode
}

func (f *fakeProductWorker) Drain(_ context.Context, marketplace integration.MarketplaceCode) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, marketplace)
	f.mu.Unlock()
	return f.processed, f.err
}

func (f *fakeProductWorker) Calls() []integration.MarketplaceCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]integration.MarketplaceCode, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeOrderWorker struct {
	drained  int
	drainErr error
	pulled   int
	pullErr  error

	mu        sync.Mutex
	windows   []integration.OrderWindow
	pullCalls []integration.MarketplaceCode
}

func (f *fakeOrderWorker) Drain(_ context.Context, _ integration.MarketplaceCode) (int, error) {
	return f.drained, f.drainErr
}

func (f *fakeOrderWorker) PullOrders(_ context.Context, marketplace integration.MarketplaceCode, window integration.OrderWindow) (int, error) {
	f.mu.Lock()
	f.pullCalls = append(f.pullCalls, marketplace)
	f.windows = append(f.windows, window)
	f.mu.Unlock()
	return f.pulled, f.pullErr
}

func (f *fakeOrderWorker) Windows() []integration.OrderWindow {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]integration.OrderWindow, len(f.windows))
	copy(out, f.windows)
	return out
}

func (f *fakeOrderWorker) PullCalls() []integration.MarketplaceCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]integration.MarketplaceCode, len(f.pullCalls))
	copy(out, f.pullCalls)
	return out
}

type stubGateway struct {
	code integration.MarketplaceCode
}

func (g *stubGateway) Marketplace() integration.MarketplaceCode { return g.code }
func (g *stubGateway) CreateProduct(context.Context, *integration.ProductPush) (*integration.ProductPushResult, error) {
	return nil, nil
}
func (g *stubGateway) UpdateProduct(context.Context, *integration.ProductPush) (*integration.ProductPushResult, error) {
	return nil, nil
}
func (g *stubGateway) PushOrderStatus(context.Context, string, string) error { return nil }
func (g *stubGateway) FetchOrders(context.Context, integration.OrderWindow) ([]integration.RemoteOrder, error) {
	return nil, nil
}
func (g *stubGateway) Ping(context.Context) error { return nil }

type stubRegistry struct {
	gateways []integration.MarketplaceGateway
}

func (r *stubRegistry) Gateway(code integration.MarketplaceCode) (integration.MarketplaceGateway, error) {
	for _, g := range r.gateways {
		if g.Marketplace() == code {
			return g, nil
		}
	}
	return nil, integration.ErrMarketplaceNotConfigured
}

func (r *stubRegistry) All() []integration.MarketplaceGateway { return r.gateways }

var _ integration.MarketplaceGateway = (*stubGateway)(nil)
var _ integration.GatewayRegistry = (*stubRegistry)(nil)

func newTestRunner(jobs *fakeReleaser, products *fakeProductWorker, orders *fakeOrderWorker, registry integration.GatewayRegistry) *CycleRunner {
	cfg := CycleRunnerConfig{
		LockTTL:     time.Minute,
		StuckJobAge: 10 * time.Minute,
		Lookback:    30 * time.Minute,
	}
	return NewCycleRunner(cfg, jobs, products, orders, registry, NewInMemorySyncLock(), zap.NewNop())
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCycleRunner_RunCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("runs all steps and reports counts", func(t *testing.T) {
		jobs := &fakeReleaser{released: 2}
		products := &fakeProductWorker{processed: 3}
		orders := &fakeOrderWorker{drained: 1, pulled: 4}
		runner := newTestRunner(jobs, products, orders, &stubRegistry{})

		report, err := runner.RunCycle(ctx, integration.MarketplaceTrendyol)

		require.NoError(t, err)
		assert.Equal(t, int64(2), report.ReleasedStuck)
		assert.Equal(t, 3, report.ProductJobs)
		assert.Equal(t, 1, report.OrderJobs)
		assert.Equal(t, 4, report.OrdersPulled)
		assert.Empty(t, report.Errors)
		assert.Equal(t, 1, jobs.Calls())
	})

	t.Run("polling window trails the configured lookback", func(t *testing.T) {
		orders := &fakeOrderWorker{}
		runner := newTestRunner(&fakeReleaser{}, &fakeProductWorker{}, orders, &stubRegistry{})

		before := time.Now()
		_, err := runner.RunCycle(ctx, integration.MarketplaceTrendyol)
		require.NoError(t, err)

		windows := orders.Windows()
		require.Len(t, windows, 1)
		window := windows[0]
		assert.WithinDuration(t, before.Add(-30*time.Minute), window.Start, 2*time.Second)
		assert.True(t, window.End.After(window.Start))
	})

	t.Run("failing step does not stop the cycle", func(t *testing.T) {
		jobs := &fakeReleaser{err: errors.New("db down")}
		products := &fakeProductWorker{err: errors.New("gateway down")}
		orders := &fakeOrderWorker{pulled: 2}
		runner := newTestRunner(jobs, products, orders, &stubRegistry{})

		report, err := runner.RunCycle(ctx, integration.MarketplaceTrendyol)

		require.NoError(t, err)
		assert.Len(t, report.Errors, 2)
		assert.Equal(t, 2, report.OrdersPulled)
		assert.Len(t, orders.PullCalls(), 1)
	})

	t.Run("held lease skips the cycle", func(t *testing.T) {
		lock := NewInMemorySyncLock()
		acquired, err := lock.Acquire(ctx, integration.MarketplaceTrendyol, time.Minute)
		require.NoError(t, err)
		require.True(t, acquired)

		runner := NewCycleRunner(DefaultCycleRunnerConfig(),
			&fakeReleaser{}, &fakeProductWorker{}, &fakeOrderWorker{}, &stubRegistry{}, lock, zap.NewNop())

		report, err := runner.RunCycle(ctx, integration.MarketplaceTrendyol)

		assert.ErrorIs(t, err, ErrCycleAlreadyRunning)
		assert.True(t, report.Skipped)
	})

	t.Run("lease is released after the cycle", func(t *testing.T) {
		runner := newTestRunner(&fakeReleaser{}, &fakeProductWorker{}, &fakeOrderWorker{}, &stubRegistry{})

		_, err := runner.RunCycle(ctx, integration.MarketplaceTrendyol)
		require.NoError(t, err)

		_, err = runner.RunCycle(ctx, integration.MarketplaceTrendyol)
		assert.NoError(t, err)
	})
}

func TestCycleRunner_RunAll(t *testing.T) {
	ctx := context.Background()

	t.Run("runs one cycle per configured marketplace", func(t *testing.T) {
		products := &fakeProductWorker{}
		orders := &fakeOrderWorker{}
		registry := &stubRegistry{gateways: []integration.MarketplaceGateway{
			&stubGateway{code: integration.MarketplaceTrendyol},
			&stubGateway{code: integration.MarketplaceN11},
		}}
		runner := newTestRunner(&fakeReleaser{}, products, orders, registry)

		reports, err := runner.RunAll(ctx)

		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Equal(t, []integration.MarketplaceCode{
			integration.MarketplaceTrendyol,
			integration.MarketplaceN11,
		}, products.Calls())
	})

	t.Run("held lease for one marketplace does not block the rest", func(t *testing.T) {
		lock := NewInMemorySyncLock()
		acquired, err := lock.Acquire(ctx, integration.MarketplaceTrendyol, time.Minute)
		require.NoError(t, err)
		require.True(t, acquired)

		products := &fakeProductWorker{}
		registry := &stubRegistry{gateways: []integration.MarketplaceGateway{
			&stubGateway{code: integration.MarketplaceTrendyol},
			&stubGateway{code: integration.MarketplaceN11},
		}}
		runner := NewCycleRunner(DefaultCycleRunnerConfig(),
			&fakeReleaser{}, products, &fakeOrderWorker{}, registry, lock, zap.NewNop())

		reports, err := runner.RunAll(ctx)

		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.True(t, reports[0].Skipped)
		assert.False(t, reports[1].Skipped)
		assert.Equal(t, []integration.MarketplaceCode{integration.MarketplaceN11}, products.Calls())
	})

	t.Run("failing marketplace does not stop the rest", func(t *testing.T) {
		products := &fakeProductWorker{}
		registry := &stubRegistry{gateways: []integration.MarketplaceGateway{
			&stubGateway{code: integration.MarketplaceTrendyol},
			&stubGateway{code: integration.MarketplaceN11},
		}}
		lock := &failingLock{
			inner:   NewInMemorySyncLock(),
			failFor: integration.MarketplaceTrendyol,
		}
		runner := NewCycleRunner(DefaultCycleRunnerConfig(),
			&fakeReleaser{}, products, &fakeOrderWorker{}, registry, lock, zap.NewNop())

		reports, err := runner.RunAll(ctx)

		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.NotEmpty(t, reports[0].Errors)
		assert.Empty(t, reports[1].Errors)
		assert.Equal(t, []integration.MarketplaceCode{integration.MarketplaceN11}, products.Calls())
	})
}

// failingLock fails Acquire for one marketplace and delegates the rest.
type failingLock struct {
	inner   SyncLock
	failFor integration.MarketplaceCode
}

func (l *failingLock) Acquire(ctx context.Context, marketplace integration.MarketplaceCode, ttl time.Duration) (bool, error) {
	if marketplace == l.failFor {
		return false, errors.New("redis unreachable")
	}
	return l.inner.Acquire(ctx, marketplace, ttl)
}

func (l *failingLock) Release(ctx context.Context, marketplace integration.MarketplaceCode) error {
	return l.inner.Release(ctx, marketplace)
}
