package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/integration"
)

func countByMarketplace(calls []integration.MarketplaceCode) map[integration.MarketplaceCode]int {
	counts := make(map[integration.MarketplaceCode]int)
	for _, code := range calls {
		counts[code]++
	}
	return counts
}

func TestCronTrigger_RunsOneLoopPerMarketplace(t *testing.T) {
	products := &fakeProductWorker{}
	registry := &stubRegistry{gateways: []integration.MarketplaceGateway{
		&stubGateway{code: integration.MarketplaceTrendyol},
		&stubGateway{code: integration.MarketplaceN11},
	}}
	runner := newTestRunner(&fakeReleaser{}, products, &fakeOrderWorker{}, registry)
	trigger := NewCronTrigger(CronTriggerConfig{Interval: 5 * time.Millisecond}, runner, zap.NewNop())

	require.NoError(t, trigger.Start(context.Background()))
	defer func() {
		require.NoError(t, trigger.Stop(context.Background()))
	}()

	// Each marketplace loop runs immediately and then on its own ticker.
	require.Eventually(t, func() bool {
		counts := countByMarketplace(products.Calls())
		return counts[integration.MarketplaceTrendyol] >= 2 && counts[integration.MarketplaceN11] >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCronTrigger_SlowMarketplaceDoesNotStallOthers(t *testing.T) {
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
	trigger := NewCronTrigger(CronTriggerConfig{Interval: 5 * time.Millisecond}, runner, zap.NewNop())

	require.NoError(t, trigger.Start(context.Background()))
	defer func() {
		require.NoError(t, trigger.Stop(context.Background()))
	}()

	// The broken marketplace keeps erroring on its own loop while the
	// healthy one keeps cycling.
	require.Eventually(t, func() bool {
		return countByMarketplace(products.Calls())[integration.MarketplaceN11] >= 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, countByMarketplace(products.Calls())[integration.MarketplaceTrendyol])
}

func TestCronTrigger_PerMarketplaceInterval(t *testing.T) {
	trigger := NewCronTrigger(CronTriggerConfig{
		Interval: time.Minute,
		Intervals: map[integration.MarketplaceCode]time.Duration{
			integration.MarketplaceN11: 30 * time.Second,
		},
	}, nil, zap.NewNop())

	assert.Equal(t, 30*time.Second, trigger.intervalFor(integration.MarketplaceN11))
	assert.Equal(t, time.Minute, trigger.intervalFor(integration.MarketplaceTrendyol))
}

func TestCronTrigger_StartStopIdempotent(t *testing.T) {
	runner := newTestRunner(&fakeReleaser{}, &fakeProductWorker{}, &fakeOrderWorker{}, &stubRegistry{})
	trigger := NewCronTrigger(DefaultCronTriggerConfig(), runner, zap.NewNop())

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Stop(context.Background()))
	require.NoError(t, trigger.Stop(context.Background()))
}
