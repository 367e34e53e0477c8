package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketsync/backend/internal/domain/integration"
)

// SyncLock is a per-marketplace lease that keeps concurrent cycle runs from
// overlapping. Acquire returns false when another holder owns the lease.
type SyncLock interface {
	Acquire(ctx context.Context, marketplace integration.MarketplaceCode, ttl time.Duration) (bool, error)
	Release(ctx context.Context, marketplace integration.MarketplaceCode) error
}

// ---------------------------------------------------------------------------
// Redis Implementation
// ---------------------------------------------------------------------------

// RedisSyncLock implements SyncLock with SETNX and a TTL. Suitable for
// distributed deployments where multiple instances run the cycle trigger;
// the TTL bounds how long a crashed holder can block the next cycle.
type RedisSyncLock struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSyncLock creates a new Redis-based sync lock
func NewRedisSyncLock(client *redis.Client, keyPrefix string) *RedisSyncLock {
	if keyPrefix == "" {
		keyPrefix = "sync:cycle:"
	}
	return &RedisSyncLock{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire takes the lease for a marketplace. Returns true if the lease was
// newly taken, false if another holder owns it.
func (l *RedisSyncLock) Acquire(ctx context.Context, marketplace integration.MarketplaceCode, ttl time.Duration) (bool, error) {
	key := l.keyPrefix + string(marketplace)
	acquired, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	return acquired, nil
}

// Release frees the lease
func (l *RedisSyncLock) Release(ctx context.Context, marketplace integration.MarketplaceCode) error {
	key := l.keyPrefix + string(marketplace)
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release sync lock: %w", err)
	}
	return nil
}

// Ensure RedisSyncLock implements SyncLock
var _ SyncLock = (*RedisSyncLock)(nil)

// ---------------------------------------------------------------------------
// In-Memory Implementation
// ---------------------------------------------------------------------------

// InMemorySyncLock implements SyncLock with a local map. Suitable for
// single-instance deployments and tests.
type InMemorySyncLock struct {
	mu     sync.Mutex
	leases map[integration.MarketplaceCode]time.Time
}

// NewInMemorySyncLock creates a new in-memory sync lock
func NewInMemorySyncLock() *InMemorySyncLock {
	return &InMemorySyncLock{
		leases: make(map[integration.MarketplaceCode]time.Time),
	}
}

// Acquire takes the lease for a marketplace
func (l *InMemorySyncLock) Acquire(_ context.Context, marketplace integration.MarketplaceCode, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.leases[marketplace]; held && time.Now().Before(expiry) {
		return false, nil
	}
	l.leases[marketplace] = time.Now().Add(ttl)
	return true, nil
}

// Release frees the lease
func (l *InMemorySyncLock) Release(_ context.Context, marketplace integration.MarketplaceCode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.leases, marketplace)
	return nil
}

// Ensure InMemorySyncLock implements SyncLock
var _ SyncLock = (*InMemorySyncLock)(nil)
