package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	cacheHit     = "hit"
	cacheMiss    = "miss"
	cacheError   = "error"
	cacheSet     = "set"
	cacheDeleted = "invalidated"
)

// CacheGateway implements ports.BalanceCache over a ports.CacheStore.
// Store failures never reach callers.
type CacheGateway struct {
	store     ports.CacheStore
	ttl       time.Duration
	opTimeout time.Duration
	metrics   *Metrics
	log       zerolog.Logger
}

// NewCacheGateway creates a balance cache with a default ttl and a per-call timeout.
func NewCacheGateway(store ports.CacheStore, ttl, opTimeout time.Duration, metrics *Metrics, log zerolog.Logger) *CacheGateway {
	return &CacheGateway{
		store:     store,
		ttl:       ttl,
		opTimeout: opTimeout,
		metrics:   metrics,
		log:       log,
	}
}

// Get returns the cached balance and whether it was present and decodable.
func (g *CacheGateway) Get(ctx context.Context, walletID uuid.UUID) (int64, bool) {
	key := domain.BalanceCacheKey(walletID)
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	raw, err := g.store.Get(ctx, key)
	if err != nil {
		g.fail(err, key, "get")
		return 0, false
	}
	if raw == nil {
		g.metrics.cacheResult(cacheMiss)
		return 0, false
	}

	var balance int64
	if err := json.Unmarshal(raw, &balance); err != nil {
		g.fail(fmt.Errorf("decode cached balance: %w", err), key, "get")
		return 0, false
	}
	g.metrics.cacheResult(cacheHit)
	return balance, true
}

// Set stores balance with the default ttl.
func (g *CacheGateway) Set(ctx context.Context, walletID uuid.UUID, balance int64) {
	g.SetWithTTL(ctx, walletID, balance, g.ttl)
}

// SetWithTTL stores balance with an explicit ttl.
func (g *CacheGateway) SetWithTTL(ctx context.Context, walletID uuid.UUID, balance int64, ttl time.Duration) {
	key := domain.BalanceCacheKey(walletID)
	value, err := json.Marshal(balance)
	if err != nil {
		g.fail(err, key, "set")
		return
	}

	ctx, cancel := g.callContext(ctx)
	defer cancel()

	if err := g.store.SetWithTTL(ctx, key, value, ttl); err != nil {
		g.fail(err, key, "set")
		return
	}
	g.metrics.cacheResult(cacheSet)
}

// Invalidate deletes the cached balance.
func (g *CacheGateway) Invalidate(ctx context.Context, walletID uuid.UUID) {
	key := domain.BalanceCacheKey(walletID)
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	if err := g.store.Delete(ctx, key); err != nil {
		g.fail(err, key, "delete")
		return
	}
	g.metrics.cacheResult(cacheDeleted)
}

func (g *CacheGateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.opTimeout)
}

func (g *CacheGateway) fail(err error, key, op string) {
	g.metrics.cacheResult(cacheError)
	g.log.Warn().Err(err).Str("key", key).Str("op", op).Msg("balance cache unavailable, continuing without it")
}
