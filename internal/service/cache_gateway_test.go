package service

import (
	"context"
	"errors"
	"testing"
	"time"

	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports/mocks"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func newRedisGateway(t *testing.T) (*CacheGateway, *miniredis.Miniredis, *Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	metrics := NewMetrics(prometheus.NewRegistry())
	gw := NewCacheGateway(redisStore.NewCacheStore(client), 300*time.Second, 500*time.Millisecond, metrics, zerolog.Nop())
	return gw, mr, metrics
}

func TestCacheGateway_RoundTrip(t *testing.T) {
	gw, mr, metrics := newRedisGateway(t)
	ctx := context.Background()
	id := uuid.New()

	_, ok := gw.Get(ctx, id)
	assert.False(t, ok)

	gw.Set(ctx, id, 9007199254740993)

	key := domain.BalanceCacheKey(id)
	raw, err := mr.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, "9007199254740993", raw, "balance is stored as a JSON integer")
	assert.Equal(t, 300*time.Second, mr.TTL(key))

	balance, ok := gw.Get(ctx, id)
	assert.True(t, ok)
	assert.Equal(t, int64(9007199254740993), balance, "large balances round-trip exactly")

	gw.Invalidate(ctx, id)
	assert.False(t, mr.Exists(key))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheRequests.WithLabelValues(cacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheRequests.WithLabelValues(cacheMiss)))
}

func TestCacheGateway_SetWithTTL(t *testing.T) {
	gw, mr, _ := newRedisGateway(t)
	id := uuid.New()

	gw.SetWithTTL(context.Background(), id, 5, 10*time.Second)
	mr.FastForward(11 * time.Second)

	_, ok := gw.Get(context.Background(), id)
	assert.False(t, ok, "expired entries are absent")
}

func TestCacheGateway_UnreachableDegrades(t *testing.T) {
	gw, mr, metrics := newRedisGateway(t)
	ctx := context.Background()
	id := uuid.New()
	mr.Close()

	_, ok := gw.Get(ctx, id)
	assert.False(t, ok)
	gw.Set(ctx, id, 10)
	gw.Invalidate(ctx, id)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.cacheRequests.WithLabelValues(cacheError)))
}

func TestCacheGateway_UndecodableValueIsMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCacheStore(ctrl)
	gw := NewCacheGateway(store, time.Minute, 0, nil, zerolog.Nop())
	id := uuid.New()

	store.EXPECT().Get(gomock.Any(), domain.BalanceCacheKey(id)).Return([]byte(`"abc"`), nil)

	_, ok := gw.Get(context.Background(), id)
	assert.False(t, ok)
}

func TestCacheGateway_StoreErrorsNeverPropagate(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCacheStore(ctrl)
	gw := NewCacheGateway(store, time.Minute, 50*time.Millisecond, nil, zerolog.Nop())
	id := uuid.New()
	key := domain.BalanceCacheKey(id)

	store.EXPECT().Get(gomock.Any(), key).Return(nil, errors.New("i/o timeout"))
	store.EXPECT().SetWithTTL(gomock.Any(), key, []byte("42"), time.Minute).Return(errors.New("READONLY"))
	store.EXPECT().Delete(gomock.Any(), key).DoAndReturn(func(ctx context.Context, _ string) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "each cache call is bounded")
		return errors.New("connection reset")
	})

	_, ok := gw.Get(context.Background(), id)
	assert.False(t, ok)
	gw.Set(context.Background(), id, 42)
	gw.Invalidate(context.Background(), id)
}
