package service

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wallet-ledger/internal/adapter/storage/memory"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledger wires the services over the in-memory store and a miniredis cache.
type ledger struct {
	ops     *OperationServiceImpl
	wallets *WalletServiceImpl
	cache   *CacheGateway
	redis   *miniredis.Miniredis
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	store := memory.NewStore()
	walletRepo := memory.NewWalletRepo(store)
	opRepo := memory.NewOperationRepo(store)
	cache := NewCacheGateway(redisStore.NewCacheStore(client), 300*time.Second, 200*time.Millisecond, nil, zerolog.Nop())

	return &ledger{
		ops:     NewOperationService(walletRepo, opRepo, store, cache, nil, zerolog.Nop()),
		wallets: NewWalletService(walletRepo, opRepo, cache, nil, zerolog.Nop()),
		cache:   cache,
		redis:   mr,
	}
}

func (l *ledger) fund(t *testing.T, amount int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := l.wallets.Create(context.Background(), id.String())
	require.NoError(t, err)
	if amount > 0 {
		_, err = l.ops.Apply(context.Background(), ports.OperationRequest{
			WalletID: id.String(), OperationType: "DEPOSIT", Amount: amount,
		})
		require.NoError(t, err)
	}
	return id
}

func (l *ledger) history(t *testing.T, id uuid.UUID) []domain.Operation {
	t.Helper()
	page, err := l.wallets.ListOperations(context.Background(), id.String(), domain.MaxOperationsLimit, 0)
	require.NoError(t, err)
	require.Equal(t, int64(len(page.Items)), page.Total)
	return page.Items
}

func TestLedger_ConcurrentWithdrawalsDrainExactly(t *testing.T) {
	l := newLedger(t)
	id := l.fund(t, 10000)

	const workers = 100
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.ops.Apply(context.Background(), ports.OperationRequest{
				WalletID: id.String(), OperationType: "WITHDRAW", Amount: 100,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	balance, err := l.wallets.GetBalance(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
	assert.Len(t, l.history(t, id), workers+1)
}

func TestLedger_OverdraftRaceAdmitsOnlyCoveredWithdrawals(t *testing.T) {
	l := newLedger(t)
	id := l.fund(t, 1000)

	var succeeded, rejected atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.ops.Apply(context.Background(), ports.OperationRequest{
				WalletID: id.String(), OperationType: "WITHDRAW", Amount: 300,
			})
			switch apperror.CodeOf(err) {
			case "":
				succeeded.Add(1)
			case "WLT_003":
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), succeeded.Load())
	assert.Equal(t, int32(7), rejected.Load())

	balance, err := l.wallets.GetBalance(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
	assert.Len(t, l.history(t, id), 4, "rejected withdrawals leave no trace")
}

func TestLedger_HistoryReplaysToBalance(t *testing.T) {
	l := newLedger(t)
	id := l.fund(t, 500)

	var wg sync.WaitGroup
	for i := range 60 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			opType := "DEPOSIT"
			if i%2 == 1 {
				opType = "WITHDRAW"
			}
			// Insufficient-funds rejections are expected and ignored.
			_, _ = l.ops.Apply(context.Background(), ports.OperationRequest{
				WalletID: id.String(), OperationType: opType, Amount: rand.Int64N(200) + 1,
			})
		}()
	}
	wg.Wait()

	ops := l.history(t, id)
	sort.Slice(ops, func(i, j int) bool { return ops[i].ID < ops[j].ID })

	var running int64
	for _, op := range ops {
		switch op.OperationType {
		case domain.OperationTypeDeposit:
			running += op.Amount
		case domain.OperationTypeWithdraw:
			running -= op.Amount
		}
		require.Equal(t, running, op.BalanceAfter, "operation %d", op.ID)
		require.GreaterOrEqual(t, op.BalanceAfter, int64(0))
	}

	balance, err := l.wallets.GetBalance(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, running, balance)
}

func TestLedger_ReadAfterWriteIgnoresStaleCache(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	id := l.fund(t, 0)

	balance, err := l.wallets.GetBalance(ctx, id.String())
	require.NoError(t, err)
	require.Equal(t, int64(0), balance)
	require.True(t, l.redis.Exists(domain.BalanceCacheKey(id)), "read populated the cache")

	result, err := l.ops.Apply(ctx, ports.OperationRequest{
		WalletID: id.String(), OperationType: "DEPOSIT", Amount: 250,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(250), result.Balance)
	assert.False(t, l.redis.Exists(domain.BalanceCacheKey(id)), "commit invalidated the cache")

	balance, err = l.wallets.GetBalance(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance)
}

func TestLedger_HistoryNewestFirst(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	id := l.fund(t, 1000)

	_, err := l.ops.Apply(ctx, ports.OperationRequest{WalletID: id.String(), OperationType: "WITHDRAW", Amount: 300})
	require.NoError(t, err)

	ops := l.history(t, id)
	require.Len(t, ops, 2)
	assert.Equal(t, domain.OperationTypeWithdraw, ops[0].OperationType)
	assert.Equal(t, int64(700), ops[0].BalanceAfter)
	assert.Equal(t, domain.OperationTypeDeposit, ops[1].OperationType)
	assert.Equal(t, int64(1000), ops[1].BalanceAfter)

	page, err := l.wallets.ListOperations(ctx, id.String(), 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.OperationTypeDeposit, page.Items[0].OperationType)
	assert.Equal(t, int64(2), page.Total)
}

func TestLedger_CacheOutageDoesNotFailRequests(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	id := l.fund(t, 100)
	l.redis.Close()

	result, err := l.ops.Apply(ctx, ports.OperationRequest{WalletID: id.String(), OperationType: "WITHDRAW", Amount: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(60), result.Balance)

	balance, err := l.wallets.GetBalance(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, int64(60), balance)
}

func TestLedger_LockWaitHonoursCancellation(t *testing.T) {
	store := memory.NewStore()
	walletRepo := memory.NewWalletRepo(store)
	opRepo := memory.NewOperationRepo(store)
	svc := NewOperationService(walletRepo, opRepo, store, noopCache{}, nil, zerolog.Nop())

	id := uuid.New()
	require.NoError(t, walletRepo.Create(context.Background(), &domain.Wallet{UUID: id}))

	holder, err := store.Begin(context.Background())
	require.NoError(t, err)
	_, err = walletRepo.GetByUUIDForUpdate(context.Background(), holder, id)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = svc.Apply(ctx, ports.OperationRequest{WalletID: id.String(), OperationType: "DEPOSIT", Amount: 1})
	assertAppError(t, err, "SYS_001")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, holder.Rollback(context.Background()))

	result, err := svc.Apply(context.Background(), ports.OperationRequest{WalletID: id.String(), OperationType: "DEPOSIT", Amount: 1})
	require.NoError(t, err, "abandoned waiter must not leave the row locked")
	assert.Equal(t, int64(1), result.Balance)
}

type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID) (int64, bool)                { return 0, false }
func (noopCache) Set(context.Context, uuid.UUID, int64)                       {}
func (noopCache) SetWithTTL(context.Context, uuid.UUID, int64, time.Duration) {}
func (noopCache) Invalidate(context.Context, uuid.UUID)                       {}
