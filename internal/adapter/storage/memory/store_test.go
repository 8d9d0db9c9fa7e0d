package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *Store
	wallets *WalletRepo
	ops     *OperationRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := NewStore()
	return fixture{store: s, wallets: NewWalletRepo(s), ops: NewOperationRepo(s)}
}

func (f fixture) createWallet(t *testing.T, balance int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, f.wallets.Create(ctx, &domain.Wallet{UUID: id}))
	if balance > 0 {
		tx, err := f.store.Begin(ctx)
		require.NoError(t, err)
		_, err = f.wallets.GetByUUIDForUpdate(ctx, tx, id)
		require.NoError(t, err)
		require.NoError(t, f.wallets.UpdateBalance(ctx, tx, id, balance))
		require.NoError(t, tx.Commit(ctx))
	}
	return id
}

func TestWalletRepo_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()

	w := &domain.Wallet{UUID: id, Balance: 999}
	require.NoError(t, f.wallets.Create(ctx, w))
	assert.Equal(t, int64(0), w.Balance, "new wallets start at zero")
	assert.False(t, w.CreatedAt.IsZero())

	got, err := f.wallets.GetByUUID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.UUID)

	exists, err := f.wallets.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWalletRepo_CreateDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createWallet(t, 500)

	err := f.wallets.Create(ctx, &domain.Wallet{UUID: id})
	assert.ErrorIs(t, err, ports.ErrWalletExists)

	got, err := f.wallets.GetByUUID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.Balance, "state unchanged after conflict")
}

func TestWalletRepo_MissingWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()

	got, err := f.wallets.GetByUUID(ctx, id)
	assert.NoError(t, err)
	assert.Nil(t, got)

	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	locked, err := f.wallets.GetByUUIDForUpdate(ctx, tx, id)
	assert.NoError(t, err)
	assert.Nil(t, locked)
}

func TestTx_RollbackDiscardsWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createWallet(t, 1000)

	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	_, err = f.wallets.GetByUUIDForUpdate(ctx, tx, id)
	require.NoError(t, err)
	require.NoError(t, f.wallets.UpdateBalance(ctx, tx, id, 1))
	require.NoError(t, f.ops.Create(ctx, tx, &domain.Operation{
		WalletUUID: id, OperationType: domain.OperationTypeWithdraw, Amount: 999, BalanceAfter: 1,
	}))

	locked, err := f.wallets.GetByUUIDForUpdate(ctx, tx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), locked.Balance, "staged balance visible inside the transaction")

	committed, err := f.wallets.GetByUUID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), committed.Balance, "staged balance invisible outside")

	require.NoError(t, tx.Rollback(ctx))

	committed, err = f.wallets.GetByUUID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), committed.Balance)

	count, err := f.ops.CountByWallet(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestTx_CommitTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.ErrorIs(t, tx.Commit(ctx), pgx.ErrTxClosed)
	assert.ErrorIs(t, tx.Rollback(ctx), pgx.ErrTxClosed)
}

func TestWrites_RequireRowLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createWallet(t, 0)

	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	assert.Error(t, f.wallets.UpdateBalance(ctx, tx, id, 10))
	assert.Error(t, f.ops.Create(ctx, tx, &domain.Operation{WalletUUID: id, Amount: 1}))
}

type foreignTx struct{ pgx.Tx }

func TestForeignTransactionRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createWallet(t, 0)

	_, err := f.wallets.GetByUUIDForUpdate(ctx, foreignTx{}, id)
	assert.ErrorIs(t, err, errForeignTx)
}

func TestRowLock_IsExclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createWallet(t, 100)

	first, err := f.store.Begin(ctx)
	require.NoError(t, err)
	_, err = f.wallets.GetByUUIDForUpdate(ctx, first, id)
	require.NoError(t, err)

	acquired := make(chan *domain.Wallet, 1)
	go func() {
		second, err := f.store.Begin(ctx)
		if err != nil {
			return
		}
		defer second.Rollback(ctx)
		w, _ := f.wallets.GetByUUIDForUpdate(ctx, second, id)
		acquired <- w
	}()

	select {
	case <-acquired:
		t.Fatal("second transaction acquired a held lock")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, f.wallets.UpdateBalance(ctx, first, id, 40))
	require.NoError(t, first.Commit(ctx))

	select {
	case w := <-acquired:
		require.NotNil(t, w)
		assert.Equal(t, int64(40), w.Balance, "waiter sees the committed balance")
	case <-time.After(time.Second):
		t.Fatal("lock was not released on commit")
	}
}

func TestRowLock_WaitHonoursCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createWallet(t, 0)

	holder, err := f.store.Begin(ctx)
	require.NoError(t, err)
	_, err = f.wallets.GetByUUIDForUpdate(ctx, holder, id)
	require.NoError(t, err)
	defer holder.Rollback(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	waiter, err := f.store.Begin(ctx)
	require.NoError(t, err)
	defer waiter.Rollback(ctx)

	_, err = f.wallets.GetByUUIDForUpdate(waitCtx, waiter, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRowLock_DifferentWalletsDoNotContend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createWallet(t, 0)
	b := f.createWallet(t, 0)

	txA, err := f.store.Begin(ctx)
	require.NoError(t, err)
	defer txA.Rollback(ctx)
	_, err = f.wallets.GetByUUIDForUpdate(ctx, txA, a)
	require.NoError(t, err)

	shortCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	txB, err := f.store.Begin(ctx)
	require.NoError(t, err)
	defer txB.Rollback(ctx)
	_, err = f.wallets.GetByUUIDForUpdate(shortCtx, txB, b)
	assert.NoError(t, err)
}

func TestOperationRepo_ListOrderAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createWallet(t, 0)

	for i := int64(1); i <= 5; i++ {
		tx, err := f.store.Begin(ctx)
		require.NoError(t, err)
		_, err = f.wallets.GetByUUIDForUpdate(ctx, tx, id)
		require.NoError(t, err)
		require.NoError(t, f.wallets.UpdateBalance(ctx, tx, id, i*10))
		require.NoError(t, f.ops.Create(ctx, tx, &domain.Operation{
			WalletUUID: id, OperationType: domain.OperationTypeDeposit, Amount: 10, BalanceAfter: i * 10,
		}))
		require.NoError(t, tx.Commit(ctx))
	}

	all, err := f.ops.ListByWallet(ctx, id, domain.NormalizePage(0, 0))
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1].ID, all[i].ID, "newest first")
	}
	assert.Equal(t, int64(50), all[0].BalanceAfter)

	page, err := f.ops.ListByWallet(ctx, id, domain.Page{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[1].ID, page[0].ID)
	assert.Equal(t, all[2].ID, page[1].ID)

	beyond, err := f.ops.ListByWallet(ctx, id, domain.Page{Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond)

	total, err := f.ops.CountByWallet(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestConcurrentCreate_ExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.wallets.Create(ctx, &domain.Wallet{UUID: id})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if assert.ErrorIs(t, err, ports.ErrWalletExists) {
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 19, conflict)
}

func TestStore_Health(t *testing.T) {
	s := NewStore()
	assert.Equal(t, "memory", s.Name())
	assert.NoError(t, s.Ping(context.Background()))
}
