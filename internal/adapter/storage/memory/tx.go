package memory

import (
	"context"
	"fmt"
	"sync"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Tx stages writes until Commit. Only Commit and Rollback of the embedded
// pgx.Tx are implemented; the repositories never issue SQL through it.
type Tx struct {
	pgx.Tx

	store    *Store
	mu       sync.Mutex
	locked   map[uuid.UUID]struct{}
	balances map[uuid.UUID]int64
	ops      []domain.Operation
	closed   bool
}

// lock blocks until the row lock for id is held or ctx is done.
func (tx *Tx) lock(ctx context.Context, row *walletRow, id uuid.UUID) error {
	tx.mu.Lock()
	if tx.closed {
		tx.mu.Unlock()
		return pgx.ErrTxClosed
	}
	if _, held := tx.locked[id]; held {
		tx.mu.Unlock()
		return nil
	}
	tx.mu.Unlock()

	select {
	case row.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		<-row.lock
		return pgx.ErrTxClosed
	}
	tx.locked[id] = struct{}{}
	return nil
}

func (tx *Tx) holds(id uuid.UUID) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return pgx.ErrTxClosed
	}
	if _, ok := tx.locked[id]; !ok {
		return fmt.Errorf("memory: wallet %s is not locked by this transaction", id)
	}
	return nil
}

// Commit publishes staged balances and operations, then releases row locks.
func (tx *Tx) Commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return pgx.ErrTxClosed
	}

	s := tx.store
	s.mu.Lock()
	for id, balance := range tx.balances {
		if row, ok := s.wallets[id]; ok {
			row.wallet.Balance = balance
			row.wallet.UpdatedAt = s.now()
		}
	}
	for _, op := range tx.ops {
		s.operations[op.WalletUUID] = append(s.operations[op.WalletUUID], op)
	}
	s.mu.Unlock()

	tx.release()
	return nil
}

// Rollback discards staged writes and releases row locks. It is safe to call
// after Commit, in which case it returns pgx.ErrTxClosed.
func (tx *Tx) Rollback(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.release()
	return nil
}

// release must be called with tx.mu held.
func (tx *Tx) release() {
	tx.closed = true
	for id := range tx.locked {
		if row := tx.store.row(id); row != nil {
			<-row.lock
		}
	}
	tx.locked = nil
	tx.balances = nil
	tx.ops = nil
}

func (tx *Tx) stageBalance(id uuid.UUID, balance int64) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.balances[id] = balance
}

func (tx *Tx) stagedBalance(id uuid.UUID) (int64, bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	b, ok := tx.balances[id]
	return b, ok
}

func (tx *Tx) stageOperation(op domain.Operation) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.ops = append(tx.ops, op)
}
