// Package memory is an in-process ledger store with the same locking
// contract as the PostgreSQL adapter: one exclusive lock per wallet row,
// held from GetByUUIDForUpdate until Commit or Rollback, and writes that
// become visible only on Commit.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var errForeignTx = errors.New("memory: transaction was not started by this store")

type walletRow struct {
	wallet domain.Wallet
	lock   chan struct{}
}

// Store holds committed wallets and operations.
type Store struct {
	mu         sync.RWMutex
	wallets    map[uuid.UUID]*walletRow
	operations map[uuid.UUID][]domain.Operation
	lastOpID   atomic.Int64
	now        func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		wallets:    make(map[uuid.UUID]*walletRow),
		operations: make(map[uuid.UUID][]domain.Operation),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Begin implements ports.DBTransactor.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{
		store:    s,
		locked:   make(map[uuid.UUID]struct{}),
		balances: make(map[uuid.UUID]int64),
	}, nil
}

// Ping implements ports.HealthChecker.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "memory"
}

func (s *Store) row(id uuid.UUID) *walletRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallets[id]
}

func asTx(tx pgx.Tx) (*Tx, error) {
	mtx, ok := tx.(*Tx)
	if !ok {
		return nil, errForeignTx
	}
	return mtx, nil
}
