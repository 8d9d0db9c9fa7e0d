package memory

import (
	"context"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository on a Store.
type WalletRepo struct {
	store *Store
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(store *Store) *WalletRepo {
	return &WalletRepo{store: store}
}

func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[w.UUID]; ok {
		return ports.ErrWalletExists
	}
	now := s.now()
	w.Balance = 0
	w.CreatedAt = now
	w.UpdatedAt = now
	s.wallets[w.UUID] = &walletRow{wallet: *w, lock: make(chan struct{}, 1)}
	return nil
}

func (r *WalletRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.store.row(id) != nil, nil
}

func (r *WalletRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.wallets[id]
	if !ok {
		return nil, nil
	}
	w := row.wallet
	return &w, nil
}

// GetByUUIDForUpdate blocks until tx holds the wallet's row lock. Balances
// staged earlier in the same transaction are visible to it.
func (r *WalletRepo) GetByUUIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	mtx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	row := r.store.row(id)
	if row == nil {
		return nil, nil
	}
	if err := mtx.lock(ctx, row, id); err != nil {
		return nil, err
	}

	w, err := r.GetByUUID(context.WithoutCancel(ctx), id)
	if err != nil || w == nil {
		return w, err
	}
	if staged, ok := mtx.stagedBalance(id); ok {
		w.Balance = staged
	}
	return w, nil
}

func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance int64) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := mtx.holds(id); err != nil {
		return err
	}
	mtx.stageBalance(id, balance)
	return nil
}
