package memory

import (
	"context"
	"sort"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OperationRepo implements ports.OperationRepository on a Store.
type OperationRepo struct {
	store *Store
}

// NewOperationRepo creates a new OperationRepo.
func NewOperationRepo(store *Store) *OperationRepo {
	return &OperationRepo{store: store}
}

// Create assigns the next id and a timestamp taken while the wallet lock is held.
func (r *OperationRepo) Create(ctx context.Context, tx pgx.Tx, op *domain.Operation) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := mtx.holds(op.WalletUUID); err != nil {
		return err
	}
	op.ID = r.store.lastOpID.Add(1)
	op.CreatedAt = r.store.now()
	mtx.stageOperation(*op)
	return nil
}

func (r *OperationRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, page domain.Page) ([]domain.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	all := make([]domain.Operation, len(s.operations[walletID]))
	copy(all, s.operations[walletID])
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if page.Offset >= len(all) {
		return []domain.Operation{}, nil
	}
	end := min(page.Offset+page.Limit, len(all))
	return all[page.Offset:end], nil
}

func (r *OperationRepo) CountByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.operations[walletID])), nil
}
