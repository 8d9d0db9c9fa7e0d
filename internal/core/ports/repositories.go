//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

package ports

import (
	"context"
	"errors"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrWalletExists is returned by WalletRepository.Create when the identity is taken.
var ErrWalletExists = errors.New("wallet already exists")

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// GetByUUID returns nil, nil when the wallet does not exist.
	GetByUUID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	// GetByUUIDForUpdate blocks until the row lock is held by tx.
	GetByUUIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance int64) error
}

// OperationRepository defines persistence operations for the operation history.
type OperationRepository interface {
	// Create inserts op and fills its ID and CreatedAt.
	Create(ctx context.Context, tx pgx.Tx, op *domain.Operation) error
	ListByWallet(ctx context.Context, walletID uuid.UUID, page domain.Page) ([]domain.Operation, error)
	CountByWallet(ctx context.Context, walletID uuid.UUID) (int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
