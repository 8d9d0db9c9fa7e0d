package postgres

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OperationRepo implements ports.OperationRepository.
type OperationRepo struct {
	pool Pool
}

// NewOperationRepo creates a new OperationRepo.
func NewOperationRepo(pool Pool) *OperationRepo {
	return &OperationRepo{pool: pool}
}

// Create appends an operation within the transaction holding the wallet lock.
// created_at comes from clock_timestamp() so it reflects the moment after the
// lock was acquired rather than the transaction start.
func (r *OperationRepo) Create(ctx context.Context, tx pgx.Tx, op *domain.Operation) error {
	query := `INSERT INTO operations (wallet_uuid, operation_type, amount, balance_after, created_at)
		VALUES ($1, $2, $3, $4, clock_timestamp())
		RETURNING id, created_at`

	err := tx.QueryRow(ctx, query,
		op.WalletUUID, string(op.OperationType), op.Amount, op.BalanceAfter,
	).Scan(&op.ID, &op.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

// ListByWallet returns one page of a wallet's operations, newest first.
func (r *OperationRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, page domain.Page) ([]domain.Operation, error) {
	query := `SELECT id, wallet_uuid, operation_type, amount, balance_after, created_at
		FROM operations WHERE wallet_uuid = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, walletID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	ops := make([]domain.Operation, 0, page.Limit)
	for rows.Next() {
		var (
			op     domain.Operation
			opType string
		)
		if err := rows.Scan(&op.ID, &op.WalletUUID, &opType, &op.Amount, &op.BalanceAfter, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.OperationType = domain.OperationType(opType)
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

// CountByWallet returns the total number of operations recorded for a wallet.
func (r *OperationRepo) CountByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM operations WHERE wallet_uuid = $1`, walletID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count operations: %w", err)
	}
	return total, nil
}
