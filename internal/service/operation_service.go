package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// OperationServiceImpl implements ports.OperationService.
type OperationServiceImpl struct {
	walletRepo ports.WalletRepository
	opRepo     ports.OperationRepository
	transactor ports.DBTransactor
	cache      ports.BalanceCache
	metrics    *Metrics
	log        zerolog.Logger
}

// NewOperationService creates a new OperationServiceImpl.
func NewOperationService(
	walletRepo ports.WalletRepository,
	opRepo ports.OperationRepository,
	transactor ports.DBTransactor,
	cache ports.BalanceCache,
	metrics *Metrics,
	log zerolog.Logger,
) *OperationServiceImpl {
	return &OperationServiceImpl{
		walletRepo: walletRepo,
		opRepo:     opRepo,
		transactor: transactor,
		cache:      cache,
		metrics:    metrics,
		log:        log,
	}
}

// Apply validates the request, then locks the wallet row, writes the new
// balance and an operation record in one transaction, commits, and only then
// invalidates the cached balance.
func (s *OperationServiceImpl) Apply(ctx context.Context, req ports.OperationRequest) (*domain.OperationResult, error) {
	start := time.Now()
	result, err := s.apply(ctx, req)
	s.metrics.observeOperation(req.OperationType, apperror.CodeOf(err), time.Since(start))
	return result, err
}

func (s *OperationServiceImpl) apply(ctx context.Context, req ports.OperationRequest) (*domain.OperationResult, error) {
	walletID, err := domain.ParseWalletID(req.WalletID)
	if err != nil {
		return nil, apperror.ErrInvalidWalletID()
	}
	opType, err := domain.ParseOperationType(req.OperationType)
	if err != nil {
		return nil, apperror.ErrInvalidOperationType()
	}
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	log := s.log.With().
		Str("wallet_uuid", walletID.String()).
		Str("operation_type", string(opType)).
		Int64("amount", req.Amount).
		Logger()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		log.Error().Err(err).Msg("ledger store unavailable")
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("begin tx: %w", err))
	}
	// Rollback must run even if the caller has gone away, otherwise the row
	// lock outlives the request.
	defer dbTx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUUIDForUpdate(ctx, dbTx, walletID)
	if err != nil {
		log.Error().Err(err).Msg("failed to lock wallet")
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	newBalance, err := wallet.NextBalance(opType, req.Amount)
	if err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, walletID, newBalance); err != nil {
		log.Error().Err(err).Msg("failed to update balance")
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update balance: %w", err))
	}

	op := &domain.Operation{
		WalletUUID:    walletID,
		OperationType: opType,
		Amount:        req.Amount,
		BalanceAfter:  newBalance,
	}
	if err := s.opRepo.Create(ctx, dbTx, op); err != nil {
		log.Error().Err(err).Msg("failed to record operation")
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create operation: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		log.Error().Err(err).Msg("failed to commit operation")
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	// Committed: from here on nothing may fail the request.
	s.cache.Invalidate(context.WithoutCancel(ctx), walletID)

	log.Info().
		Int64("operation_id", op.ID).
		Int64("balance_before", wallet.Balance).
		Int64("balance_after", newBalance).
		Msg("operation applied")

	return &domain.OperationResult{Balance: newBalance, Operation: *op}, nil
}

func mapDomainError(err error) *apperror.AppError {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return apperror.ErrInsufficientFunds()
	case errors.Is(err, domain.ErrBalanceOverflow):
		return apperror.ErrBalanceOverflow()
	case errors.Is(err, domain.ErrInvalidAmount):
		return apperror.ErrInvalidAmount()
	case errors.Is(err, domain.ErrInvalidOperationType):
		return apperror.ErrInvalidOperationType()
	case errors.Is(err, domain.ErrInvalidWalletID):
		return apperror.ErrInvalidWalletID()
	default:
		return apperror.InternalError(err)
	}
}
