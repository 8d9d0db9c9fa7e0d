package service

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	opRepo     ports.OperationRepository
	cache      ports.BalanceCache
	metrics    *Metrics
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	opRepo ports.OperationRepository,
	cache ports.BalanceCache,
	metrics *Metrics,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		opRepo:     opRepo,
		cache:      cache,
		metrics:    metrics,
		log:        log,
	}
}

// Create registers a new wallet with a zero balance.
func (s *WalletServiceImpl) Create(ctx context.Context, rawID string) (*domain.Wallet, error) {
	walletID, err := domain.ParseWalletID(rawID)
	if err != nil {
		return nil, apperror.ErrInvalidWalletID()
	}

	exists, err := s.walletRepo.Exists(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("check wallet exists: %w", err))
	}
	if exists {
		return nil, apperror.ErrWalletExists()
	}

	// A concurrent create can still win between Exists and Create; the
	// store's unique constraint reports it as ErrWalletExists.
	w := &domain.Wallet{UUID: walletID}
	if err := s.walletRepo.Create(ctx, w); err != nil {
		if errors.Is(err, ports.ErrWalletExists) {
			return nil, apperror.ErrWalletExists()
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create wallet: %w", err))
	}

	s.metrics.walletCreated()
	s.log.Info().Str("wallet_uuid", walletID.String()).Msg("wallet created")

	return w, nil
}

// GetWallet returns the stored wallet row.
func (s *WalletServiceImpl) GetWallet(ctx context.Context, rawID string) (*domain.Wallet, error) {
	walletID, err := domain.ParseWalletID(rawID)
	if err != nil {
		return nil, apperror.ErrInvalidWalletID()
	}
	return s.load(ctx, walletID)
}

// GetBalance serves from the cache when possible and repopulates it on a miss.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, rawID string) (int64, error) {
	walletID, err := domain.ParseWalletID(rawID)
	if err != nil {
		return 0, apperror.ErrInvalidWalletID()
	}

	if balance, ok := s.cache.Get(ctx, walletID); ok {
		return balance, nil
	}

	w, err := s.load(ctx, walletID)
	if err != nil {
		return 0, err
	}

	s.cache.Set(ctx, walletID, w.Balance)
	return w.Balance, nil
}

// ListOperations returns a page of the wallet's history, newest first.
// Pages are read independently and may shift if operations commit between calls.
func (s *WalletServiceImpl) ListOperations(ctx context.Context, rawID string, limit, offset int) (*domain.OperationPage, error) {
	walletID, err := domain.ParseWalletID(rawID)
	if err != nil {
		return nil, apperror.ErrInvalidWalletID()
	}

	exists, err := s.walletRepo.Exists(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("check wallet exists: %w", err))
	}
	if !exists {
		return nil, apperror.ErrWalletNotFound()
	}

	page := domain.NormalizePage(limit, offset)

	items, err := s.opRepo.ListByWallet(ctx, walletID, page)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list operations: %w", err))
	}
	total, err := s.opRepo.CountByWallet(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("count operations: %w", err))
	}

	return &domain.OperationPage{
		Items:  items,
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, nil
}

func (s *WalletServiceImpl) load(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByUUID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return w, nil
}
