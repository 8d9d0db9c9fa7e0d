package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidWalletID      = errors.New("wallet id is not a valid uuid")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidOperationType = errors.New("unknown operation type")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrBalanceOverflow      = errors.New("balance overflow")
)

// Wallet holds a single non-negative balance in the smallest currency unit.
type Wallet struct {
	UUID      uuid.UUID `json:"uuid"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseWalletID parses an externally supplied wallet identity.
// Only the hyphenated 36-character form is accepted.
func ParseWalletID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 36 {
		return uuid.Nil, ErrInvalidWalletID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidWalletID
	}
	return id, nil
}

// NextBalance computes the balance that applying an operation would leave.
// It never mutates the wallet.
func (w *Wallet) NextBalance(opType OperationType, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	switch opType {
	case OperationTypeDeposit:
		if w.Balance > math.MaxInt64-amount {
			return 0, ErrBalanceOverflow
		}
		return w.Balance + amount, nil
	case OperationTypeWithdraw:
		if w.Balance < amount {
			return 0, ErrInsufficientFunds
		}
		return w.Balance - amount, nil
	default:
		return 0, ErrInvalidOperationType
	}
}

// BalanceCacheKey returns the cache key holding a wallet's balance.
func BalanceCacheKey(id uuid.UUID) string {
	return "wallet_balance:" + id.String()
}
