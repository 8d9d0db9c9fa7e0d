package domain

import (
	"time"

	"github.com/google/uuid"
)

// OperationType is the direction of a balance change.
type OperationType string

const (
	OperationTypeDeposit  OperationType = "DEPOSIT"
	OperationTypeWithdraw OperationType = "WITHDRAW"
)

// Valid reports whether t is a known operation type.
func (t OperationType) Valid() bool {
	return t == OperationTypeDeposit || t == OperationTypeWithdraw
}

// ParseOperationType accepts only the exact upper-case names, without padding.
func ParseOperationType(raw string) (OperationType, error) {
	t := OperationType(raw)
	if !t.Valid() {
		return "", ErrInvalidOperationType
	}
	return t, nil
}

// Operation is an immutable history entry for one applied balance change.
type Operation struct {
	ID            int64         `json:"id"`
	WalletUUID    uuid.UUID     `json:"wallet_uuid"`
	OperationType OperationType `json:"operation_type"`
	Amount        int64         `json:"amount"`
	BalanceAfter  int64         `json:"balance_after"`
	CreatedAt     time.Time     `json:"created_at"`
}

// OperationResult is returned after a committed operation.
type OperationResult struct {
	Balance   int64     `json:"balance"`
	Operation Operation `json:"operation"`
}
