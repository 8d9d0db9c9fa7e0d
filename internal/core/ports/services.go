//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// CacheStore is the raw key-value store behind the balance cache.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns nil when absent
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RateLimiter counts requests per key in a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// --- Service Ports (Business Logic) ---

// BalanceCache is a non-authoritative read-through cache of wallet balances.
// Failures are absorbed: Get reports a miss, Set and Invalidate are no-ops.
type BalanceCache interface {
	Get(ctx context.Context, walletID uuid.UUID) (int64, bool)
	Set(ctx context.Context, walletID uuid.UUID, balance int64)
	SetWithTTL(ctx context.Context, walletID uuid.UUID, balance int64, ttl time.Duration)
	Invalidate(ctx context.Context, walletID uuid.UUID)
}

// OperationService applies balance-changing operations under a row lock.
type OperationService interface {
	Apply(ctx context.Context, req OperationRequest) (*domain.OperationResult, error)
}

// OperationRequest holds unvalidated input for a deposit or withdrawal.
type OperationRequest struct {
	WalletID      string
	OperationType string
	Amount        int64
}

// WalletService covers wallet creation and the read path.
type WalletService interface {
	Create(ctx context.Context, walletID string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error)
	GetBalance(ctx context.Context, walletID string) (int64, error)
	ListOperations(ctx context.Context, walletID string, limit, offset int) (*domain.OperationPage, error)
}

// HealthService checks every registered dependency.
type HealthService interface {
	Check(ctx context.Context) HealthReport
}
