package dto

import (
	"time"

	"wallet-ledger/internal/core/domain"
)

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	UUID string `json:"uuid" binding:"required,wallet_id"`
}

// OperationRequest is the request body for a deposit or withdrawal.
type OperationRequest struct {
	OperationType string `json:"operation_type" binding:"required,operation_type"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
}

// ListOperationsQuery holds the paging parameters of the history endpoint.
// Zero or missing values fall back to the service defaults.
type ListOperationsQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=0"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// WalletResponse is the response body for a created wallet.
type WalletResponse struct {
	UUID      string `json:"uuid"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// BalanceResponse is the response for balance query.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// OperationResponse is the response body for an applied operation.
type OperationResponse struct {
	Balance     int64 `json:"balance"`
	OperationID int64 `json:"operation_id"`
}

// OperationItem is one history entry.
type OperationItem struct {
	ID            int64  `json:"id"`
	OperationType string `json:"operation_type"`
	Amount        int64  `json:"amount"`
	BalanceAfter  int64  `json:"balance_after"`
	CreatedAt     string `json:"created_at"`
}

// OperationListResponse wraps a page of history, newest first.
type OperationListResponse struct {
	Items  []OperationItem `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// RootResponse is served on GET /.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// ToWalletResponse converts a domain wallet.
func ToWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		UUID:      w.UUID.String(),
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339Nano),
	}
}

// ToOperationListResponse converts a domain page.
func ToOperationListResponse(p *domain.OperationPage) OperationListResponse {
	items := make([]OperationItem, 0, len(p.Items))
	for _, op := range p.Items {
		items = append(items, OperationItem{
			ID:            op.ID,
			OperationType: string(op.OperationType),
			Amount:        op.Amount,
			BalanceAfter:  op.BalanceAfter,
			CreatedAt:     op.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return OperationListResponse{
		Items:  items,
		Total:  p.Total,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
}
