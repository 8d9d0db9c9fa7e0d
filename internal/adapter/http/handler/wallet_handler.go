package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet creation and the read endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, dto.BindingError(err))
		return
	}

	wallet, err := h.walletSvc.Create(c.Request.Context(), req.UUID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToWalletResponse(wallet))
}

// GetBalance handles GET /api/v1/wallets/:uuid.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	balance, err := h.walletSvc.GetBalance(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{Balance: balance})
}

// ListOperations handles GET /api/v1/wallets/:uuid/operations.
func (h *WalletHandler) ListOperations(c *gin.Context) {
	var q dto.ListOperationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, dto.BindingError(err))
		return
	}

	page, err := h.walletSvc.ListOperations(c.Request.Context(), c.Param("uuid"), q.Limit, q.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToOperationListResponse(page))
}
