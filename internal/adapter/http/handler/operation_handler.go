package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// OperationHandler handles deposits and withdrawals.
type OperationHandler struct {
	opSvc ports.OperationService
}

// NewOperationHandler creates a new OperationHandler.
func NewOperationHandler(opSvc ports.OperationService) *OperationHandler {
	return &OperationHandler{opSvc: opSvc}
}

// Apply handles POST /api/v1/wallets/:uuid/operation.
func (h *OperationHandler) Apply(c *gin.Context) {
	var req dto.OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, dto.BindingError(err))
		return
	}

	result, err := h.opSvc.Apply(c.Request.Context(), ports.OperationRequest{
		WalletID:      c.Param("uuid"),
		OperationType: req.OperationType,
		Amount:        req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.OperationResponse{
		Balance:     result.Balance,
		OperationID: result.Operation.ID,
	})
}
