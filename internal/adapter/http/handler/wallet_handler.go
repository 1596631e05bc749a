package handler

import (
	"time"

	"wallet-ledger-service/internal/adapter/http/dto"
	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"
	"wallet-ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	wallet, err := h.ledgerSvc.CreateWallet(c.Request.Context(), req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWalletResponse(wallet))
}

// GetWallet handles GET /api/v1/wallets/:id.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("wallet id must be a UUID"))
		return
	}

	detail, err := h.ledgerSvc.GetWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWalletDetailResponse(detail))
}

// Fund handles POST /api/v1/wallets/:id/fund.
func (h *WalletHandler) Fund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("wallet id must be a UUID"))
		return
	}

	var req dto.FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	wallet, err := h.ledgerSvc.Fund(c.Request.Context(), ports.FundRequest{
		WalletID:  id,
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWalletResponse(wallet))
}

// Transfer handles POST /api/v1/wallets/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	// uuid4 binding already validated the shape.
	fromID, _ := uuid.Parse(req.FromWalletID)
	toID, _ := uuid.Parse(req.ToWalletID)

	result, err := h.ledgerSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		FromWalletID: fromID,
		ToWalletID:   toID,
		Amount:       req.Amount,
		Reference:    req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransferResponse(result))
}

func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:        w.ID.String(),
		Currency:  w.Currency,
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:        t.ID.String(),
		WalletID:  t.WalletID.String(),
		Amount:    t.Amount,
		Type:      string(t.Type),
		Reference: t.Reference,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
}

func toWalletDetailResponse(d *ports.WalletDetail) dto.WalletDetailResponse {
	resp := dto.WalletDetailResponse{
		WalletResponse: toWalletResponse(&d.Wallet),
		Transactions:   make([]dto.TransactionResponse, 0, len(d.Transactions)),
	}
	for i := range d.Transactions {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(&d.Transactions[i]))
	}
	return resp
}

func toTransferResponse(r *domain.TransferResult) dto.TransferResponse {
	resp := dto.TransferResponse{
		Status:    string(r.Status),
		Amount:    r.Amount,
		Reference: r.Reference,
	}
	if r.FromWalletID != uuid.Nil {
		resp.FromWalletID = r.FromWalletID.String()
	}
	if r.ToWalletID != uuid.Nil {
		resp.ToWalletID = r.ToWalletID.String()
	}
	return resp
}
