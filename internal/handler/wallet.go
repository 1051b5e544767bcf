package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// WalletHandler handles HTTP requests for wallets.
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// CreateWalletRequest is the HTTP request body for opening a wallet.
type CreateWalletRequest struct {
	UserID       string `json:"user_id"`
	CurrencyCode string `json:"currency_code"`
}

// WalletResponse is the HTTP representation of a wallet.
type WalletResponse struct {
	WalletID     string  `json:"wallet_id"`
	UserID       string  `json:"user_id"`
	CurrencyCode string  `json:"currency_code,omitempty"`
	Amount       float64 `json:"amount"`
}

func walletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		WalletID:     w.ID,
		UserID:       w.UserID,
		CurrencyCode: w.CurrencyCode,
		Amount:       w.Amount,
	}
}

// CreateWallet handles POST /v1/wallets
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	wallet, err := h.walletService.CreateWallet(c.Request.Context(), req.UserID, req.CurrencyCode)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, walletResponse(wallet))
}

// GetWallet handles GET /v1/wallets/:id
func (h *WalletHandler) GetWallet(c *gin.Context) {
	wallet, err := h.walletService.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, walletResponse(wallet))
}

// MoveFundsRequest is the HTTP request body for a credit or debit.
type MoveFundsRequest struct {
	Amount      float64 `json:"amount"`
	ReferenceID string  `json:"reference_id,omitempty"`
}

// Credit handles POST /v1/wallets/:id/credit
func (h *WalletHandler) Credit(c *gin.Context) {
	var req MoveFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	wallet, err := h.walletService.Credit(c.Request.Context(), c.Param("id"), req.Amount, req.ReferenceID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, walletResponse(wallet))
}

// Debit handles POST /v1/wallets/:id/debit
func (h *WalletHandler) Debit(c *gin.Context) {
	var req MoveFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	wallet, err := h.walletService.Debit(c.Request.Context(), c.Param("id"), req.Amount, req.ReferenceID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, walletResponse(wallet))
}

// TransactionResponse is one ledger entry in the HTTP response.
type TransactionResponse struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
	ReferenceID   string  `json:"reference_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// ListTransactions handles GET /v1/wallets/:id/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	transactions, err := h.walletService.Transactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		response = append(response, TransactionResponse{
			TransactionID: tx.ID,
			Amount:        tx.Amount,
			Type:          string(tx.Type),
			ReferenceID:   tx.ReferenceID,
			CreatedAt:     tx.CreatedAt.Format(time.RFC3339),
		})
	}

	respondJSON(c, http.StatusOK, response)
}
