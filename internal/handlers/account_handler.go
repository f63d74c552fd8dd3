package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rsharda/bahikhata-api/internal/services"
)

type AccountHandler struct {
	accountService *services.AccountService
}

func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

type CreateAccountRequest struct {
	CustomerName string `json:"customer_name" binding:"required"`
	Phone        string `json:"phone"`
}

// Create opens a new credit account
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accountService.Create(c.Request.Context(), req.CustomerName, req.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account.ToResponse())
}

// Show returns one account with its current balances
func (h *AccountHandler) Show(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	account, err := h.accountService.Get(c.Request.Context(), accountID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account.ToResponse())
}

// Ledger returns the account's transaction history and interest entries
func (h *AccountHandler) Ledger(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	ledger, err := h.accountService.Ledger(c.Request.Context(), accountID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ledger)
}

type FreezeInterestRequest struct {
	Freeze *bool `json:"freeze" binding:"required"`
}

// FreezeInterest toggles the manual accrual override for an account
func (h *AccountHandler) FreezeInterest(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req FreezeInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accountService.SetFreezeInterest(c.Request.Context(), accountID, *req.Freeze); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Interest freeze updated", "freeze": *req.Freeze})
}
