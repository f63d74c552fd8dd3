package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rsharda/bahikhata-api/internal/services"

	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// RecordPayment accepts a payment and allocates it across the account's dues
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), accountID, req.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

type RecordSaleRequest struct {
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	PromisedDate *time.Time      `json:"promised_date"`
	Notes        string          `json:"notes"`
}

// RecordSale books a credit sale against an account
func (h *PaymentHandler) RecordSale(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.paymentService.RecordSale(c.Request.Context(), accountID, req.Amount, req.PromisedDate, req.Notes); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Sale recorded"})
}

type WriteOffRequest struct {
	Notes string `json:"notes"`
}

// WriteOff closes out an NPA account's outstanding balances as bad debt
func (h *PaymentHandler) WriteOff(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	// Body is optional; notes default to empty.
	var req WriteOffRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.paymentService.WriteOffAccount(c.Request.Context(), accountID, req.Notes); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account written off"})
}
