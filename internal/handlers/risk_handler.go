package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rsharda/bahikhata-api/internal/models"
	"github.com/rsharda/bahikhata-api/internal/services"
)

type RiskHandler struct {
	riskService *services.RiskService
}

func NewRiskHandler(riskService *services.RiskService) *RiskHandler {
	return &RiskHandler{riskService: riskService}
}

// Profile returns the account's active flags, risk level and credit decision
func (h *RiskHandler) Profile(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	profile, err := h.riskService.GetRiskProfile(c.Request.Context(), accountID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Evaluate re-runs the automatic flag rules for an account
func (h *RiskHandler) Evaluate(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	evaluation, err := h.riskService.EvaluateAccount(c.Request.Context(), accountID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, evaluation)
}

type ApplyFlagRequest struct {
	FlagType string `json:"flag_type" binding:"required"`
	Reason   string `json:"reason"`
}

// ApplyFlag raises a manual risk flag on an account
func (h *RiskHandler) ApplyFlag(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req ApplyFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flag, err := h.riskService.ApplyManualFlag(c.Request.Context(), accountID, models.FlagType(req.FlagType), req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, flag)
}

// Reinstate lifts a blocked or NPA account back to active
func (h *RiskHandler) Reinstate(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	if err := h.riskService.ReinstateAccount(c.Request.Context(), accountID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account reinstated"})
}
