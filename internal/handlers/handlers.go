package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rsharda/bahikhata-api/internal/jobs"
	"github.com/rsharda/bahikhata-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health  *HealthHandler
	Account *AccountHandler
	Payment *PaymentHandler
	Risk    *RiskHandler
	Batch   *BatchHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, worker *jobs.Worker) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(),
		Account: NewAccountHandler(svcs.Account),
		Payment: NewPaymentHandler(svcs.Payment),
		Risk:    NewRiskHandler(svcs.Risk),
		Batch:   NewBatchHandler(svcs.Batch, worker),
	}
}

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "bahikhata-api",
		"version": "1.0.0",
	})
}
