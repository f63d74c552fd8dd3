package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rsharda/bahikhata-api/internal/jobs"
	"github.com/rsharda/bahikhata-api/internal/services"
)

type BatchHandler struct {
	batchService *services.BatchService
	worker       *jobs.Worker
}

func NewBatchHandler(batchService *services.BatchService, worker *jobs.Worker) *BatchHandler {
	return &BatchHandler{batchService: batchService, worker: worker}
}

// Run triggers an interest accrual run immediately
func (h *BatchHandler) Run(c *gin.Context) {
	run, err := h.batchService.RunDailyBatch(c.Request.Context())
	if err != nil {
		if run != nil {
			// The run started but failed; return the report alongside the error.
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run": run.ToResponse()})
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, run.ToResponse())
}

// Status returns the most recent run report alongside worker statistics
func (h *BatchHandler) Status(c *gin.Context) {
	run, err := h.batchService.LatestRun(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := gin.H{"worker": h.worker.GetStats()}
	if run != nil {
		resp["latest_run"] = run.ToResponse()
	}
	c.JSON(http.StatusOK, resp)
}

// Runs returns the run reports for one calendar day (?date=YYYY-MM-DD,
// defaulting to today)
func (h *BatchHandler) Runs(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	runs, err := h.batchService.RunsOn(c.Request.Context(), day)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]interface{}, 0, len(runs))
	for i := range runs {
		responses = append(responses, runs[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"runs": responses})
}

// LatestRun returns the most recent batch run report
func (h *BatchHandler) LatestRun(c *gin.Context) {
	run, err := h.batchService.LatestRun(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No batch run recorded yet"})
		return
	}

	c.JSON(http.StatusOK, run.ToResponse())
}
