package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BatchRun is the persisted report for one daily interest batch. A row in
// status "running" doubles as the run-in-progress marker that keeps two
// overlapping runs from double-accruing interest.
type BatchRun struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	RunID                string          `gorm:"not null;uniqueIndex" json:"run_id"`
	RunDate              time.Time       `gorm:"not null;index" json:"run_date"`
	Status               string          `gorm:"default:running;not null;index" json:"status"`
	AccountsProcessed    int             `gorm:"not null;default:0" json:"accounts_processed"`
	EntriesCreated       int             `gorm:"not null;default:0" json:"entries_created"`
	TotalInterestApplied decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"total_interest_applied"`
	ErrorLog             string          `gorm:"type:text" json:"-"` // newline-separated per-account errors
	StartedAt            time.Time       `gorm:"not null" json:"started_at"`
	FinishedAt           *time.Time      `json:"finished_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// TableName specifies the table name for BatchRun
func (BatchRun) TableName() string {
	return "batch_runs"
}

// Batch run status constants
const (
	BatchStatusRunning   = "running"
	BatchStatusCompleted = "completed"
	BatchStatusFailed    = "failed"
)

// Errors returns the per-account error messages collected during the run.
func (r *BatchRun) Errors() []string {
	if r.ErrorLog == "" {
		return nil
	}
	return strings.Split(r.ErrorLog, "\n")
}

// AppendError adds one error message to the run's error log.
func (r *BatchRun) AppendError(msg string) {
	if r.ErrorLog == "" {
		r.ErrorLog = msg
		return
	}
	r.ErrorLog += "\n" + msg
}

// BatchRunResponse is the JSON response format for batch runs
type BatchRunResponse struct {
	RunID                string          `json:"run_id"`
	RunDate              time.Time       `json:"run_date"`
	Status               string          `json:"status"`
	AccountsProcessed    int             `json:"accounts_processed"`
	EntriesCreated       int             `json:"entries_created"`
	TotalInterestApplied decimal.Decimal `json:"total_interest_applied"`
	Errors               []string        `json:"errors"`
	StartedAt            time.Time       `json:"started_at"`
	FinishedAt           *time.Time      `json:"finished_at,omitempty"`
}

// ToResponse converts BatchRun to BatchRunResponse
func (r *BatchRun) ToResponse() BatchRunResponse {
	return BatchRunResponse{
		RunID:                r.RunID,
		RunDate:              r.RunDate,
		Status:               r.Status,
		AccountsProcessed:    r.AccountsProcessed,
		EntriesCreated:       r.EntriesCreated,
		TotalInterestApplied: r.TotalInterestApplied,
		Errors:               r.Errors(),
		StartedAt:            r.StartedAt,
		FinishedAt:           r.FinishedAt,
	}
}
