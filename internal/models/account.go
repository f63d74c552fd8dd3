package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a customer's credit relationship with the retailer.
// Outstanding balances are rollups maintained by delta updates only; the
// engine never recomputes them from entry history.
type Account struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	CustomerName         string          `gorm:"not null" json:"customer_name"`
	Phone                string          `gorm:"index" json:"phone"`
	PrincipalOutstanding decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"principal_outstanding"`
	InterestOutstanding  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"interest_outstanding"`
	PenaltyOutstanding   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"penalty_outstanding"`
	TotalPaid            decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"total_paid"`
	PromisedReturnDate   *time.Time      `gorm:"type:date;index" json:"promised_return_date"`
	FreezeInterest       bool            `gorm:"not null;default:false" json:"freeze_interest"`
	LastInterestCalcDate *time.Time      `json:"last_interest_calc_date"`
	Status               string          `gorm:"default:active;not null;index" json:"status"`
	Version              int64           `gorm:"not null;default:0" json:"-"` // optimistic concurrency
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}

// Account status constants. NPA is sticky: once set it is only cleared by an
// explicit manual reinstate, never by a later automatic evaluation.
const (
	AccountStatusActive  = "active"
	AccountStatusBlocked = "blocked"
	AccountStatusNPA     = "npa"
)

// TotalOutstanding returns principal plus accrued-but-unpaid interest and penalties.
func (a *Account) TotalOutstanding() decimal.Decimal {
	return a.PrincipalOutstanding.Add(a.InterestOutstanding).Add(a.PenaltyOutstanding)
}

// IsActive returns true if the account accrues interest and accepts credit
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// AccountResponse is the JSON response format for accounts
type AccountResponse struct {
	ID                   uint            `json:"id"`
	CustomerName         string          `json:"customer_name"`
	Phone                string          `json:"phone,omitempty"`
	PrincipalOutstanding decimal.Decimal `json:"principal_outstanding"`
	InterestOutstanding  decimal.Decimal `json:"interest_outstanding"`
	PenaltyOutstanding   decimal.Decimal `json:"penalty_outstanding"`
	TotalOutstanding     decimal.Decimal `json:"total_outstanding"`
	TotalPaid            decimal.Decimal `json:"total_paid"`
	PromisedReturnDate   *time.Time      `json:"promised_return_date"`
	FreezeInterest       bool            `json:"freeze_interest"`
	Status               string          `json:"status"`
}

// ToResponse converts Account to AccountResponse
func (a *Account) ToResponse() AccountResponse {
	return AccountResponse{
		ID:                   a.ID,
		CustomerName:         a.CustomerName,
		Phone:                a.Phone,
		PrincipalOutstanding: a.PrincipalOutstanding,
		InterestOutstanding:  a.InterestOutstanding,
		PenaltyOutstanding:   a.PenaltyOutstanding,
		TotalOutstanding:     a.TotalOutstanding(),
		TotalPaid:            a.TotalPaid,
		PromisedReturnDate:   a.PromisedReturnDate,
		FreezeInterest:       a.FreezeInterest,
		Status:               a.Status,
	}
}
