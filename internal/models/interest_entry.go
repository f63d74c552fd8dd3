package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InterestEntry is a debit against the customer representing accrued interest
// or a penalty. It carries its own paid lifecycle, independent of principal
// entries, so the payment waterfall can settle it separately.
type InterestEntry struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	AccountID       uint            `gorm:"not null;index" json:"account_id"`
	InterestType    string          `gorm:"default:interest;not null;index" json:"interest_type"`
	Amount          decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	PaidAmount      decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"paid_amount"`
	Status          string          `gorm:"default:pending;not null;index" json:"status"`
	InterestDate    time.Time       `gorm:"not null;index" json:"interest_date"`
	CalculationDate time.Time       `gorm:"not null;index" json:"calculation_date"`
	PrincipalAtTime decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"principal_at_time"`
	DaysCalculated  int             `gorm:"not null" json:"days_calculated"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name for InterestEntry
func (InterestEntry) TableName() string {
	return "interest_entries"
}

// Interest type constants
const (
	InterestTypeInterest = "interest"
	InterestTypePenalty  = "penalty"
)

// Remaining returns the unpaid portion of the entry.
func (e *InterestEntry) Remaining() decimal.Decimal {
	return e.Amount.Sub(e.PaidAmount)
}

// Apply records a partial or full payment against the entry and marks it
// completed once fully covered.
func (e *InterestEntry) Apply(amount decimal.Decimal) {
	e.PaidAmount = e.PaidAmount.Add(amount)
	if e.PaidAmount.GreaterThanOrEqual(e.Amount) {
		e.Status = EntryStatusCompleted
	}
}
