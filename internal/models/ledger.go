package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerTransaction groups the balanced entries created by one economic event
// (a sale, a payment, a write-off). Within a transaction the debit and credit
// totals must match.
type LedgerTransaction struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	AccountID       uint          `gorm:"not null;index" json:"account_id"`
	TransactionType string        `gorm:"not null;index" json:"transaction_type"`
	Notes           string        `json:"notes,omitempty"`
	TransactionDate time.Time     `gorm:"not null" json:"transaction_date"`
	Entries         []LedgerEntry `gorm:"foreignKey:TransactionID" json:"entries,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// TableName specifies the table name for LedgerTransaction
func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}

// Transaction type constants
const (
	TransactionTypeSale            = "sale"             // credit extended to the customer
	TransactionTypePayment         = "payment"          // payment received
	TransactionTypeInterestApplied = "interest_applied" // nightly accrual
	TransactionTypePenaltyApplied  = "penalty_applied"
	TransactionTypeWriteoff        = "npa_writeoff" // bad debt written off
	TransactionTypeReturn          = "return"       // goods returned
	TransactionTypeCreditNote      = "credit_note"  // overpayment retained as credit
)

// Balanced reports whether debit and credit totals match across the
// transaction's entries.
func (t *LedgerTransaction) Balanced() bool {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, e := range t.Entries {
		switch e.EntryType {
		case EntryTypeDebit:
			debits = debits.Add(e.Amount)
		case EntryTypeCredit:
			credits = credits.Add(e.Amount)
		}
	}
	return debits.Equal(credits)
}

// LedgerEntry is a single debit or credit line. Customer-facing entries carry
// the account id; counter-entries against the retailer's own books (cash,
// sales, bad debt expense) leave AccountID nil.
type LedgerEntry struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TransactionID uint            `gorm:"not null;index" json:"transaction_id"`
	AccountID     *uint           `gorm:"index" json:"account_id,omitempty"`
	EntryType     string          `gorm:"not null;index" json:"entry_type"`
	Amount        decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	PaidAmount    decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"paid_amount"`
	Status        string          `gorm:"default:pending;not null;index" json:"status"`
	EntryDate     time.Time       `gorm:"not null;index" json:"entry_date"`
	PromisedDate  *time.Time      `gorm:"type:date;index" json:"promised_date,omitempty"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for LedgerEntry
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Entry type constants
const (
	EntryTypeDebit  = "debit"
	EntryTypeCredit = "credit"
)

// Entry status constants
const (
	EntryStatusPending   = "pending"
	EntryStatusCompleted = "completed"
)

// Remaining returns the unpaid portion of the entry.
func (e *LedgerEntry) Remaining() decimal.Decimal {
	return e.Amount.Sub(e.PaidAmount)
}

// Apply records a partial or full payment against the entry and marks it
// completed once fully covered.
func (e *LedgerEntry) Apply(amount decimal.Decimal) {
	e.PaidAmount = e.PaidAmount.Add(amount)
	if e.PaidAmount.GreaterThanOrEqual(e.Amount) {
		e.Status = EntryStatusCompleted
	}
}

// IsOverdue reports whether the entry has a promised date strictly in the past
// and is still pending.
func (e *LedgerEntry) IsOverdue(now time.Time) bool {
	return e.Status == EntryStatusPending && e.PromisedDate != nil && e.PromisedDate.Before(now)
}
