package models

import (
	"time"
)

// FlagType is the closed enumeration of risk flag kinds. Unknown flag types
// are a compile-time concern, not a runtime lookup.
type FlagType string

const (
	FlagHighDebtRisk           FlagType = "high_debt_risk"
	FlagFrequentDelays         FlagType = "frequent_delays"
	FlagOnTimePayer            FlagType = "on_time_payer"
	FlagNPA                    FlagType = "npa"
	FlagNoFurtherCredit        FlagType = "no_further_credit"
	FlagGoodAccountMaintenance FlagType = "good_account_maintenance"
)

// Valid reports whether the flag type is one of the known kinds.
func (f FlagType) Valid() bool {
	switch f {
	case FlagHighDebtRisk, FlagFrequentDelays, FlagOnTimePayer,
		FlagNPA, FlagNoFurtherCredit, FlagGoodAccountMaintenance:
		return true
	}
	return false
}

// Manual reports whether the flag kind is operator-applied. Manual flags are
// never retired by the automatic evaluation pass.
func (f FlagType) Manual() bool {
	switch f {
	case FlagNoFurtherCredit, FlagGoodAccountMaintenance:
		return true
	}
	return false
}

// Description returns the human-readable meaning of the flag.
func (f FlagType) Description() string {
	switch f {
	case FlagOnTimePayer:
		return "Consistent on-time payment history"
	case FlagFrequentDelays:
		return "Multiple delayed payments detected"
	case FlagHighDebtRisk:
		return "Outstanding balance exceeds safe threshold"
	case FlagNPA:
		return "Non-Performing Asset - overdue beyond 90 days"
	case FlagGoodAccountMaintenance:
		return "Maintains account well, reliable customer"
	case FlagNoFurtherCredit:
		return "Do not extend further credit to this customer"
	default:
		return string(f)
	}
}

// RiskFlag records one behavioral or manual flag on an account. At most one
// flag per (account, type) is active at a time; retiring sets the status to
// inactive rather than deleting, so history stays auditable.
type RiskFlag struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FlagID      string     `gorm:"not null;uniqueIndex" json:"flag_id"`
	AccountID   uint       `gorm:"not null;index" json:"account_id"`
	FlagType    FlagType   `gorm:"not null;index" json:"flag_type"`
	Status      string     `gorm:"default:active;not null;index" json:"status"`
	IsManual    bool       `gorm:"not null;default:false" json:"is_manual"`
	Description string     `json:"description"`
	FlagDate    time.Time  `gorm:"not null" json:"flag_date"`
	RetiredAt   *time.Time `json:"retired_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for RiskFlag
func (RiskFlag) TableName() string {
	return "risk_flags"
}

// Flag status constants
const (
	FlagStatusActive   = "active"
	FlagStatusInactive = "inactive"
)

// RiskLevel is the derived repayment risk classification for an account.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)
