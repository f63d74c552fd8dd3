package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Account  AccountRepository
	Ledger   LedgerRepository
	Interest InterestRepository
	RiskFlag RiskFlagRepository
	Batch    BatchRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Account:  NewAccountRepository(db),
		Ledger:   NewLedgerRepository(db),
		Interest: NewInterestRepository(db),
		RiskFlag: NewRiskFlagRepository(db),
		Batch:    NewBatchRepository(db),
	}
}
