package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rsharda/bahikhata-api/internal/models"
	"github.com/rsharda/bahikhata-api/internal/repository"
	"github.com/rsharda/bahikhata-api/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountLedger is the full ledger view for one account: its grouped
// transactions plus the interest/penalty entries accrued against it.
type AccountLedger struct {
	Account         models.AccountResponse     `json:"account"`
	Transactions    []models.LedgerTransaction `json:"transactions"`
	InterestEntries []models.InterestEntry     `json:"interest_entries"`
}

// AccountService handles account lifecycle operations outside the accrual
// and allocation engines.
type AccountService struct {
	accountRepo  repository.AccountRepository
	ledgerRepo   repository.LedgerRepository
	interestRepo repository.InterestRepository
}

// NewAccountService creates a new account service
func NewAccountService(
	accountRepo repository.AccountRepository,
	ledgerRepo repository.LedgerRepository,
	interestRepo repository.InterestRepository,
) *AccountService {
	return &AccountService{
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		interestRepo: interestRepo,
	}
}

// Create opens a new credit account for a customer
func (s *AccountService) Create(ctx context.Context, customerName, phone string) (*models.Account, error) {
	if customerName == "" {
		return nil, fmt.Errorf("customer name is required")
	}

	account := &models.Account{
		CustomerName:         customerName,
		Phone:                phone,
		PrincipalOutstanding: decimal.Zero,
		InterestOutstanding:  decimal.Zero,
		PenaltyOutstanding:   decimal.Zero,
		TotalPaid:            decimal.Zero,
		Status:               models.AccountStatusActive,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	logger.Info("Account created", "account_id", account.ID, "customer", customerName)
	return account, nil
}

// Get returns one account
func (s *AccountService) Get(ctx context.Context, accountID uint) (*models.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

// Ledger returns the account's full transaction history and interest entries
func (s *AccountService) Ledger(ctx context.Context, accountID uint) (*AccountLedger, error) {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	txns, err := s.ledgerRepo.FindTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	interest, err := s.interestRepo.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load interest entries: %w", err)
	}

	return &AccountLedger{
		Account:         account.ToResponse(),
		Transactions:    txns,
		InterestEntries: interest,
	}, nil
}

// SetFreezeInterest toggles the manual accrual override. A frozen account is
// skipped by the nightly batch regardless of how overdue it is.
func (s *AccountService) SetFreezeInterest(ctx context.Context, accountID uint, freeze bool) error {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return err
	}

	account.FreezeInterest = freeze
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	logger.Info("Interest freeze updated", "account_id", accountID, "freeze", freeze)
	return nil
}
