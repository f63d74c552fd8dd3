package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rsharda/bahikhata-api/internal/jobs"
	"github.com/rsharda/bahikhata-api/internal/models"
	"github.com/rsharda/bahikhata-api/internal/repository"
	"github.com/rsharda/bahikhata-api/pkg/logger"
	"github.com/rsharda/bahikhata-api/pkg/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// conflictRetries bounds how often a mutation is retried after losing an
// optimistic concurrency race before the conflict surfaces to the caller.
const conflictRetries = 3

// PaymentService records sales, payments and write-offs against accounts.
// Every mutation is serialized per account and persisted atomically with the
// account rollup update; risk re-evaluation runs afterwards on the worker and
// never fails the mutation itself.
type PaymentService struct {
	accountRepo  repository.AccountRepository
	ledgerRepo   repository.LedgerRepository
	interestRepo repository.InterestRepository
	riskSvc      *RiskService
	worker       *jobs.Worker
	locks        *accountLocks
	now          func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	accountRepo repository.AccountRepository,
	ledgerRepo repository.LedgerRepository,
	interestRepo repository.InterestRepository,
	riskSvc *RiskService,
	worker *jobs.Worker,
) *PaymentService {
	return &PaymentService{
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		interestRepo: interestRepo,
		riskSvc:      riskSvc,
		worker:       worker,
		locks:        newAccountLocks(),
		now:          time.Now,
	}
}

// RecordPayment applies a payment to the account through the waterfall:
// interest, then penalties, then principal, oldest first within each phase.
// Whatever the waterfall could not place is returned as ExcessPayment and
// additionally recorded as a credit-note line so it is never lost.
func (s *PaymentService) RecordPayment(ctx context.Context, accountID uint, amount decimal.Decimal) (*AllocationResult, error) {
	if !money.IsPositive(amount) {
		return nil, ErrInvalidAmount
	}

	s.locks.Lock(accountID)
	defer s.locks.Unlock(accountID)

	var result *AllocationResult
	err := withConflictRetry(func() error {
		var err error
		result, err = s.recordPaymentOnce(ctx, accountID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.enqueueRiskEvaluation(accountID)
	return result, nil
}

func (s *PaymentService) recordPaymentOnce(ctx context.Context, accountID uint, amount decimal.Decimal) (*AllocationResult, error) {
	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	interestRows, err := s.interestRepo.FindPendingByType(ctx, accountID, models.InterestTypeInterest)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending interest: %w", err)
	}
	penaltyRows, err := s.interestRepo.FindPendingByType(ctx, accountID, models.InterestTypePenalty)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending penalties: %w", err)
	}
	principalRows, err := s.ledgerRepo.FindPendingDebits(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending debits: %w", err)
	}

	interest := toInterestPtrs(interestRows)
	penalties := toInterestPtrs(penaltyRows)
	principal := toLedgerPtrs(principalRows)

	result, err := AllocatePayment(amount, interest, penalties, principal)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, entry := range principal {
		if entry.Status == models.EntryStatusCompleted && entry.PaidDate == nil {
			paid := now
			entry.PaidDate = &paid
		}
	}

	allocated := result.TotalAllocated()
	account.PrincipalOutstanding = account.PrincipalOutstanding.Sub(result.PrincipalPaid)
	account.InterestOutstanding = account.InterestOutstanding.Sub(result.InterestPaid)
	account.PenaltyOutstanding = account.PenaltyOutstanding.Sub(result.PenaltyPaid)
	account.TotalPaid = account.TotalPaid.Add(allocated)

	txn := &models.LedgerTransaction{
		AccountID:       accountID,
		TransactionType: models.TransactionTypePayment,
		TransactionDate: now,
		Entries: []models.LedgerEntry{
			{
				AccountID:   &accountID,
				EntryType:   models.EntryTypeCredit,
				Amount:      allocated,
				PaidAmount:  allocated,
				Status:      models.EntryStatusCompleted,
				EntryDate:   now,
				PaidDate:    &now,
				Description: "Payment received",
			},
			{
				EntryType:   models.EntryTypeDebit,
				Amount:      amount,
				PaidAmount:  amount,
				Status:      models.EntryStatusCompleted,
				EntryDate:   now,
				Description: "Cash",
			},
		},
	}
	if money.IsPositive(result.ExcessPayment) {
		txn.Entries = append(txn.Entries, models.LedgerEntry{
			AccountID:   &accountID,
			EntryType:   models.EntryTypeCredit,
			Amount:      result.ExcessPayment,
			PaidAmount:  result.ExcessPayment,
			Status:      models.EntryStatusCompleted,
			EntryDate:   now,
			PaidDate:    &now,
			Description: "Overpayment held as credit note",
		})
	}

	touchedInterest := append(touchedInterestEntries(interest), touchedInterestEntries(penalties)...)
	if err := s.ledgerRepo.ApplyTransaction(ctx, account, txn, touchedInterest, touchedLedgerEntries(principal)); err != nil {
		return nil, err
	}

	if money.IsPositive(result.ExcessPayment) {
		logger.Info("Overpayment recorded as credit note",
			"account_id", accountID, "excess", result.ExcessPayment.String())
	}

	return result, nil
}

// RecordSale extends credit to the customer: a pending debit entry with a
// promised return date, balanced by a completed sales counter-entry.
func (s *PaymentService) RecordSale(ctx context.Context, accountID uint, amount decimal.Decimal, promisedDate *time.Time, notes string) error {
	if !money.IsPositive(amount) {
		return ErrInvalidAmount
	}

	s.locks.Lock(accountID)
	defer s.locks.Unlock(accountID)

	err := withConflictRetry(func() error {
		account, err := s.findAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if !account.IsActive() {
			return ErrAccountBlocked
		}

		now := s.now()
		amount = money.Round(amount)
		account.PrincipalOutstanding = account.PrincipalOutstanding.Add(amount)
		// The account-level promised date is the earliest outstanding promise;
		// it decides when the nightly accrual starts treating the account as
		// overdue.
		if promisedDate != nil && (account.PromisedReturnDate == nil || promisedDate.Before(*account.PromisedReturnDate)) {
			account.PromisedReturnDate = promisedDate
		}

		txn := &models.LedgerTransaction{
			AccountID:       accountID,
			TransactionType: models.TransactionTypeSale,
			Notes:           notes,
			TransactionDate: now,
			Entries: []models.LedgerEntry{
				{
					AccountID:    &accountID,
					EntryType:    models.EntryTypeDebit,
					Amount:       amount,
					Status:       models.EntryStatusPending,
					EntryDate:    now,
					PromisedDate: promisedDate,
					Description:  "Credit sale",
				},
				{
					EntryType:   models.EntryTypeCredit,
					Amount:      amount,
					PaidAmount:  amount,
					Status:      models.EntryStatusCompleted,
					EntryDate:   now,
					Description: "Sales",
				},
			},
		}

		return s.ledgerRepo.ApplyTransaction(ctx, account, txn, nil, nil)
	})
	if err != nil {
		return err
	}

	s.enqueueRiskEvaluation(accountID)
	return nil
}

// WriteOffAccount writes off everything the customer still owes as bad debt:
// a credit clearing the customer account balanced by a bad-debt expense
// debit. Pending entries are resolved and the rollups zeroed.
func (s *PaymentService) WriteOffAccount(ctx context.Context, accountID uint, notes string) error {
	s.locks.Lock(accountID)
	defer s.locks.Unlock(accountID)

	return withConflictRetry(func() error {
		account, err := s.findAccount(ctx, accountID)
		if err != nil {
			return err
		}

		remaining := account.TotalOutstanding()
		if !money.IsPositive(remaining) {
			return ErrNothingOutstanding
		}

		now := s.now()
		if err := s.ledgerRepo.MarkPendingCompleted(ctx, accountID, now); err != nil {
			return fmt.Errorf("failed to resolve pending ledger entries: %w", err)
		}
		if err := s.interestRepo.MarkPendingCompleted(ctx, accountID); err != nil {
			return fmt.Errorf("failed to resolve pending interest entries: %w", err)
		}

		account.PrincipalOutstanding = decimal.Zero
		account.InterestOutstanding = decimal.Zero
		account.PenaltyOutstanding = decimal.Zero

		txn := &models.LedgerTransaction{
			AccountID:       accountID,
			TransactionType: models.TransactionTypeWriteoff,
			Notes:           notes,
			TransactionDate: now,
			Entries: []models.LedgerEntry{
				{
					AccountID:   &accountID,
					EntryType:   models.EntryTypeCredit,
					Amount:      remaining,
					PaidAmount:  remaining,
					Status:      models.EntryStatusCompleted,
					EntryDate:   now,
					Description: "Bad debt written off",
				},
				{
					EntryType:   models.EntryTypeDebit,
					Amount:      remaining,
					PaidAmount:  remaining,
					Status:      models.EntryStatusCompleted,
					EntryDate:   now,
					Description: "Bad debt expense",
				},
			},
		}

		return s.ledgerRepo.ApplyTransaction(ctx, account, txn, nil, nil)
	})
}

// withConflictRetry re-runs fn a bounded number of times when it loses an
// optimistic concurrency race. Conflicts are never applied out of order; after
// the retries are exhausted the conflict surfaces to the caller.
func withConflictRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = fn()
		if !errors.Is(err, repository.ErrConcurrencyConflict) {
			return err
		}
		logger.Warn("Concurrent account modification detected, retrying", "attempt", attempt+1)
	}
	return err
}

func (s *PaymentService) findAccount(ctx context.Context, accountID uint) (*models.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

// enqueueRiskEvaluation re-evaluates the account's risk flags after a ledger
// mutation. The mutation has already committed; an evaluation failure is
// logged and retried on the next mutation rather than propagated.
func (s *PaymentService) enqueueRiskEvaluation(accountID uint) {
	if s.riskSvc == nil || s.worker == nil {
		return
	}
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		if _, err := s.riskSvc.EvaluateAccount(ctx, accountID); err != nil {
			logger.Error("Risk evaluation after ledger mutation failed", "account_id", accountID, "error", err)
			return err
		}
		return nil
	})
}

func toInterestPtrs(rows []models.InterestEntry) []*models.InterestEntry {
	out := make([]*models.InterestEntry, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

func toLedgerPtrs(rows []models.LedgerEntry) []*models.LedgerEntry {
	out := make([]*models.LedgerEntry, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

func touchedInterestEntries(entries []*models.InterestEntry) []*models.InterestEntry {
	var touched []*models.InterestEntry
	for _, e := range entries {
		if money.IsPositive(e.PaidAmount) || e.Status == models.EntryStatusCompleted {
			touched = append(touched, e)
		}
	}
	return touched
}

func touchedLedgerEntries(entries []*models.LedgerEntry) []*models.LedgerEntry {
	var touched []*models.LedgerEntry
	for _, e := range entries {
		if money.IsPositive(e.PaidAmount) || e.Status == models.EntryStatusCompleted {
			touched = append(touched, e)
		}
	}
	return touched
}
