package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rsharda/bahikhata-api/internal/jobs"
	"github.com/rsharda/bahikhata-api/internal/models"
	"github.com/rsharda/bahikhata-api/internal/repository"
	"github.com/rsharda/bahikhata-api/pkg/logger"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchService orchestrates the daily interest accrual run.
//
// At most one run is in flight at a time: an in-process guard rejects
// concurrent triggers and a persisted running BatchRun row rejects triggers
// from other processes. Two overlapping runs on the same day would
// double-accrue interest.
type BatchService struct {
	accountRepo  repository.AccountRepository
	interestRepo repository.InterestRepository
	batchRepo    repository.BatchRepository
	interestSvc  *InterestService
	riskSvc      *RiskService
	worker       *jobs.Worker
	locks        *accountLocks
	running      atomic.Bool
	enabled      atomic.Bool
	now          func() time.Time
}

// NewBatchService creates a new batch orchestrator
func NewBatchService(
	accountRepo repository.AccountRepository,
	interestRepo repository.InterestRepository,
	batchRepo repository.BatchRepository,
	interestSvc *InterestService,
	riskSvc *RiskService,
	worker *jobs.Worker,
) *BatchService {
	return &BatchService{
		accountRepo:  accountRepo,
		interestRepo: interestRepo,
		batchRepo:    batchRepo,
		interestSvc:  interestSvc,
		riskSvc:      riskSvc,
		worker:       worker,
		locks:        newAccountLocks(),
		now:          time.Now,
	}
}

// Start schedules the daily run at the given clock time. A fire that wakes
// more than grace past its scheduled occurrence is skipped by the scheduler
// rather than run stale.
func (s *BatchService) Start(hour, minute int, grace time.Duration) {
	s.enabled.Store(true)
	s.worker.ScheduleDailyAt(hour, minute, grace, func(ctx context.Context) error {
		if !s.enabled.Load() {
			return nil
		}
		_, err := s.RunDailyBatch(ctx)
		return err
	})
	logger.Info("Scheduled daily interest batch", "fire_time", fmt.Sprintf("%02d:%02d", hour, minute), "misfire_grace", grace)
}

// Stop disables further scheduled runs. A run already in flight finishes.
func (s *BatchService) Stop() {
	s.enabled.Store(false)
}

// RunDailyBatch executes one accrual run: enumerate eligible accounts,
// accrue each one atomically with its watermark, and report. A failure to
// enumerate accounts is critical and fails the run; a failure on a single
// account is recorded in the report and the run continues.
func (s *BatchService) RunDailyBatch(ctx context.Context) (*models.BatchRun, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBatchAlreadyRunning
	}
	defer s.running.Store(false)

	inFlight, err := s.batchRepo.FindRunning(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for running batch: %w", err)
	}
	if inFlight != nil {
		return nil, ErrBatchAlreadyRunning
	}

	now := s.now()
	run := &models.BatchRun{
		RunID:                uuid.NewString(),
		RunDate:              now,
		Status:               models.BatchStatusRunning,
		TotalInterestApplied: decimal.Zero,
		StartedAt:            now,
	}
	if err := s.batchRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create batch run: %w", err)
	}

	logger.Info("Interest batch started", "run_id", run.RunID)

	accounts, err := s.accountRepo.FindEligibleForAccrual(ctx, now)
	if err != nil {
		// Enumeration failure is critical: nothing was processed, abort the
		// whole run.
		criticalErr := fmt.Errorf("failed to enumerate eligible accounts: %w", err)
		run.AppendError(criticalErr.Error())
		s.finishRun(ctx, run, models.BatchStatusFailed)
		logger.Error("Interest batch failed", "run_id", run.RunID, "error", criticalErr)
		sentry.CaptureException(criticalErr)
		return run, criticalErr
	}

	for i := range accounts {
		select {
		case <-ctx.Done():
			run.AppendError(fmt.Sprintf("run interrupted: %v", ctx.Err()))
			s.finishRun(ctx, run, models.BatchStatusFailed)
			return run, ctx.Err()
		default:
		}

		account := accounts[i]
		applied, created, err := s.accrueAccount(ctx, &account)
		run.AccountsProcessed++
		if err != nil {
			// Per-account failures are recoverable; record and continue.
			run.AppendError(fmt.Sprintf("account %d: %v", account.ID, err))
			logger.Error("Interest accrual failed for account", "account_id", account.ID, "error", err)
			continue
		}
		if created {
			run.EntriesCreated++
			run.TotalInterestApplied = run.TotalInterestApplied.Add(applied)
		}
	}

	s.finishRun(ctx, run, models.BatchStatusCompleted)
	logger.Info("Interest batch completed",
		"run_id", run.RunID,
		"accounts_processed", run.AccountsProcessed,
		"entries_created", run.EntriesCreated,
		"total_interest", run.TotalInterestApplied.String(),
		"errors", len(run.Errors()))

	return run, nil
}

// accrueAccount computes and persists one account's accrual. The interest
// entry and the watermark advance commit in a single transaction, so a re-run
// never finds the entry without the watermark. As a second line of defense a
// replayed day is detected via an existing entry's calculation date, which
// survives even if a crash interleaved the run.
//
// A payment landing between enumeration and the accrual write loses the
// version race; the snapshot is reloaded and the accrual retried a bounded
// number of times before the conflict counts as the account's failure.
func (s *BatchService) accrueAccount(ctx context.Context, account *models.Account) (decimal.Decimal, bool, error) {
	s.locks.Lock(account.ID)
	defer s.locks.Unlock(account.ID)

	var applied decimal.Decimal
	var created bool
	err := withConflictRetry(func() error {
		now := s.now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		covered, err := s.interestRepo.ExistsOnOrAfter(ctx, account.ID, startOfDay)
		if err != nil {
			return fmt.Errorf("failed to check existing accrual: %w", err)
		}
		if covered {
			logger.Debug("Interest already accrued today, skipping", "account_id", account.ID)
			return nil
		}

		drafts := s.interestSvc.GenerateBatchEntries([]models.Account{*account})
		if len(drafts) == 0 {
			return nil
		}

		entry := drafts[0]
		if err := s.accountRepo.ApplyAccrual(ctx, account, &entry); err != nil {
			if errors.Is(err, repository.ErrConcurrencyConflict) {
				if fresh, ferr := s.accountRepo.FindByID(ctx, account.ID); ferr == nil {
					*account = *fresh
				}
			}
			return err
		}

		applied = entry.Amount
		created = true
		return nil
	})
	if err != nil {
		return decimal.Zero, false, err
	}
	if !created {
		return decimal.Zero, false, nil
	}

	s.enqueueRiskEvaluation(account.ID)
	return applied, true, nil
}

func (s *BatchService) finishRun(ctx context.Context, run *models.BatchRun, status string) {
	finished := s.now()
	run.Status = status
	run.FinishedAt = &finished
	if err := s.batchRepo.Update(ctx, run); err != nil {
		logger.Error("Failed to persist batch run report", "run_id", run.RunID, "error", err)
	}
}

// LatestRun returns the most recent run report, or nil when none exists.
func (s *BatchService) LatestRun(ctx context.Context) (*models.BatchRun, error) {
	return s.batchRepo.FindLatest(ctx)
}

// RunsOn returns every run report started on the given calendar day, newest
// first. A replayed or manually re-triggered day yields multiple reports.
func (s *BatchService) RunsOn(ctx context.Context, day time.Time) ([]models.BatchRun, error) {
	return s.batchRepo.FindByDate(ctx, day)
}

func (s *BatchService) enqueueRiskEvaluation(accountID uint) {
	if s.riskSvc == nil || s.worker == nil {
		return
	}
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		if _, err := s.riskSvc.EvaluateAccount(ctx, accountID); err != nil {
			logger.Error("Risk evaluation after accrual failed", "account_id", accountID, "error", err)
			return err
		}
		return nil
	})
}
