package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rsharda/bahikhata-api/internal/models"
	"github.com/rsharda/bahikhata-api/internal/repository"
	"github.com/rsharda/bahikhata-api/internal/statemachine"
	"github.com/rsharda/bahikhata-api/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RiskConfig holds the thresholds for behavioral flag evaluation.
type RiskConfig struct {
	HighDebtThreshold  decimal.Decimal // outstanding balance above this flags high_debt_risk
	DelayGraceDays     int             // days past promised date before a pending entry counts as delayed
	FrequentDelayCount int             // delayed count at which frequent_delays activates
	OnTimePaymentCount int             // on-time count required for on_time_payer
	RecentEntryWindow  int             // how many recent debit entries the evaluation examines
	NPADays            int             // days past promised date at which a pending debit makes the account NPA
}

// DefaultRiskConfig returns the standard thresholds.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		HighDebtThreshold:  decimal.NewFromInt(50000),
		DelayGraceDays:     15,
		FrequentDelayCount: 3,
		OnTimePaymentCount: 5,
		RecentEntryWindow:  20,
		NPADays:            90,
	}
}

// RiskEvaluation is the outcome of one evaluation pass.
type RiskEvaluation struct {
	AccountID          uint              `json:"account_id"`
	AccountStatus      string            `json:"account_status"`
	OutstandingBalance decimal.Decimal   `json:"outstanding_balance"`
	DelayedPayments    int               `json:"delayed_payments"`
	OnTimePayments     int               `json:"on_time_payments"`
	FlagsAdded         []models.FlagType `json:"flags_added"`
	FlagsRemoved       []models.FlagType `json:"flags_removed"`
	ActiveFlags        []models.RiskFlag `json:"active_flags"`
	RiskLevel          models.RiskLevel  `json:"risk_level"`
}

// RiskProfile is the read-only risk summary for an account.
type RiskProfile struct {
	AccountID            uint              `json:"account_id"`
	CustomerName         string            `json:"customer_name"`
	AccountStatus        string            `json:"account_status"`
	OutstandingBalance   decimal.Decimal   `json:"outstanding_balance"`
	TotalPaid            decimal.Decimal   `json:"total_paid"`
	ActiveFlags          []models.RiskFlag `json:"active_flags"`
	CreditRecommendation string            `json:"credit_recommendation"`
}

// RiskService derives and retires behavioral risk flags for accounts.
//
// Automatic flags (high_debt_risk, frequent_delays, on_time_payer) are added
// and retired by EvaluateAccount. The npa flag is add-only: a later pass that
// no longer finds a 90-day-overdue entry does not clear it. Manual flags are
// applied by operators and never touched by the automatic pass.
type RiskService struct {
	accountRepo repository.AccountRepository
	ledgerRepo  repository.LedgerRepository
	flagRepo    repository.RiskFlagRepository
	cfg         RiskConfig
	locks       *accountLocks
	now         func() time.Time
}

// NewRiskService creates a new risk service
func NewRiskService(
	accountRepo repository.AccountRepository,
	ledgerRepo repository.LedgerRepository,
	flagRepo repository.RiskFlagRepository,
	cfg RiskConfig,
) *RiskService {
	return &RiskService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		flagRepo:    flagRepo,
		cfg:         cfg,
		locks:       newAccountLocks(),
		now:         time.Now,
	}
}

// EvaluateAccount re-derives the account's automatic flags from its recent
// payment behavior and current balances. Adding an already-active flag is a
// no-op; retired flags are set inactive, never deleted.
func (s *RiskService) EvaluateAccount(ctx context.Context, accountID uint) (*RiskEvaluation, error) {
	s.locks.Lock(accountID)
	defer s.locks.Unlock(accountID)

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	entries, err := s.ledgerRepo.FindRecentDebits(ctx, accountID, s.cfg.RecentEntryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent entries: %w", err)
	}

	activeFlags, err := s.flagRepo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active flags: %w", err)
	}

	now := s.now()
	onTime, delayed := s.countPaymentBehavior(entries, now)

	activeByType := make(map[models.FlagType]*models.RiskFlag, len(activeFlags))
	for i := range activeFlags {
		flag := &activeFlags[i]
		if flag.Status == models.FlagStatusActive {
			activeByType[flag.FlagType] = flag
		}
	}

	var toAdd []models.FlagType
	var toRetire []*models.RiskFlag

	// retireAuto retires an active flag unless it is operator-applied.
	retireAuto := func(flagType models.FlagType) {
		if flag, ok := activeByType[flagType]; ok && !flag.IsManual {
			toRetire = append(toRetire, flag)
		}
	}
	addIfMissing := func(flagType models.FlagType) {
		if _, ok := activeByType[flagType]; !ok {
			toAdd = append(toAdd, flagType)
		}
	}

	outstanding := account.TotalOutstanding()
	if outstanding.GreaterThan(s.cfg.HighDebtThreshold) {
		addIfMissing(models.FlagHighDebtRisk)
	} else {
		retireAuto(models.FlagHighDebtRisk)
	}

	if delayed >= s.cfg.FrequentDelayCount {
		addIfMissing(models.FlagFrequentDelays)
	} else {
		retireAuto(models.FlagFrequentDelays)
	}

	if delayed == 0 && onTime >= s.cfg.OnTimePaymentCount {
		addIfMissing(models.FlagOnTimePayer)
	} else {
		retireAuto(models.FlagOnTimePayer)
	}

	// NPA is add-only: nothing here ever retires it.
	npaCutoff := now.AddDate(0, 0, -s.cfg.NPADays)
	overdueNPA, err := s.ledgerRepo.HasPendingDebitOlderThan(ctx, accountID, npaCutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to check npa entries: %w", err)
	}
	if overdueNPA {
		if _, ok := activeByType[models.FlagNPA]; !ok {
			toAdd = append(toAdd, models.FlagNPA)
			if err := s.markAccountNPA(ctx, account); err != nil {
				return nil, err
			}
		}
	}

	for _, flagType := range toAdd {
		flag := &models.RiskFlag{
			FlagID:      uuid.NewString(),
			AccountID:   accountID,
			FlagType:    flagType,
			Status:      models.FlagStatusActive,
			Description: flagType.Description(),
			FlagDate:    now,
		}
		if err := s.flagRepo.Create(ctx, flag); err != nil {
			return nil, fmt.Errorf("failed to create %s flag: %w", flagType, err)
		}
		activeByType[flagType] = flag
		logger.Info("Risk flag added", "account_id", accountID, "flag", string(flagType))
	}

	removed := make([]models.FlagType, 0, len(toRetire))
	for _, flag := range toRetire {
		if err := s.flagRepo.Retire(ctx, flag, now); err != nil {
			return nil, fmt.Errorf("failed to retire %s flag: %w", flag.FlagType, err)
		}
		delete(activeByType, flag.FlagType)
		removed = append(removed, flag.FlagType)
		logger.Info("Risk flag retired", "account_id", accountID, "flag", string(flag.FlagType))
	}

	currentFlags := make([]models.RiskFlag, 0, len(activeByType))
	for _, flag := range activeByType {
		currentFlags = append(currentFlags, *flag)
	}

	return &RiskEvaluation{
		AccountID:          accountID,
		AccountStatus:      account.Status,
		OutstandingBalance: outstanding,
		DelayedPayments:    delayed,
		OnTimePayments:     onTime,
		FlagsAdded:         toAdd,
		FlagsRemoved:       removed,
		ActiveFlags:        currentFlags,
		RiskLevel:          s.riskLevel(activeByType, delayed, onTime),
	}, nil
}

// ApplyManualFlag applies an operator-decided flag. Manual flags are never
// auto-retired; no_further_credit blocks the account, a manual npa marks it
// non-performing.
func (s *RiskService) ApplyManualFlag(ctx context.Context, accountID uint, flagType models.FlagType, reason string) (*models.RiskFlag, error) {
	if !flagType.Valid() {
		return nil, ErrInvalidFlagType
	}
	if !flagType.Manual() && flagType != models.FlagNPA {
		return nil, ErrInvalidFlagType
	}

	s.locks.Lock(accountID)
	defer s.locks.Unlock(accountID)

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	activeFlags, err := s.flagRepo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active flags: %w", err)
	}
	for i := range activeFlags {
		if activeFlags[i].FlagType == flagType {
			// Already active: no duplicate flag, no state change.
			return &activeFlags[i], nil
		}
	}

	if reason == "" {
		reason = flagType.Description()
	}

	flag := &models.RiskFlag{
		FlagID:      uuid.NewString(),
		AccountID:   accountID,
		FlagType:    flagType,
		Status:      models.FlagStatusActive,
		IsManual:    true,
		Description: reason,
		FlagDate:    s.now(),
	}
	if err := s.flagRepo.Create(ctx, flag); err != nil {
		return nil, fmt.Errorf("failed to create manual flag: %w", err)
	}

	switch flagType {
	case models.FlagNPA:
		if err := s.markAccountNPA(ctx, account); err != nil {
			return nil, err
		}
	case models.FlagNoFurtherCredit:
		afsm := statemachine.NewAccountFSM(account)
		if err := afsm.Block(ctx); err != nil {
			// An npa account stays npa; the flag itself still applies.
			logger.Warn("Account not blocked by no_further_credit flag", "account_id", accountID, "status", account.Status)
		} else if err := s.accountRepo.UpdateStatus(ctx, accountID, account.Status); err != nil {
			return nil, fmt.Errorf("failed to update account status: %w", err)
		}
	}

	logger.Info("Manual risk flag applied", "account_id", accountID, "flag", string(flagType))
	return flag, nil
}

// ReinstateAccount is the explicit manual action that clears a blocked or npa
// account back to active, retiring the flags that forced the status.
func (s *RiskService) ReinstateAccount(ctx context.Context, accountID uint) error {
	s.locks.Lock(accountID)
	defer s.locks.Unlock(accountID)

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	afsm := statemachine.NewAccountFSM(account)
	if err := afsm.Reinstate(ctx); err != nil {
		return ErrInvalidState
	}
	if err := s.accountRepo.UpdateStatus(ctx, accountID, account.Status); err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}

	activeFlags, err := s.flagRepo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to load active flags: %w", err)
	}
	now := s.now()
	for i := range activeFlags {
		flag := &activeFlags[i]
		if flag.FlagType == models.FlagNPA || flag.FlagType == models.FlagNoFurtherCredit {
			if err := s.flagRepo.Retire(ctx, flag, now); err != nil {
				return fmt.Errorf("failed to retire %s flag: %w", flag.FlagType, err)
			}
		}
	}

	logger.Info("Account reinstated", "account_id", accountID)
	return nil
}

// GetRiskProfile returns the account's current risk summary without
// re-deriving flags.
func (s *RiskService) GetRiskProfile(ctx context.Context, accountID uint) (*RiskProfile, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	activeFlags, err := s.flagRepo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active flags: %w", err)
	}

	recommendation := "ALLOWED"
	for _, flag := range activeFlags {
		if flag.FlagType == models.FlagNPA || flag.FlagType == models.FlagNoFurtherCredit {
			recommendation = "DENIED"
			break
		}
	}

	return &RiskProfile{
		AccountID:            accountID,
		CustomerName:         account.CustomerName,
		AccountStatus:        account.Status,
		OutstandingBalance:   account.TotalOutstanding(),
		TotalPaid:            account.TotalPaid,
		ActiveFlags:          activeFlags,
		CreditRecommendation: recommendation,
	}, nil
}

func (s *RiskService) markAccountNPA(ctx context.Context, account *models.Account) error {
	afsm := statemachine.NewAccountFSM(account)
	if err := afsm.MarkNPA(ctx); err != nil {
		return fmt.Errorf("failed to mark account npa: %w", err)
	}
	if err := s.accountRepo.UpdateStatus(ctx, account.ID, account.Status); err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	return nil
}

// countPaymentBehavior classifies the recent debit entries: completed entries
// paid on or before their promised date count as on-time, completed-late ones
// as delayed, and pending entries past the grace window as delayed. Entries
// without a promised date are not classified.
func (s *RiskService) countPaymentBehavior(entries []models.LedgerEntry, now time.Time) (onTime, delayed int) {
	grace := time.Duration(s.cfg.DelayGraceDays) * 24 * time.Hour

	for _, entry := range entries {
		if entry.PromisedDate == nil {
			continue
		}
		switch entry.Status {
		case models.EntryStatusCompleted:
			if entry.PaidDate != nil && !entry.PaidDate.After(*entry.PromisedDate) {
				onTime++
			} else {
				delayed++
			}
		case models.EntryStatusPending:
			if now.After(entry.PromisedDate.Add(grace)) {
				delayed++
			}
		}
	}
	return onTime, delayed
}

// riskLevel scores the current flag set deterministically. npa or
// no_further_credit short-circuits to critical.
func (s *RiskService) riskLevel(active map[models.FlagType]*models.RiskFlag, delayed, onTime int) models.RiskLevel {
	if _, ok := active[models.FlagNPA]; ok {
		return models.RiskLevelCritical
	}
	if _, ok := active[models.FlagNoFurtherCredit]; ok {
		return models.RiskLevelCritical
	}

	score := 0
	if _, ok := active[models.FlagHighDebtRisk]; ok {
		score += 3
	}
	if _, ok := active[models.FlagFrequentDelays]; ok {
		score += 2
	}
	if _, ok := active[models.FlagOnTimePayer]; ok {
		score--
	}
	if delayed > onTime {
		score++
	}

	switch {
	case score >= 4:
		return models.RiskLevelHigh
	case score >= 2:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}
