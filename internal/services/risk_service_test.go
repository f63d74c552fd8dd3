package services

import (
	"context"
	"testing"
	"time"

	"github.com/rsharda/bahikhata-api/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newRiskServiceForTest(accountRepo *mockAccountRepo, ledgerRepo *mockLedgerRepo, flagRepo *mockRiskFlagRepo) *RiskService {
	return NewRiskService(accountRepo, ledgerRepo, flagRepo, DefaultRiskConfig())
}

func activeAccount(id uint, principal float64) *models.Account {
	return &models.Account{
		ID:                   id,
		CustomerName:         "Ramesh",
		PrincipalOutstanding: decimal.NewFromFloat(principal),
		InterestOutstanding:  decimal.Zero,
		PenaltyOutstanding:   decimal.Zero,
		TotalPaid:            decimal.Zero,
		Status:               models.AccountStatusActive,
	}
}

func onTimeEntry(promised time.Time) models.LedgerEntry {
	paid := promised.AddDate(0, 0, -1)
	return models.LedgerEntry{
		EntryType:    models.EntryTypeDebit,
		Status:       models.EntryStatusCompleted,
		PromisedDate: &promised,
		PaidDate:     &paid,
	}
}

func delayedEntry(promised time.Time) models.LedgerEntry {
	paid := promised.AddDate(0, 0, 20)
	return models.LedgerEntry{
		EntryType:    models.EntryTypeDebit,
		Status:       models.EntryStatusCompleted,
		PromisedDate: &promised,
		PaidDate:     &paid,
	}
}

func TestRiskService_EvaluateAccount_HighDebtFlagAdded(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	ledgerRepo := &mockLedgerRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, ledgerRepo, flagRepo)

	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return activeAccount(id, 60000), nil
	}
	ledgerRepo.mockFindRecentDebits = func(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
		return nil, nil
	}
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return nil, nil
	}

	var created []models.RiskFlag
	flagRepo.mockCreate = func(ctx context.Context, flag *models.RiskFlag) error {
		created = append(created, *flag)
		return nil
	}

	eval, err := svc.EvaluateAccount(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, []models.FlagType{models.FlagHighDebtRisk}, eval.FlagsAdded)
	assert.Empty(t, eval.FlagsRemoved)
	assert.Equal(t, models.RiskLevelMedium, eval.RiskLevel)

	assert.Len(t, created, 1)
	assert.Equal(t, models.FlagHighDebtRisk, created[0].FlagType)
	assert.False(t, created[0].IsManual)
	assert.NotEmpty(t, created[0].FlagID)
}

func TestRiskService_EvaluateAccount_HighDebtFlagRetiredBelowThreshold(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	ledgerRepo := &mockLedgerRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, ledgerRepo, flagRepo)

	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return activeAccount(id, 40000), nil
	}
	ledgerRepo.mockFindRecentDebits = func(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
		return nil, nil
	}
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return []models.RiskFlag{
			{FlagType: models.FlagHighDebtRisk, Status: models.FlagStatusActive},
		}, nil
	}

	var retired []models.FlagType
	flagRepo.mockRetire = func(ctx context.Context, flag *models.RiskFlag, retiredAt time.Time) error {
		retired = append(retired, flag.FlagType)
		return nil
	}

	eval, err := svc.EvaluateAccount(context.Background(), 1)
	assert.NoError(t, err)
	assert.Empty(t, eval.FlagsAdded)
	assert.Equal(t, []models.FlagType{models.FlagHighDebtRisk}, eval.FlagsRemoved)
	assert.Equal(t, []models.FlagType{models.FlagHighDebtRisk}, retired)
	assert.Equal(t, models.RiskLevelLow, eval.RiskLevel)
}

func TestRiskService_EvaluateAccount_FrequentDelays(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	ledgerRepo := &mockLedgerRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, ledgerRepo, flagRepo)

	now := time.Now()
	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return activeAccount(id, 60000), nil
	}
	ledgerRepo.mockFindRecentDebits = func(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
		return []models.LedgerEntry{
			delayedEntry(now.AddDate(0, 0, -60)),
			delayedEntry(now.AddDate(0, 0, -90)),
			// Pending past the 15-day grace also counts as delayed.
			{EntryType: models.EntryTypeDebit, Status: models.EntryStatusPending, PromisedDate: timePtr(now.AddDate(0, 0, -30))},
		}, nil
	}
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return nil, nil
	}

	eval, err := svc.EvaluateAccount(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 3, eval.DelayedPayments)
	assert.Contains(t, eval.FlagsAdded, models.FlagFrequentDelays)
	assert.Contains(t, eval.FlagsAdded, models.FlagHighDebtRisk)
	// high debt (3) + frequent delays (2) + more delays than on-time (1)
	assert.Equal(t, models.RiskLevelHigh, eval.RiskLevel)
}

func TestRiskService_EvaluateAccount_OnTimePayer(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	ledgerRepo := &mockLedgerRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, ledgerRepo, flagRepo)

	now := time.Now()
	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return activeAccount(id, 5000), nil
	}
	ledgerRepo.mockFindRecentDebits = func(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
		var entries []models.LedgerEntry
		for i := 0; i < 5; i++ {
			entries = append(entries, onTimeEntry(now.AddDate(0, 0, -30*(i+1))))
		}
		return entries, nil
	}
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return nil, nil
	}

	eval, err := svc.EvaluateAccount(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 5, eval.OnTimePayments)
	assert.Equal(t, 0, eval.DelayedPayments)
	assert.Equal(t, []models.FlagType{models.FlagOnTimePayer}, eval.FlagsAdded)
	assert.Equal(t, models.RiskLevelLow, eval.RiskLevel)
}

func TestRiskService_EvaluateAccount_NPA(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	ledgerRepo := &mockLedgerRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, ledgerRepo, flagRepo)

	account := activeAccount(1, 5000)
	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return account, nil
	}
	ledgerRepo.mockFindRecentDebits = func(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
		return nil, nil
	}
	ledgerRepo.mockHasPendingDebitOlderThan = func(ctx context.Context, accountID uint, cutoff time.Time) (bool, error) {
		return true, nil
	}
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return nil, nil
	}

	var statusUpdates []string
	accountRepo.mockUpdateStatus = func(ctx context.Context, accountID uint, status string) error {
		statusUpdates = append(statusUpdates, status)
		return nil
	}

	eval, err := svc.EvaluateAccount(context.Background(), 1)
	assert.NoError(t, err)
	assert.Contains(t, eval.FlagsAdded, models.FlagNPA)
	assert.Equal(t, models.RiskLevelCritical, eval.RiskLevel)
	assert.Equal(t, []string{models.AccountStatusNPA}, statusUpdates)
	assert.Equal(t, models.AccountStatusNPA, account.Status)
}

func TestRiskService_EvaluateAccount_NPAIsSticky(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	ledgerRepo := &mockLedgerRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, ledgerRepo, flagRepo)

	account := activeAccount(1, 5000)
	account.Status = models.AccountStatusNPA
	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return account, nil
	}
	ledgerRepo.mockFindRecentDebits = func(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
		return nil, nil
	}
	// The 90-day condition no longer holds, but the flag must survive.
	ledgerRepo.mockHasPendingDebitOlderThan = func(ctx context.Context, accountID uint, cutoff time.Time) (bool, error) {
		return false, nil
	}
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return []models.RiskFlag{
			{FlagType: models.FlagNPA, Status: models.FlagStatusActive},
		}, nil
	}

	retireCalled := false
	flagRepo.mockRetire = func(ctx context.Context, flag *models.RiskFlag, retiredAt time.Time) error {
		retireCalled = true
		return nil
	}

	eval, err := svc.EvaluateAccount(context.Background(), 1)
	assert.NoError(t, err)
	assert.False(t, retireCalled)
	assert.Empty(t, eval.FlagsRemoved)
	assert.Equal(t, models.RiskLevelCritical, eval.RiskLevel)
}

func TestRiskService_EvaluateAccount_ManualFlagsNeverAutoRetired(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	ledgerRepo := &mockLedgerRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, ledgerRepo, flagRepo)

	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return activeAccount(id, 1000), nil
	}
	ledgerRepo.mockFindRecentDebits = func(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
		return nil, nil
	}
	// A manually applied high_debt_risk stays even though the balance is low.
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return []models.RiskFlag{
			{FlagType: models.FlagHighDebtRisk, Status: models.FlagStatusActive, IsManual: true},
		}, nil
	}

	retireCalled := false
	flagRepo.mockRetire = func(ctx context.Context, flag *models.RiskFlag, retiredAt time.Time) error {
		retireCalled = true
		return nil
	}

	eval, err := svc.EvaluateAccount(context.Background(), 1)
	assert.NoError(t, err)
	assert.False(t, retireCalled)
	assert.Empty(t, eval.FlagsRemoved)
}

func TestRiskService_ApplyManualFlag_NoFurtherCreditBlocksAccount(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	ledgerRepo := &mockLedgerRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, ledgerRepo, flagRepo)

	account := activeAccount(1, 5000)
	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return account, nil
	}
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return nil, nil
	}

	var statusUpdates []string
	accountRepo.mockUpdateStatus = func(ctx context.Context, accountID uint, status string) error {
		statusUpdates = append(statusUpdates, status)
		return nil
	}

	flag, err := svc.ApplyManualFlag(context.Background(), 1, models.FlagNoFurtherCredit, "repeated defaults")
	assert.NoError(t, err)
	assert.True(t, flag.IsManual)
	assert.Equal(t, "repeated defaults", flag.Description)
	assert.Equal(t, []string{models.AccountStatusBlocked}, statusUpdates)
	assert.Equal(t, models.AccountStatusBlocked, account.Status)
}

func TestRiskService_ApplyManualFlag_Idempotent(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	ledgerRepo := &mockLedgerRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, ledgerRepo, flagRepo)

	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return activeAccount(id, 5000), nil
	}
	existing := models.RiskFlag{FlagID: "abc", FlagType: models.FlagNoFurtherCredit, Status: models.FlagStatusActive, IsManual: true}
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return []models.RiskFlag{existing}, nil
	}

	createCalled := false
	flagRepo.mockCreate = func(ctx context.Context, flag *models.RiskFlag) error {
		createCalled = true
		return nil
	}

	flag, err := svc.ApplyManualFlag(context.Background(), 1, models.FlagNoFurtherCredit, "")
	assert.NoError(t, err)
	assert.False(t, createCalled)
	assert.Equal(t, "abc", flag.FlagID)
}

func TestRiskService_ApplyManualFlag_RejectsInvalidTypes(t *testing.T) {
	svc := newRiskServiceForTest(&mockAccountRepo{}, &mockLedgerRepo{}, &mockRiskFlagRepo{})

	_, err := svc.ApplyManualFlag(context.Background(), 1, models.FlagType("bogus"), "")
	assert.ErrorIs(t, err, ErrInvalidFlagType)

	// Automatic flags cannot be applied by hand.
	_, err = svc.ApplyManualFlag(context.Background(), 1, models.FlagHighDebtRisk, "")
	assert.ErrorIs(t, err, ErrInvalidFlagType)
}

func TestRiskService_ReinstateAccount(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	ledgerRepo := &mockLedgerRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, ledgerRepo, flagRepo)

	account := activeAccount(1, 5000)
	account.Status = models.AccountStatusBlocked
	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return account, nil
	}
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return []models.RiskFlag{
			{FlagType: models.FlagNoFurtherCredit, Status: models.FlagStatusActive, IsManual: true},
			{FlagType: models.FlagHighDebtRisk, Status: models.FlagStatusActive},
		}, nil
	}

	var retired []models.FlagType
	flagRepo.mockRetire = func(ctx context.Context, flag *models.RiskFlag, retiredAt time.Time) error {
		retired = append(retired, flag.FlagType)
		return nil
	}

	err := svc.ReinstateAccount(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, models.AccountStatusActive, account.Status)
	// Only the status-forcing flags get retired; high_debt_risk stays.
	assert.Equal(t, []models.FlagType{models.FlagNoFurtherCredit}, retired)
}

func TestRiskService_ReinstateAccount_AlreadyActive(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	svc := newRiskServiceForTest(accountRepo, &mockLedgerRepo{}, &mockRiskFlagRepo{})

	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return activeAccount(id, 5000), nil
	}

	err := svc.ReinstateAccount(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRiskService_GetRiskProfile_DeniedWhenNPA(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, &mockLedgerRepo{}, flagRepo)

	account := activeAccount(1, 5000)
	account.Status = models.AccountStatusNPA
	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return account, nil
	}
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return []models.RiskFlag{
			{FlagType: models.FlagNPA, Status: models.FlagStatusActive},
		}, nil
	}

	profile, err := svc.GetRiskProfile(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, "DENIED", profile.CreditRecommendation)
}

func TestRiskService_GetRiskProfile_Allowed(t *testing.T) {
	accountRepo := &mockAccountRepo{}
	flagRepo := &mockRiskFlagRepo{}
	svc := newRiskServiceForTest(accountRepo, &mockLedgerRepo{}, flagRepo)

	accountRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Account, error) {
		return activeAccount(id, 60000), nil
	}
	flagRepo.mockFindActiveByAccount = func(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
		return []models.RiskFlag{
			{FlagType: models.FlagHighDebtRisk, Status: models.FlagStatusActive},
		}, nil
	}

	profile, err := svc.GetRiskProfile(context.Background(), 1)
	assert.NoError(t, err)
	// Risky but not barred: high debt alone does not deny credit.
	assert.Equal(t, "ALLOWED", profile.CreditRecommendation)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
