package repository

import (
	"context"
	"time"

	"github.com/rsharda/bahikhata-api/internal/models"

	"gorm.io/gorm"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id uint) (*models.Account, error)
	// FindEligibleForAccrual returns a snapshot of accounts the nightly batch
	// should consider: outstanding principal, interest not frozen, promised
	// return date in the past, account active.
	FindEligibleForAccrual(ctx context.Context, now time.Time) ([]models.Account, error)
	// Update persists the account with an optimistic version check and bumps
	// the version. Returns ErrConcurrencyConflict when the row was modified
	// since it was read.
	Update(ctx context.Context, account *models.Account) error
	// ApplyAccrual persists a new interest entry, advances the account's
	// accrual watermark and interest rollup, all in one database transaction.
	// Either both commit or neither does.
	ApplyAccrual(ctx context.Context, account *models.Account, entry *models.InterestEntry) error
	UpdateStatus(ctx context.Context, accountID uint, status string) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepository) FindByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindEligibleForAccrual(ctx context.Context, now time.Time) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Where("principal_outstanding > 0").
		Where("freeze_interest = ?", false).
		Where("promised_return_date IS NOT NULL AND promised_return_date < ?", now).
		Where("status = ?", models.AccountStatusActive).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	version := account.Version
	account.Version++
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND version = ?", account.ID, version).
		Select("*").
		Omit("id", "created_at").
		Updates(account)
	if res.Error != nil {
		account.Version = version
		return res.Error
	}
	if res.RowsAffected == 0 {
		account.Version = version
		return ErrConcurrencyConflict
	}
	return nil
}

func (r *accountRepository) ApplyAccrual(ctx context.Context, account *models.Account, entry *models.InterestEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Account{}).
			Where("id = ? AND version = ?", account.ID, account.Version).
			Updates(map[string]interface{}{
				"last_interest_calc_date": entry.CalculationDate,
				"interest_outstanding":    gorm.Expr("interest_outstanding + ?", entry.Amount),
				"version":                 gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrencyConflict
		}
		account.Version++
		account.LastInterestCalcDate = &entry.CalculationDate
		account.InterestOutstanding = account.InterestOutstanding.Add(entry.Amount)
		return nil
	})
}

func (r *accountRepository) UpdateStatus(ctx context.Context, accountID uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"status":  status,
			"version": gorm.Expr("version + 1"),
		}).Error
}
