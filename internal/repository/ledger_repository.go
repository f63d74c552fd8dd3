package repository

import (
	"context"
	"time"

	"github.com/rsharda/bahikhata-api/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository defines the interface for ledger transaction and entry data access
type LedgerRepository interface {
	// CreateTransaction persists a transaction with its entries after checking
	// the balance invariant. Returns ErrUnbalancedTransaction otherwise.
	CreateTransaction(ctx context.Context, txn *models.LedgerTransaction) error
	FindTransactionsByAccount(ctx context.Context, accountID uint) ([]models.LedgerTransaction, error)
	// FindPendingDebits returns the account's unpaid debit entries ordered by
	// promised date ascending (oldest debt first), which is the principal
	// phase order of the payment waterfall.
	FindPendingDebits(ctx context.Context, accountID uint) ([]models.LedgerEntry, error)
	// FindRecentDebits returns the newest debit entries for the account, up to
	// limit, newest first. This is the risk evaluation window.
	FindRecentDebits(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error)
	// HasPendingDebitOlderThan reports whether any pending debit's promised
	// date is before the cutoff.
	HasPendingDebitOlderThan(ctx context.Context, accountID uint, cutoff time.Time) (bool, error)
	UpdateEntries(ctx context.Context, entries []*models.LedgerEntry) error
	MarkPendingCompleted(ctx context.Context, accountID uint, paidDate time.Time) error
	// ApplyTransaction persists one economic event atomically: the new
	// balanced transaction, any entries the event modified, and the account's
	// rollup update with an optimistic version check. Either everything
	// commits or nothing does; ErrConcurrencyConflict means retry.
	ApplyTransaction(ctx context.Context, account *models.Account, txn *models.LedgerTransaction, interestEntries []*models.InterestEntry, principalEntries []*models.LedgerEntry) error
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, txn *models.LedgerTransaction) error {
	if !txn.Balanced() {
		return ErrUnbalancedTransaction
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *ledgerRepository) FindTransactionsByAccount(ctx context.Context, accountID uint) ([]models.LedgerTransaction, error) {
	var txns []models.LedgerTransaction
	err := r.db.WithContext(ctx).
		Preload("Entries").
		Where("account_id = ?", accountID).
		Order("transaction_date ASC, id ASC").
		Find(&txns).Error
	return txns, err
}

func (r *ledgerRepository) FindPendingDebits(ctx context.Context, accountID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where("entry_type = ?", models.EntryTypeDebit).
		Where("status = ?", models.EntryStatusPending).
		Order("promised_date ASC NULLS LAST, entry_date ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) FindRecentDebits(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where("entry_type = ?", models.EntryTypeDebit).
		Order("entry_date DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) HasPendingDebitOlderThan(ctx context.Context, accountID uint, cutoff time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("account_id = ?", accountID).
		Where("entry_type = ?", models.EntryTypeDebit).
		Where("status = ?", models.EntryStatusPending).
		Where("promised_date IS NOT NULL AND promised_date < ?", cutoff).
		Count(&count).Error
	return count > 0, err
}

func (r *ledgerRepository) UpdateEntries(ctx context.Context, entries []*models.LedgerEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			if err := tx.Save(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ledgerRepository) ApplyTransaction(ctx context.Context, account *models.Account, txn *models.LedgerTransaction, interestEntries []*models.InterestEntry, principalEntries []*models.LedgerEntry) error {
	if txn != nil && !txn.Balanced() {
		return ErrUnbalancedTransaction
	}
	version := account.Version
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if txn != nil {
			if err := tx.Create(txn).Error; err != nil {
				return err
			}
		}
		for _, entry := range interestEntries {
			if err := tx.Save(entry).Error; err != nil {
				return err
			}
		}
		for _, entry := range principalEntries {
			if err := tx.Save(entry).Error; err != nil {
				return err
			}
		}

		account.Version = version + 1
		res := tx.Model(&models.Account{}).
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
	})
}

func (r *ledgerRepository) MarkPendingCompleted(ctx context.Context, accountID uint, paidDate time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("account_id = ?", accountID).
		Where("status = ?", models.EntryStatusPending).
		Updates(map[string]interface{}{
			"status":    models.EntryStatusCompleted,
			"paid_date": paidDate,
		}).Error
}
