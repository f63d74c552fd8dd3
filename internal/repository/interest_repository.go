package repository

import (
	"context"
	"time"

	"github.com/rsharda/bahikhata-api/internal/models"

	"gorm.io/gorm"
)

// InterestRepository defines the interface for interest/penalty entry data access
type InterestRepository interface {
	Create(ctx context.Context, entry *models.InterestEntry) error
	// FindPendingByType returns the account's unpaid entries of the given
	// interest type, oldest interest date first. This is the phase order of the
	// payment waterfall.
	FindPendingByType(ctx context.Context, accountID uint, interestType string) ([]models.InterestEntry, error)
	FindByAccount(ctx context.Context, accountID uint) ([]models.InterestEntry, error)
	// ExistsOnOrAfter reports whether an interest entry with a calculation
	// date at or past the cutoff already exists for the account. Re-running a
	// partially-completed batch day uses this instead of trusting the account
	// watermark, which may lag behind a persisted entry after a crash.
	ExistsOnOrAfter(ctx context.Context, accountID uint, cutoff time.Time) (bool, error)
	UpdateEntries(ctx context.Context, entries []*models.InterestEntry) error
	MarkPendingCompleted(ctx context.Context, accountID uint) error
}

type interestRepository struct {
	db *gorm.DB
}

// NewInterestRepository creates a new interest entry repository
func NewInterestRepository(db *gorm.DB) InterestRepository {
	return &interestRepository{db: db}
}

func (r *interestRepository) Create(ctx context.Context, entry *models.InterestEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *interestRepository) FindPendingByType(ctx context.Context, accountID uint, interestType string) ([]models.InterestEntry, error) {
	var entries []models.InterestEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where("interest_type = ?", interestType).
		Where("status = ?", models.EntryStatusPending).
		Order("interest_date ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *interestRepository) FindByAccount(ctx context.Context, accountID uint) ([]models.InterestEntry, error) {
	var entries []models.InterestEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("interest_date ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *interestRepository) ExistsOnOrAfter(ctx context.Context, accountID uint, cutoff time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InterestEntry{}).
		Where("account_id = ?", accountID).
		Where("calculation_date >= ?", cutoff).
		Count(&count).Error
	return count > 0, err
}

func (r *interestRepository) UpdateEntries(ctx context.Context, entries []*models.InterestEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			if err := tx.Save(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *interestRepository) MarkPendingCompleted(ctx context.Context, accountID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.InterestEntry{}).
		Where("account_id = ?", accountID).
		Where("status = ?", models.EntryStatusPending).
		Update("status", models.EntryStatusCompleted).Error
}
