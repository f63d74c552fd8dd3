package repository

import (
	"context"
	"time"

	"github.com/rsharda/bahikhata-api/internal/models"

	"gorm.io/gorm"
)

// RiskFlagRepository defines the interface for risk flag data access
type RiskFlagRepository interface {
	Create(ctx context.Context, flag *models.RiskFlag) error
	FindActiveByAccount(ctx context.Context, accountID uint) ([]models.RiskFlag, error)
	FindByAccount(ctx context.Context, accountID uint) ([]models.RiskFlag, error)
	// Retire sets the flag inactive. Flags are never deleted; history stays
	// auditable.
	Retire(ctx context.Context, flag *models.RiskFlag, retiredAt time.Time) error
}

type riskFlagRepository struct {
	db *gorm.DB
}

// NewRiskFlagRepository creates a new risk flag repository
func NewRiskFlagRepository(db *gorm.DB) RiskFlagRepository {
	return &riskFlagRepository{db: db}
}

func (r *riskFlagRepository) Create(ctx context.Context, flag *models.RiskFlag) error {
	return r.db.WithContext(ctx).Create(flag).Error
}

func (r *riskFlagRepository) FindActiveByAccount(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
	var flags []models.RiskFlag
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where("status = ?", models.FlagStatusActive).
		Order("flag_date ASC, id ASC").
		Find(&flags).Error
	return flags, err
}

func (r *riskFlagRepository) FindByAccount(ctx context.Context, accountID uint) ([]models.RiskFlag, error) {
	var flags []models.RiskFlag
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("flag_date ASC, id ASC").
		Find(&flags).Error
	return flags, err
}

func (r *riskFlagRepository) Retire(ctx context.Context, flag *models.RiskFlag, retiredAt time.Time) error {
	flag.Status = models.FlagStatusInactive
	flag.RetiredAt = &retiredAt
	return r.db.WithContext(ctx).
		Model(flag).
		Updates(map[string]interface{}{
			"status":     models.FlagStatusInactive,
			"retired_at": retiredAt,
		}).Error
}
