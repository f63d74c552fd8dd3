package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rsharda/bahikhata-api/internal/models"

	"gorm.io/gorm"
)

// BatchRepository defines the interface for batch run data access
type BatchRepository interface {
	Create(ctx context.Context, run *models.BatchRun) error
	Update(ctx context.Context, run *models.BatchRun) error
	// FindRunning returns the batch run currently in progress, or nil if none.
	FindRunning(ctx context.Context) (*models.BatchRun, error)
	FindLatest(ctx context.Context) (*models.BatchRun, error)
	FindByDate(ctx context.Context, day time.Time) ([]models.BatchRun, error)
}

type batchRepository struct {
	db *gorm.DB
}

// NewBatchRepository creates a new batch run repository
func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) Create(ctx context.Context, run *models.BatchRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *batchRepository) Update(ctx context.Context, run *models.BatchRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *batchRepository) FindRunning(ctx context.Context) (*models.BatchRun, error) {
	var run models.BatchRun
	err := r.db.WithContext(ctx).
		Where("status = ?", models.BatchStatusRunning).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *batchRepository) FindLatest(ctx context.Context) (*models.BatchRun, error) {
	var run models.BatchRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *batchRepository) FindByDate(ctx context.Context, day time.Time) ([]models.BatchRun, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var runs []models.BatchRun
	err := r.db.WithContext(ctx).
		Where("run_date >= ? AND run_date < ?", start, end).
		Order("started_at ASC").
		Find(&runs).Error
	return runs, err
}
