package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"metergate/internal/domain/usage"
	"metergate/internal/infrastructure/persistence/models"
	"metergate/internal/shared/logger"
)

type GaugeRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewGaugeRepository(db *gorm.DB, logger logger.Interface) usage.GaugeRepository {
	return &GaugeRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// IncrementConcurrent bumps the gauge atomically and returns the post-update
// value. The row is created on first use.
func (r *GaugeRepositoryImpl) IncrementConcurrent(ctx context.Context, orgID, metric string) (int64, error) {
	if orgID == "" {
		return 0, usage.ErrEmptyOrg
	}
	if metric == "" {
		return 0, usage.ErrEmptyMetric
	}

	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ConcurrentGaugeModel{}).
			Where("org_sid = ? AND metric = ?", orgID, metric).
			Update("value", gorm.Expr("value + ?", 1))
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			model := &models.ConcurrentGaugeModel{
				OrgSID: orgID,
				Metric: metric,
				Value:  1,
			}
			if err := tx.Create(model).Error; err != nil {
				return err
			}
			value = 1
			return nil
		}

		return tx.Model(&models.ConcurrentGaugeModel{}).
			Select("value").
			Where("org_sid = ? AND metric = ?", orgID, metric).
			Scan(&value).Error
	})

	if err != nil {
		r.logger.Errorw("failed to increment concurrent gauge",
			"error", err, "org_sid", orgID, "metric", metric)
		return 0, fmt.Errorf("failed to increment concurrent gauge: %w", err)
	}

	return value, nil
}

// DecrementConcurrent lowers the gauge atomically, clamping at zero, and
// returns the post-update value. The value > 0 guard makes the clamp part of
// the UPDATE itself, so racing decrements can never drive the gauge
// negative. Decrementing a missing gauge is a no-op reading zero.
func (r *GaugeRepositoryImpl) DecrementConcurrent(ctx context.Context, orgID, metric string) (int64, error) {
	if orgID == "" {
		return 0, usage.ErrEmptyOrg
	}
	if metric == "" {
		return 0, usage.ErrEmptyMetric
	}

	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ConcurrentGaugeModel{}).
			Where("org_sid = ? AND metric = ? AND value > 0", orgID, metric).
			Update("value", gorm.Expr("value - ?", 1))
		if result.Error != nil {
			return result.Error
		}

		var model models.ConcurrentGaugeModel
		err := tx.Where("org_sid = ? AND metric = ?", orgID, metric).
			First(&model).Error
		if err == gorm.ErrRecordNotFound {
			value = 0
			return nil
		}
		if err != nil {
			return err
		}
		value = model.Value
		return nil
	})

	if err != nil {
		r.logger.Errorw("failed to decrement concurrent gauge",
			"error", err, "org_sid", orgID, "metric", metric)
		return 0, fmt.Errorf("failed to decrement concurrent gauge: %w", err)
	}

	return value, nil
}

func (r *GaugeRepositoryImpl) GetConcurrent(ctx context.Context, orgID, metric string) (int64, error) {
	if orgID == "" {
		return 0, usage.ErrEmptyOrg
	}
	if metric == "" {
		return 0, usage.ErrEmptyMetric
	}

	var model models.ConcurrentGaugeModel
	err := r.db.WithContext(ctx).
		Where("org_sid = ? AND metric = ?", orgID, metric).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		r.logger.Errorw("failed to get concurrent gauge", "error", err, "org_sid", orgID, "metric", metric)
		return 0, fmt.Errorf("failed to get concurrent gauge: %w", err)
	}

	if model.Value < 0 {
		return 0, nil
	}
	return model.Value, nil
}

func (r *GaugeRepositoryImpl) ResetConcurrent(ctx context.Context, orgID, metric string) error {
	if orgID == "" {
		return usage.ErrEmptyOrg
	}
	if metric == "" {
		return usage.ErrEmptyMetric
	}

	result := r.db.WithContext(ctx).Model(&models.ConcurrentGaugeModel{}).
		Where("org_sid = ? AND metric = ?", orgID, metric).
		Update("value", 0)
	if result.Error != nil {
		r.logger.Errorw("failed to reset concurrent gauge",
			"error", result.Error, "org_sid", orgID, "metric", metric)
		return fmt.Errorf("failed to reset concurrent gauge: %w", result.Error)
	}

	r.logger.Infow("concurrent gauge reset", "org_sid", orgID, "metric", metric)
	return nil
}
