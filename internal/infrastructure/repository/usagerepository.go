package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"metergate/internal/domain/usage"
	"metergate/internal/infrastructure/persistence/models"
	"metergate/internal/shared/biztime"
	"metergate/internal/shared/logger"
)

type UsageRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewUsageRepository(db *gorm.DB, logger logger.Interface) usage.Repository {
	return &UsageRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// IncrementUsage adds amount to the (org, metric) counter for the current
// month inside one transaction. A stale row is rolled over to the current
// month before the increment; a missing row is created with the amount.
func (r *UsageRepositoryImpl) IncrementUsage(ctx context.Context, orgID, metric string, amount int64) error {
	if orgID == "" {
		return usage.ErrEmptyOrg
	}
	if metric == "" {
		return usage.ErrEmptyMetric
	}
	if amount <= 0 {
		return fmt.Errorf("%w: got %d", usage.ErrBadAmount, amount)
	}

	month := biztime.CurrentMonthKey()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Fast path: row exists and already belongs to the current month.
		result := tx.Model(&models.UsageRecordModel{}).
			Where("org_sid = ? AND metric = ? AND month = ?", orgID, metric, month).
			Update("count", gorm.Expr("count + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		// Stale row from a previous month: roll over, then apply the amount.
		result = tx.Model(&models.UsageRecordModel{}).
			Where("org_sid = ? AND metric = ? AND month <> ?", orgID, metric, month).
			Updates(map[string]interface{}{
				"month": month,
				"count": amount,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		// No row yet: create it.
		model := &models.UsageRecordModel{
			OrgSID: orgID,
			Metric: metric,
			Month:  month,
			Count:  amount,
		}
		return tx.Create(model).Error
	})

	if err != nil {
		r.logger.Errorw("failed to increment usage",
			"error", err, "org_sid", orgID, "metric", metric, "amount", amount)
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	return nil
}

// GetUsage returns the current-month counter for (org, metric). A row tagged
// with a lapsed month is reset to zero in place before being reported.
func (r *UsageRepositoryImpl) GetUsage(ctx context.Context, orgID, metric string) (int64, error) {
	if orgID == "" {
		return 0, usage.ErrEmptyOrg
	}
	if metric == "" {
		return 0, usage.ErrEmptyMetric
	}

	month := biztime.CurrentMonthKey()

	var model models.UsageRecordModel
	err := r.db.WithContext(ctx).
		Where("org_sid = ? AND metric = ?", orgID, metric).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		r.logger.Errorw("failed to get usage", "error", err, "org_sid", orgID, "metric", metric)
		return 0, fmt.Errorf("failed to get usage: %w", err)
	}

	if model.Month == month {
		return model.Count, nil
	}

	// Read repair: the stored period has lapsed.
	if err := r.repairStaleRow(ctx, orgID, metric, month); err != nil {
		return 0, err
	}
	return 0, nil
}

func (r *UsageRepositoryImpl) repairStaleRow(ctx context.Context, orgID, metric, month string) error {
	result := r.db.WithContext(ctx).Model(&models.UsageRecordModel{}).
		Where("org_sid = ? AND metric = ? AND month <> ?", orgID, metric, month).
		Updates(map[string]interface{}{
			"month": month,
			"count": 0,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to repair stale usage row",
			"error", result.Error, "org_sid", orgID, "metric", metric)
		return fmt.Errorf("failed to repair stale usage row: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		r.logger.Infow("rolled over stale usage row",
			"org_sid", orgID, "metric", metric, "month", month)
	}
	return nil
}

// GetRecord assembles the organization's full current-month record. Stale
// rows are reset in place first so the returned counters all belong to the
// current period.
func (r *UsageRepositoryImpl) GetRecord(ctx context.Context, orgID string) (*usage.UsageRecord, error) {
	if orgID == "" {
		return nil, usage.ErrEmptyOrg
	}

	month := biztime.CurrentMonthKey()

	result := r.db.WithContext(ctx).Model(&models.UsageRecordModel{}).
		Where("org_sid = ? AND month <> ?", orgID, month).
		Updates(map[string]interface{}{
			"month": month,
			"count": 0,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to repair stale usage rows", "error", result.Error, "org_sid", orgID)
		return nil, fmt.Errorf("failed to repair stale usage rows: %w", result.Error)
	}

	var rows []models.UsageRecordModel
	if err := r.db.WithContext(ctx).
		Where("org_sid = ?", orgID).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to load usage rows", "error", err, "org_sid", orgID)
		return nil, fmt.Errorf("failed to load usage rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	counters := make(map[string]int64, len(rows))
	lastUpdated := rows[0].UpdatedAt
	for _, row := range rows {
		counters[row.Metric] = row.Count
		if row.UpdatedAt.After(lastUpdated) {
			lastUpdated = row.UpdatedAt
		}
	}

	return usage.ReconstructUsageRecord(orgID, month, counters, lastUpdated)
}

// ResetMonthlyUsage zeroes every counter for the organization while keeping
// the rows tagged with the current month.
func (r *UsageRepositoryImpl) ResetMonthlyUsage(ctx context.Context, orgID string) error {
	if orgID == "" {
		return usage.ErrEmptyOrg
	}

	month := biztime.CurrentMonthKey()

	result := r.db.WithContext(ctx).Model(&models.UsageRecordModel{}).
		Where("org_sid = ?", orgID).
		Updates(map[string]interface{}{
			"month": month,
			"count": 0,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to reset monthly usage", "error", result.Error, "org_sid", orgID)
		return fmt.Errorf("failed to reset monthly usage: %w", result.Error)
	}

	r.logger.Infow("monthly usage reset", "org_sid", orgID, "rows", result.RowsAffected)
	return nil
}

// ResetStaleRecords sweeps every row tagged with a lapsed month. Safety net
// behind the per-access read repair; runs from the scheduler.
func (r *UsageRepositoryImpl) ResetStaleRecords(ctx context.Context, currentMonth string) (int64, error) {
	if currentMonth == "" {
		return 0, usage.ErrInvalidMonth
	}

	result := r.db.WithContext(ctx).Model(&models.UsageRecordModel{}).
		Where("month <> ?", currentMonth).
		Updates(map[string]interface{}{
			"month": currentMonth,
			"count": 0,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to reset stale records", "error", result.Error)
		return 0, fmt.Errorf("failed to reset stale records: %w", result.Error)
	}

	return result.RowsAffected, nil
}
