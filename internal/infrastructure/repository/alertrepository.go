package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"metergate/internal/domain/alert"
	"metergate/internal/infrastructure/persistence/models"
	"metergate/internal/shared/logger"
)

var ErrAlertNotFound = errors.New("alert not found")

type AlertRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewAlertRepository(db *gorm.DB, logger logger.Interface) alert.Repository {
	return &AlertRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *AlertRepositoryImpl) Create(ctx context.Context, a *alert.Alert) error {
	model := &models.AlertModel{
		SID:            a.SID(),
		OrgSID:         a.OrgSID(),
		Feature:        a.Feature(),
		AlertType:      string(a.AlertType()),
		Threshold:      a.Threshold(),
		Percentage:     a.Percentage(),
		Severity:       string(a.Severity()),
		Message:        a.Message(),
		Acknowledged:   a.Acknowledged(),
		AcknowledgedAt: a.AcknowledgedAt(),
		CreatedAt:      a.CreatedAt(),
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create alert", "error", err, "org_sid", a.OrgSID())
		return fmt.Errorf("failed to create alert: %w", err)
	}

	if a.ID() == 0 && model.ID > 0 {
		if err := a.SetID(model.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *AlertRepositoryImpl) GetBySID(ctx context.Context, sid string) (*alert.Alert, error) {
	var model models.AlertModel
	err := r.db.WithContext(ctx).
		Where("sid = ?", sid).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAlertNotFound
		}
		r.logger.Errorw("failed to get alert", "error", err, "sid", sid)
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return r.toEntity(&model)
}

func (r *AlertRepositoryImpl) ListByOrg(ctx context.Context, orgSID string, limit int) ([]*alert.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.AlertModel
	if err := r.db.WithContext(ctx).
		Where("org_sid = ?", orgSID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list alerts", "error", err, "org_sid", orgSID)
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	out := make([]*alert.Alert, 0, len(rows))
	for i := range rows {
		a, err := r.toEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// ExistsSince backs alert dedup when the shared lock store is unavailable.
func (r *AlertRepositoryImpl) ExistsSince(ctx context.Context, orgSID, feature string, threshold int, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AlertModel{}).
		Where("org_sid = ? AND feature = ? AND alert_type = ? AND threshold = ? AND created_at > ?",
			orgSID, feature, string(alert.TypeThreshold), threshold, since).
		Count(&count).Error
	if err != nil {
		r.logger.Errorw("failed to check alert existence",
			"error", err, "org_sid", orgSID, "feature", feature, "threshold", threshold)
		return false, fmt.Errorf("failed to check alert existence: %w", err)
	}
	return count > 0, nil
}

func (r *AlertRepositoryImpl) Acknowledge(ctx context.Context, sid string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.AlertModel{}).
		Where("sid = ? AND acknowledged = ?", sid, false).
		Updates(map[string]interface{}{
			"acknowledged":    true,
			"acknowledged_at": now,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to acknowledge alert", "error", result.Error, "sid", sid)
		return fmt.Errorf("failed to acknowledge alert: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Already acknowledged or unknown SID; distinguish the two.
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.AlertModel{}).
			Where("sid = ?", sid).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to acknowledge alert: %w", err)
		}
		if count == 0 {
			return ErrAlertNotFound
		}
	}
	return nil
}

func (r *AlertRepositoryImpl) toEntity(model *models.AlertModel) (*alert.Alert, error) {
	return alert.ReconstructAlert(model.ID, model.SID, model.OrgSID, model.Feature,
		alert.Type(model.AlertType), model.Threshold, model.Percentage,
		alert.Severity(model.Severity), model.Message,
		model.Acknowledged, model.AcknowledgedAt, model.CreatedAt)
}
