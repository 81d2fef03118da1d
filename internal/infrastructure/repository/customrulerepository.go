package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"metergate/internal/domain/rule"
	"metergate/internal/infrastructure/persistence/models"
	"metergate/internal/shared/logger"
)

var ErrRuleNotFound = errors.New("custom rule not found")

type CustomRuleRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewCustomRuleRepository(db *gorm.DB, logger logger.Interface) rule.Repository {
	return &CustomRuleRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *CustomRuleRepositoryImpl) Create(ctx context.Context, cr *rule.CustomRule) error {
	model, err := r.toModel(cr)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create custom rule", "error", err, "org_sid", cr.OrgSID())
		return fmt.Errorf("failed to create custom rule: %w", err)
	}

	if cr.ID() == 0 && model.ID > 0 {
		if err := cr.SetID(model.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *CustomRuleRepositoryImpl) GetBySID(ctx context.Context, sid string) (*rule.CustomRule, error) {
	var model models.CustomRuleModel
	err := r.db.WithContext(ctx).
		Where("sid = ?", sid).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRuleNotFound
		}
		r.logger.Errorw("failed to get custom rule", "error", err, "sid", sid)
		return nil, fmt.Errorf("failed to get custom rule: %w", err)
	}

	return r.toEntity(&model)
}

func (r *CustomRuleRepositoryImpl) ListActive(ctx context.Context, orgSID, feature string) ([]*rule.CustomRule, error) {
	var rows []models.CustomRuleModel
	err := r.db.WithContext(ctx).
		Where("org_sid = ? AND feature = ? AND enabled = ?", orgSID, feature, true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to list active rules", "error", err, "org_sid", orgSID, "feature", feature)
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}

	return r.toEntities(rows)
}

func (r *CustomRuleRepositoryImpl) ListByOrg(ctx context.Context, orgSID string) ([]*rule.CustomRule, error) {
	var rows []models.CustomRuleModel
	err := r.db.WithContext(ctx).
		Where("org_sid = ?", orgSID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to list rules", "error", err, "org_sid", orgSID)
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	return r.toEntities(rows)
}

func (r *CustomRuleRepositoryImpl) Update(ctx context.Context, cr *rule.CustomRule) error {
	model, err := r.toModel(cr)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&models.CustomRuleModel{}).
		Where("sid = ?", cr.SID()).
		Updates(map[string]interface{}{
			"effect":     model.Effect,
			"conditions": model.Conditions,
			"reason":     model.Reason,
			"enabled":    model.Enabled,
			"expires_at": model.ExpiresAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update custom rule", "error", result.Error, "sid", cr.SID())
		return fmt.Errorf("failed to update custom rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *CustomRuleRepositoryImpl) Delete(ctx context.Context, sid string) error {
	result := r.db.WithContext(ctx).
		Where("sid = ?", sid).
		Delete(&models.CustomRuleModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete custom rule", "error", result.Error, "sid", sid)
		return fmt.Errorf("failed to delete custom rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *CustomRuleRepositoryImpl) toModel(cr *rule.CustomRule) (*models.CustomRuleModel, error) {
	conditions, err := json.Marshal(cr.Conditions())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rule conditions: %w", err)
	}

	return &models.CustomRuleModel{
		ID:         cr.ID(),
		SID:        cr.SID(),
		OrgSID:     cr.OrgSID(),
		Feature:    cr.Feature(),
		RuleType:   string(cr.RuleType()),
		Effect:     string(cr.Effect()),
		Conditions: datatypes.JSON(conditions),
		Reason:     cr.Reason(),
		Enabled:    cr.Enabled(),
		ExpiresAt:  cr.ExpiresAt(),
	}, nil
}

func (r *CustomRuleRepositoryImpl) toEntity(model *models.CustomRuleModel) (*rule.CustomRule, error) {
	var conditions rule.Conditions
	if len(model.Conditions) > 0 {
		if err := json.Unmarshal(model.Conditions, &conditions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rule conditions: %w", err)
		}
	}

	return rule.ReconstructCustomRule(model.ID, model.SID, model.OrgSID, model.Feature,
		rule.Type(model.RuleType), rule.Effect(model.Effect), conditions, model.Reason,
		model.Enabled, model.ExpiresAt, model.CreatedAt, model.UpdatedAt)
}

func (r *CustomRuleRepositoryImpl) toEntities(rows []models.CustomRuleModel) ([]*rule.CustomRule, error) {
	out := make([]*rule.CustomRule, 0, len(rows))
	for i := range rows {
		cr, err := r.toEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, nil
}
