package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"metergate/internal/domain/alert"
	"metergate/internal/infrastructure/persistence/models"
	"metergate/internal/shared/logger"
)

type NotificationConfigRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewNotificationConfigRepository(db *gorm.DB, logger logger.Interface) alert.ConfigRepository {
	return &NotificationConfigRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Get returns the organization's delivery settings, falling back to the
// default feed-only configuration when none are stored.
func (r *NotificationConfigRepositoryImpl) Get(ctx context.Context, orgSID string) (*alert.NotificationConfig, error) {
	var model models.NotificationConfigModel
	err := r.db.WithContext(ctx).
		Where("org_sid = ?", orgSID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return alert.DefaultNotificationConfig(orgSID), nil
		}
		r.logger.Errorw("failed to get notification config", "error", err, "org_sid", orgSID)
		return nil, fmt.Errorf("failed to get notification config: %w", err)
	}

	return r.toEntity(&model)
}

func (r *NotificationConfigRepositoryImpl) Upsert(ctx context.Context, cfg *alert.NotificationConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	model, err := r.toModel(cfg)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "org_sid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"enabled",
			"channels",
			"thresholds",
			"recipients",
			"webhook_url",
			"chat_webhook_url",
			"updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert notification config", "error", err, "org_sid", cfg.OrgSID)
		return fmt.Errorf("failed to upsert notification config: %w", err)
	}
	return nil
}

func (r *NotificationConfigRepositoryImpl) toModel(cfg *alert.NotificationConfig) (*models.NotificationConfigModel, error) {
	channels, err := json.Marshal(cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal channels: %w", err)
	}
	thresholds, err := json.Marshal(cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal thresholds: %w", err)
	}
	recipients, err := json.Marshal(cfg.Recipients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipients: %w", err)
	}

	return &models.NotificationConfigModel{
		OrgSID:         cfg.OrgSID,
		Enabled:        cfg.Enabled,
		Channels:       datatypes.JSON(channels),
		Thresholds:     datatypes.JSON(thresholds),
		Recipients:     datatypes.JSON(recipients),
		WebhookURL:     cfg.WebhookURL,
		ChatWebhookURL: cfg.ChatWebhookURL,
	}, nil
}

func (r *NotificationConfigRepositoryImpl) toEntity(model *models.NotificationConfigModel) (*alert.NotificationConfig, error) {
	cfg := &alert.NotificationConfig{
		OrgSID:         model.OrgSID,
		Enabled:        model.Enabled,
		WebhookURL:     model.WebhookURL,
		ChatWebhookURL: model.ChatWebhookURL,
	}

	if len(model.Channels) > 0 {
		if err := json.Unmarshal(model.Channels, &cfg.Channels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal channels: %w", err)
		}
	}
	if len(model.Thresholds) > 0 {
		if err := json.Unmarshal(model.Thresholds, &cfg.Thresholds); err != nil {
			return nil, fmt.Errorf("failed to unmarshal thresholds: %w", err)
		}
	}
	if len(model.Recipients) > 0 {
		if err := json.Unmarshal(model.Recipients, &cfg.Recipients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipients: %w", err)
		}
	}

	return cfg, nil
}
