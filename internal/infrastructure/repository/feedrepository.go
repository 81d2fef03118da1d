package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"metergate/internal/domain/alert"
	"metergate/internal/infrastructure/persistence/models"
	"metergate/internal/shared/logger"
)

var ErrFeedItemNotFound = errors.New("feed item not found")

type FeedRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewFeedRepository(db *gorm.DB, logger logger.Interface) alert.FeedRepository {
	return &FeedRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *FeedRepositoryImpl) Create(ctx context.Context, item *alert.FeedItem) error {
	model := &models.FeedItemModel{
		OrgSID:    item.OrgSID(),
		AlertSID:  item.AlertSID(),
		Title:     item.Title(),
		Body:      item.Body(),
		Read:      item.Read(),
		CreatedAt: item.CreatedAt(),
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create feed item", "error", err, "org_sid", item.OrgSID())
		return fmt.Errorf("failed to create feed item: %w", err)
	}

	if item.ID() == 0 && model.ID > 0 {
		if err := item.SetID(model.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *FeedRepositoryImpl) ListByOrg(ctx context.Context, orgSID string, limit int) ([]*alert.FeedItem, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.FeedItemModel
	if err := r.db.WithContext(ctx).
		Where("org_sid = ?", orgSID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list feed items", "error", err, "org_sid", orgSID)
		return nil, fmt.Errorf("failed to list feed items: %w", err)
	}

	out := make([]*alert.FeedItem, 0, len(rows))
	for _, row := range rows {
		item, err := alert.ReconstructFeedItem(row.ID, row.OrgSID, row.AlertSID,
			row.Title, row.Body, row.Read, row.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *FeedRepositoryImpl) MarkRead(ctx context.Context, orgSID string, itemID uint) error {
	result := r.db.WithContext(ctx).Model(&models.FeedItemModel{}).
		Where("id = ? AND org_sid = ?", itemID, orgSID).
		Update("read", true)
	if result.Error != nil {
		r.logger.Errorw("failed to mark feed item read",
			"error", result.Error, "org_sid", orgSID, "item_id", itemID)
		return fmt.Errorf("failed to mark feed item read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrFeedItemNotFound
	}
	return nil
}
