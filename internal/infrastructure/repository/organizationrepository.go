package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"metergate/internal/domain/organization"
	"metergate/internal/infrastructure/persistence/models"
	"metergate/internal/shared/logger"
)

var ErrOrganizationNotFound = errors.New("organization not found")

type OrganizationRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewOrganizationRepository(db *gorm.DB, logger logger.Interface) organization.Repository {
	return &OrganizationRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *OrganizationRepositoryImpl) GetBySID(ctx context.Context, sid string) (*organization.Organization, error) {
	var model models.OrganizationModel
	err := r.db.WithContext(ctx).
		Where("sid = ?", sid).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrganizationNotFound
		}
		r.logger.Errorw("failed to get organization", "error", err, "sid", sid)
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return organization.ReconstructOrganization(model.ID, model.SID, model.Name,
		model.PlanSlug, model.CreatedAt, model.UpdatedAt)
}

func (r *OrganizationRepositoryImpl) Create(ctx context.Context, org *organization.Organization) error {
	model := &models.OrganizationModel{
		SID:      org.SID(),
		Name:     org.Name(),
		PlanSlug: org.PlanSlug(),
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create organization", "error", err, "sid", org.SID())
		return fmt.Errorf("failed to create organization: %w", err)
	}

	if org.ID() == 0 && model.ID > 0 {
		if err := org.SetID(model.ID); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePlanSlug writes the plan assignment and the history entry in one
// transaction so the history never disagrees with the assignment.
func (r *OrganizationRepositoryImpl) UpdatePlanSlug(ctx context.Context, sid, planSlug string, change *organization.PlanChange) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OrganizationModel{}).
			Where("sid = ?", sid).
			Update("plan_slug", planSlug)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOrganizationNotFound
		}

		if change == nil {
			return nil
		}
		model := planChangeToModel(change)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return change.SetID(model.ID)
	})

	if err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			return err
		}
		r.logger.Errorw("failed to update plan slug", "error", err, "sid", sid, "plan_slug", planSlug)
		return fmt.Errorf("failed to update plan slug: %w", err)
	}

	return nil
}

// RecordPlanChange appends a deferred history entry; the assignment is
// switched later when the change falls due.
func (r *OrganizationRepositoryImpl) RecordPlanChange(ctx context.Context, change *organization.PlanChange) error {
	model := planChangeToModel(change)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to record plan change", "error", err, "sid", change.OrgSID())
		return fmt.Errorf("failed to record plan change: %w", err)
	}
	return change.SetID(model.ID)
}

func (r *OrganizationRepositoryImpl) ListPlanChanges(ctx context.Context, sid string) ([]*organization.PlanChange, error) {
	var rows []models.PlanChangeModel
	if err := r.db.WithContext(ctx).
		Where("org_sid = ?", sid).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list plan changes", "error", err, "sid", sid)
		return nil, fmt.Errorf("failed to list plan changes: %w", err)
	}
	return planChangesToEntities(rows)
}

func (r *OrganizationRepositoryImpl) ListDuePlanChanges(ctx context.Context, asOf time.Time) ([]*organization.PlanChange, error) {
	var rows []models.PlanChangeModel
	if err := r.db.WithContext(ctx).
		Where("applied = ? AND effective_at <= ?", false, asOf).
		Order("effective_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list due plan changes", "error", err)
		return nil, fmt.Errorf("failed to list due plan changes: %w", err)
	}
	return planChangesToEntities(rows)
}

func (r *OrganizationRepositoryImpl) MarkPlanChangeApplied(ctx context.Context, changeID uint) error {
	result := r.db.WithContext(ctx).Model(&models.PlanChangeModel{}).
		Where("id = ?", changeID).
		Update("applied", true)
	if result.Error != nil {
		r.logger.Errorw("failed to mark plan change applied", "error", result.Error, "change_id", changeID)
		return fmt.Errorf("failed to mark plan change applied: %w", result.Error)
	}
	return nil
}

func planChangeToModel(change *organization.PlanChange) *models.PlanChangeModel {
	return &models.PlanChangeModel{
		OrgSID:      change.OrgSID(),
		FromSlug:    change.FromSlug(),
		ToSlug:      change.ToSlug(),
		EffectiveAt: change.EffectiveAt(),
		Immediate:   change.Immediate(),
		Applied:     change.Applied(),
		InitiatedBy: change.InitiatedBy(),
	}
}

func planChangesToEntities(rows []models.PlanChangeModel) ([]*organization.PlanChange, error) {
	out := make([]*organization.PlanChange, 0, len(rows))
	for _, row := range rows {
		change, err := organization.ReconstructPlanChange(row.ID, row.OrgSID, row.FromSlug,
			row.ToSlug, row.EffectiveAt, row.Immediate, row.Applied, row.InitiatedBy, row.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, change)
	}
	return out, nil
}
