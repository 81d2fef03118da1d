package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"metergate/internal/domain/plan"
	"metergate/internal/infrastructure/persistence/models"
	"metergate/internal/shared/logger"
)

type PlanRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewPlanRepository(db *gorm.DB, logger logger.Interface) plan.Repository {
	return &PlanRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *PlanRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*plan.Plan, error) {
	var model models.PlanModel
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, plan.ErrPlanNotFound
		}
		r.logger.Errorw("failed to get plan", "error", err, "slug", slug)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.toEntity(&model)
}

func (r *PlanRepositoryImpl) List(ctx context.Context) ([]*plan.Plan, error) {
	var rows []models.PlanModel
	if err := r.db.WithContext(ctx).
		Order("sort_order ASC, id ASC").
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return r.toEntities(rows)
}

func (r *PlanRepositoryImpl) ListPublic(ctx context.Context) ([]*plan.Plan, error) {
	var rows []models.PlanModel
	if err := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list public plans", "error", err)
		return nil, fmt.Errorf("failed to list public plans: %w", err)
	}

	return r.toEntities(rows)
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, p *plan.Plan) error {
	model, err := r.toModel(p)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan", "error", err, "slug", p.Slug())
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if p.ID() == 0 && model.ID > 0 {
		if err := p.SetID(model.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *PlanRepositoryImpl) Update(ctx context.Context, p *plan.Plan) error {
	model, err := r.toModel(p)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&models.PlanModel{}).
		Where("slug = ?", p.Slug()).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"version":    model.Version,
			"limits":     model.Limits,
			"sort_order": model.SortOrder,
			"is_public":  model.IsPublic,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update plan", "error", result.Error, "slug", p.Slug())
		return fmt.Errorf("failed to update plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return plan.ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepositoryImpl) toModel(p *plan.Plan) (*models.PlanModel, error) {
	limits, err := json.Marshal(p.Limits())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan limits: %w", err)
	}

	return &models.PlanModel{
		ID:        p.ID(),
		Slug:      p.Slug(),
		Name:      p.Name(),
		Version:   p.Version(),
		Limits:    datatypes.JSON(limits),
		SortOrder: p.SortOrder(),
		IsPublic:  p.IsPublic(),
	}, nil
}

func (r *PlanRepositoryImpl) toEntity(model *models.PlanModel) (*plan.Plan, error) {
	var limits map[string]int64
	if len(model.Limits) > 0 {
		if err := json.Unmarshal(model.Limits, &limits); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan limits: %w", err)
		}
	}

	return plan.ReconstructPlan(model.ID, model.Slug, model.Name, model.Version,
		limits, model.SortOrder, model.IsPublic, model.CreatedAt, model.UpdatedAt)
}

func (r *PlanRepositoryImpl) toEntities(rows []models.PlanModel) ([]*plan.Plan, error) {
	out := make([]*plan.Plan, 0, len(rows))
	for i := range rows {
		p, err := r.toEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
