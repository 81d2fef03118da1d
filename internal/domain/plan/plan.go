package plan

import (
	"fmt"
	"time"
)

// Limit sentinel values. Any other value is a hard monthly cap.
const (
	LimitUnlimited int64 = -1
	LimitDisabled  int64 = 0
)

// FreePlanSlug is the reserved fallback plan for organizations with no
// (or an unrecognized) plan assignment.
const FreePlanSlug = "free"

// Plan is a named, versioned bundle of per-metric limits.
type Plan struct {
	id        uint
	slug      string
	name      string
	version   uint
	limits    map[string]int64
	sortOrder int
	isPublic  bool
	createdAt time.Time
	updatedAt time.Time
}

func NewPlan(slug, name string, limits map[string]int64) (*Plan, error) {
	if slug == "" {
		return nil, fmt.Errorf("plan slug is required")
	}
	if name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if len(slug) > 100 {
		return nil, fmt.Errorf("plan slug too long (max 100 characters)")
	}
	if err := validateLimits(limits); err != nil {
		return nil, err
	}
	if limits == nil {
		limits = make(map[string]int64)
	}

	now := time.Now()
	return &Plan{
		slug:      slug,
		name:      name,
		version:   1,
		limits:    limits,
		isPublic:  true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructPlan(id uint, slug, name string, version uint, limits map[string]int64,
	sortOrder int, isPublic bool, createdAt, updatedAt time.Time) (*Plan, error) {

	if id == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}
	if slug == "" {
		return nil, fmt.Errorf("plan slug is required")
	}
	if limits == nil {
		limits = make(map[string]int64)
	}

	return &Plan{
		id:        id,
		slug:      slug,
		name:      name,
		version:   version,
		limits:    limits,
		sortOrder: sortOrder,
		isPublic:  isPublic,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func validateLimits(limits map[string]int64) error {
	for metric, limit := range limits {
		if metric == "" {
			return fmt.Errorf("metric name cannot be empty")
		}
		if limit < LimitUnlimited {
			return fmt.Errorf("invalid limit %d for metric %s", limit, metric)
		}
	}
	return nil
}

func (p *Plan) ID() uint {
	return p.id
}

func (p *Plan) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("plan ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("plan ID cannot be zero")
	}
	p.id = id
	return nil
}

func (p *Plan) Slug() string {
	return p.slug
}

func (p *Plan) Name() string {
	return p.name
}

func (p *Plan) Version() uint {
	return p.version
}

// Limits returns a copy of the metric limit map.
func (p *Plan) Limits() map[string]int64 {
	out := make(map[string]int64, len(p.limits))
	for k, v := range p.limits {
		out[k] = v
	}
	return out
}

// Metrics returns the metric names this plan configures.
func (p *Plan) Metrics() []string {
	out := make([]string, 0, len(p.limits))
	for k := range p.limits {
		out = append(out, k)
	}
	return out
}

// GetLimit returns the limit for metric. An unconfigured metric is disabled,
// never unlimited.
func (p *Plan) GetLimit(metric string) int64 {
	limit, ok := p.limits[metric]
	if !ok {
		return LimitDisabled
	}
	return limit
}

// UpdateLimits replaces the limit map and bumps the plan version.
func (p *Plan) UpdateLimits(limits map[string]int64) error {
	if len(limits) == 0 {
		return fmt.Errorf("limits cannot be empty")
	}
	if err := validateLimits(limits); err != nil {
		return err
	}
	p.limits = limits
	p.version++
	p.updatedAt = time.Now()
	return nil
}

func (p *Plan) SortOrder() int {
	return p.sortOrder
}

func (p *Plan) SetSortOrder(order int) {
	p.sortOrder = order
	p.updatedAt = time.Now()
}

func (p *Plan) IsPublic() bool {
	return p.isPublic
}

func (p *Plan) SetPublic(isPublic bool) {
	p.isPublic = isPublic
	p.updatedAt = time.Now()
}

func (p *Plan) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Plan) UpdatedAt() time.Time {
	return p.updatedAt
}
