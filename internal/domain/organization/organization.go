package organization

import (
	"fmt"
	"time"

	"metergate/internal/shared/id"
)

// Organization is the billing and quota unit. All usage and limits are
// scoped to it via its Stripe-style SID.
type Organization struct {
	id        uint
	sid       string
	name      string
	planSlug  string
	createdAt time.Time
	updatedAt time.Time
}

func NewOrganization(name, planSlug string) (*Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}

	sid, err := id.NewOrganizationID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	now := time.Now()
	return &Organization{
		sid:       sid,
		name:      name,
		planSlug:  planSlug,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructOrganization(orgID uint, sid, name, planSlug string, createdAt, updatedAt time.Time) (*Organization, error) {
	if orgID == 0 {
		return nil, fmt.Errorf("organization ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("organization SID is required")
	}

	return &Organization{
		id:        orgID,
		sid:       sid,
		name:      name,
		planSlug:  planSlug,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func (o *Organization) ID() uint {
	return o.id
}

func (o *Organization) SetID(orgID uint) error {
	if o.id != 0 {
		return fmt.Errorf("organization ID is already set")
	}
	if orgID == 0 {
		return fmt.Errorf("organization ID cannot be zero")
	}
	o.id = orgID
	return nil
}

func (o *Organization) SID() string {
	return o.sid
}

func (o *Organization) Name() string {
	return o.name
}

// PlanSlug returns the assigned plan slug; empty when never assigned.
func (o *Organization) PlanSlug() string {
	return o.planSlug
}

func (o *Organization) AssignPlan(planSlug string) error {
	if planSlug == "" {
		return fmt.Errorf("plan slug cannot be empty")
	}
	o.planSlug = planSlug
	o.updatedAt = time.Now()
	return nil
}

func (o *Organization) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Organization) UpdatedAt() time.Time {
	return o.updatedAt
}
