package organization

import (
	"fmt"
	"time"
)

// PlanChange is one immutable entry in an organization's plan-change
// history. Entries are appended by the facade and never mutated.
type PlanChange struct {
	id          uint
	orgSID      string
	fromSlug    string
	toSlug      string
	effectiveAt time.Time
	immediate   bool
	applied     bool
	initiatedBy string
	createdAt   time.Time
}

func NewPlanChange(orgSID, fromSlug, toSlug string, effectiveAt time.Time, immediate bool, initiatedBy string) (*PlanChange, error) {
	if orgSID == "" {
		return nil, fmt.Errorf("organization SID is required")
	}
	if toSlug == "" {
		return nil, fmt.Errorf("target plan slug is required")
	}
	if effectiveAt.IsZero() {
		return nil, fmt.Errorf("effective date is required")
	}

	return &PlanChange{
		orgSID:      orgSID,
		fromSlug:    fromSlug,
		toSlug:      toSlug,
		effectiveAt: effectiveAt,
		immediate:   immediate,
		applied:     immediate,
		initiatedBy: initiatedBy,
		createdAt:   time.Now(),
	}, nil
}

func ReconstructPlanChange(changeID uint, orgSID, fromSlug, toSlug string,
	effectiveAt time.Time, immediate, applied bool, initiatedBy string, createdAt time.Time) (*PlanChange, error) {

	if changeID == 0 {
		return nil, fmt.Errorf("plan change ID cannot be zero")
	}
	if orgSID == "" {
		return nil, fmt.Errorf("organization SID is required")
	}

	return &PlanChange{
		id:          changeID,
		orgSID:      orgSID,
		fromSlug:    fromSlug,
		toSlug:      toSlug,
		effectiveAt: effectiveAt,
		immediate:   immediate,
		applied:     applied,
		initiatedBy: initiatedBy,
		createdAt:   createdAt,
	}, nil
}

func (p *PlanChange) ID() uint             { return p.id }
func (p *PlanChange) OrgSID() string       { return p.orgSID }
func (p *PlanChange) FromSlug() string     { return p.fromSlug }
func (p *PlanChange) ToSlug() string       { return p.toSlug }
func (p *PlanChange) EffectiveAt() time.Time { return p.effectiveAt }
func (p *PlanChange) Immediate() bool      { return p.immediate }
func (p *PlanChange) Applied() bool        { return p.applied }
func (p *PlanChange) InitiatedBy() string  { return p.initiatedBy }
func (p *PlanChange) CreatedAt() time.Time { return p.createdAt }

func (p *PlanChange) SetID(changeID uint) error {
	if p.id != 0 {
		return fmt.Errorf("plan change ID is already set")
	}
	if changeID == 0 {
		return fmt.Errorf("plan change ID cannot be zero")
	}
	p.id = changeID
	return nil
}

// MarkApplied records that the assignment has been switched to the target
// slug.
func (p *PlanChange) MarkApplied() {
	p.applied = true
}
