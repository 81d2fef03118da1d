package organization

import (
	"context"
	"time"
)

// Repository persists organizations and their plan-change history.
type Repository interface {
	GetBySID(ctx context.Context, sid string) (*Organization, error)
	Create(ctx context.Context, org *Organization) error

	// UpdatePlanSlug updates the plan assignment and appends the history
	// entry in one transaction.
	UpdatePlanSlug(ctx context.Context, sid, planSlug string, change *PlanChange) error

	// RecordPlanChange appends a history entry without touching the
	// assignment. Used for changes deferred to the next billing cycle.
	RecordPlanChange(ctx context.Context, change *PlanChange) error

	ListPlanChanges(ctx context.Context, sid string) ([]*PlanChange, error)

	// ListDuePlanChanges returns unapplied changes whose effective date has
	// passed, oldest first.
	ListDuePlanChanges(ctx context.Context, asOf time.Time) ([]*PlanChange, error)

	// MarkPlanChangeApplied flips the applied flag on one history entry.
	MarkPlanChangeApplied(ctx context.Context, changeID uint) error
}
