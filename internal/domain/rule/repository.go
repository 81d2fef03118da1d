package rule

import "context"

// Repository persists custom per-organization rules.
type Repository interface {
	Create(ctx context.Context, r *CustomRule) error
	GetBySID(ctx context.Context, sid string) (*CustomRule, error)

	// ListActive returns enabled, unexpired rules for (org, feature) in
	// creation order. Evaluation is first-match-wins.
	ListActive(ctx context.Context, orgSID, feature string) ([]*CustomRule, error)

	ListByOrg(ctx context.Context, orgSID string) ([]*CustomRule, error)
	Update(ctx context.Context, r *CustomRule) error
	Delete(ctx context.Context, sid string) error
}
