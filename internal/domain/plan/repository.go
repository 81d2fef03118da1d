package plan

import "context"

// Repository persists the global plan table.
type Repository interface {
	GetBySlug(ctx context.Context, slug string) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
	ListPublic(ctx context.Context) ([]*Plan, error)
	Create(ctx context.Context, plan *Plan) error
	Update(ctx context.Context, plan *Plan) error
}
