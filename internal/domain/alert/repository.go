package alert

import (
	"context"
	"time"
)

// Repository persists the append-only alert collection.
type Repository interface {
	Create(ctx context.Context, a *Alert) error
	GetBySID(ctx context.Context, sid string) (*Alert, error)
	ListByOrg(ctx context.Context, orgSID string, limit int) ([]*Alert, error)

	// ExistsSince reports whether a threshold alert for (org, feature,
	// threshold) was created after since. Backs the dedup window.
	ExistsSince(ctx context.Context, orgSID, feature string, threshold int, since time.Time) (bool, error)

	// Acknowledge persists the acknowledged flag; the only permitted
	// mutation of an alert.
	Acknowledge(ctx context.Context, sid string) error
}

// ConfigRepository persists per-organization notification settings.
type ConfigRepository interface {
	Get(ctx context.Context, orgSID string) (*NotificationConfig, error)
	Upsert(ctx context.Context, cfg *NotificationConfig) error
}

// FeedRepository persists in-product feed items.
type FeedRepository interface {
	Create(ctx context.Context, item *FeedItem) error
	ListByOrg(ctx context.Context, orgSID string, limit int) ([]*FeedItem, error)
	MarkRead(ctx context.Context, orgSID string, itemID uint) error
}
