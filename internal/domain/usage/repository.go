package usage

import "context"

// Repository persists monthly usage counters. Every mutation must execute
// inside one atomic transaction against the backing store; rollover happens
// first when the stored period has lapsed.
type Repository interface {
	// IncrementUsage atomically adds amount to the current period's counter,
	// creating the record lazily and rolling it over first if stale.
	IncrementUsage(ctx context.Context, orgID, metric string, amount int64) error

	// GetUsage returns the current period's value. A stale stored period
	// reads as zero and is physically reset before the value is returned.
	GetUsage(ctx context.Context, orgID, metric string) (int64, error)

	// GetRecord returns the full current-period record, rolled over if
	// stale. Returns nil when the organization has never recorded usage.
	GetRecord(ctx context.Context, orgID string) (*UsageRecord, error)

	// ResetMonthlyUsage zeroes all counters for the organization.
	ResetMonthlyUsage(ctx context.Context, orgID string) error

	// ResetStaleRecords re-tags and zeroes every record whose month differs
	// from currentMonth, returning how many were swept.
	ResetStaleRecords(ctx context.Context, currentMonth string) (int64, error)
}

// GaugeRepository persists concurrency gauges. Increment and decrement run
// as transactional read-modify-writes serialized by the store; both return
// the post-update value.
type GaugeRepository interface {
	IncrementConcurrent(ctx context.Context, orgID, metric string) (int64, error)
	DecrementConcurrent(ctx context.Context, orgID, metric string) (int64, error)
	GetConcurrent(ctx context.Context, orgID, metric string) (int64, error)

	// ResetConcurrent zeroes the gauge; administrative crash recovery only.
	ResetConcurrent(ctx context.Context, orgID, metric string) error
}
