package usage

import (
	"errors"
	"fmt"
	"time"

	"metergate/internal/shared/biztime"
)

var (
	ErrEmptyOrg     = errors.New("organization ID cannot be empty")
	ErrEmptyMetric  = errors.New("metric cannot be empty")
	ErrBadAmount    = errors.New("amount must be positive")
	ErrInvalidMonth = errors.New("month tag cannot be empty")
)

// UsageRecord holds the monotonic per-metric counters for one organization
// and one calendar month. The month tag is authoritative for "current
// period": any access that observes a stale month must reset the counters
// before proceeding (read-repair-on-access).
type UsageRecord struct {
	orgID       string
	month       string
	counters    map[string]int64
	lastUpdated time.Time
}

func NewUsageRecord(orgID string) (*UsageRecord, error) {
	if orgID == "" {
		return nil, ErrEmptyOrg
	}

	return &UsageRecord{
		orgID:       orgID,
		month:       biztime.CurrentMonthKey(),
		counters:    make(map[string]int64),
		lastUpdated: time.Now(),
	}, nil
}

func ReconstructUsageRecord(orgID, month string, counters map[string]int64, lastUpdated time.Time) (*UsageRecord, error) {
	if orgID == "" {
		return nil, ErrEmptyOrg
	}
	if month == "" {
		return nil, ErrInvalidMonth
	}
	if counters == nil {
		counters = make(map[string]int64)
	}

	return &UsageRecord{
		orgID:       orgID,
		month:       month,
		counters:    counters,
		lastUpdated: lastUpdated,
	}, nil
}

func (r *UsageRecord) OrgID() string {
	return r.orgID
}

func (r *UsageRecord) Month() string {
	return r.month
}

func (r *UsageRecord) LastUpdated() time.Time {
	return r.lastUpdated
}

// Count returns the current-period value for metric, zero when unseen.
func (r *UsageRecord) Count(metric string) int64 {
	return r.counters[metric]
}

// Counters returns a copy of the counter map.
func (r *UsageRecord) Counters() map[string]int64 {
	out := make(map[string]int64, len(r.counters))
	for k, v := range r.counters {
		out[k] = v
	}
	return out
}

// IsStale reports whether the record belongs to an earlier period than
// currentMonth.
func (r *UsageRecord) IsStale(currentMonth string) bool {
	return r.month != currentMonth
}

// Rollover resets every counter and re-tags the record with currentMonth.
func (r *UsageRecord) Rollover(currentMonth string) error {
	if currentMonth == "" {
		return ErrInvalidMonth
	}
	r.month = currentMonth
	r.counters = make(map[string]int64)
	r.lastUpdated = time.Now()
	return nil
}

// Increment adds amount to metric's counter. Counters are monotonically
// non-decreasing within a period, so amount must be positive.
func (r *UsageRecord) Increment(metric string, amount int64) error {
	if metric == "" {
		return ErrEmptyMetric
	}
	if amount <= 0 {
		return fmt.Errorf("%w: got %d", ErrBadAmount, amount)
	}
	r.counters[metric] += amount
	r.lastUpdated = time.Now()
	return nil
}

// Reset zeroes all counters while keeping the current month tag.
func (r *UsageRecord) Reset() {
	r.counters = make(map[string]int64)
	r.lastUpdated = time.Now()
}

// HasUsage reports whether any counter is non-zero.
func (r *UsageRecord) HasUsage() bool {
	for _, v := range r.counters {
		if v > 0 {
			return true
		}
	}
	return false
}
