package usage

import "time"

// ConcurrentGauge counts simultaneous in-flight uses of a metric for one
// organization. The value never goes below zero; it is reset only by
// explicit administrative action (crash recovery).
type ConcurrentGauge struct {
	orgID     string
	metric    string
	value     int64
	updatedAt time.Time
}

func NewConcurrentGauge(orgID, metric string) (*ConcurrentGauge, error) {
	if orgID == "" {
		return nil, ErrEmptyOrg
	}
	if metric == "" {
		return nil, ErrEmptyMetric
	}

	return &ConcurrentGauge{
		orgID:     orgID,
		metric:    metric,
		updatedAt: time.Now(),
	}, nil
}

func ReconstructConcurrentGauge(orgID, metric string, value int64, updatedAt time.Time) (*ConcurrentGauge, error) {
	if orgID == "" {
		return nil, ErrEmptyOrg
	}
	if metric == "" {
		return nil, ErrEmptyMetric
	}
	if value < 0 {
		value = 0
	}

	return &ConcurrentGauge{
		orgID:     orgID,
		metric:    metric,
		value:     value,
		updatedAt: updatedAt,
	}, nil
}

func (g *ConcurrentGauge) OrgID() string {
	return g.orgID
}

func (g *ConcurrentGauge) Metric() string {
	return g.metric
}

func (g *ConcurrentGauge) Value() int64 {
	return g.value
}

func (g *ConcurrentGauge) UpdatedAt() time.Time {
	return g.updatedAt
}

// Increment bumps the in-flight count and returns the post-update value.
func (g *ConcurrentGauge) Increment() int64 {
	g.value++
	g.updatedAt = time.Now()
	return g.value
}

// Decrement lowers the in-flight count, clamping at zero, and returns the
// post-update value.
func (g *ConcurrentGauge) Decrement() int64 {
	if g.value > 0 {
		g.value--
	}
	g.updatedAt = time.Now()
	return g.value
}

// Reset zeroes the gauge (administrative crash recovery).
func (g *ConcurrentGauge) Reset() {
	g.value = 0
	g.updatedAt = time.Now()
}
