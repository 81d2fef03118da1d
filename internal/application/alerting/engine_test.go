package alerting

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metergate/internal/domain/alert"
	"metergate/internal/infrastructure/cache"
	"metergate/internal/shared/logger"
)

type fakeAlertRepo struct {
	mu      sync.Mutex
	created []*alert.Alert
	history bool
	failAll bool
}

func (r *fakeAlertRepo) Create(ctx context.Context, a *alert.Alert) error {
	if r.failAll {
		return errors.New("store down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, a)
	return nil
}

func (r *fakeAlertRepo) GetBySID(ctx context.Context, sid string) (*alert.Alert, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeAlertRepo) ListByOrg(ctx context.Context, orgSID string, limit int) ([]*alert.Alert, error) {
	return nil, nil
}

func (r *fakeAlertRepo) ExistsSince(ctx context.Context, orgSID, feature string, threshold int, since time.Time) (bool, error) {
	return r.history, nil
}

func (r *fakeAlertRepo) Acknowledge(ctx context.Context, sid string) error {
	return nil
}

func (r *fakeAlertRepo) createdAlerts() []*alert.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*alert.Alert(nil), r.created...)
}

type fakeConfigRepo struct {
	cfg *alert.NotificationConfig
}

func (r *fakeConfigRepo) Get(ctx context.Context, orgSID string) (*alert.NotificationConfig, error) {
	if r.cfg != nil {
		return r.cfg, nil
	}
	return alert.DefaultNotificationConfig(orgSID), nil
}

func (r *fakeConfigRepo) Upsert(ctx context.Context, cfg *alert.NotificationConfig) error {
	r.cfg = cfg
	return nil
}

type fakeDedup struct {
	mu       sync.Mutex
	acquired map[string]bool
	fail     bool
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{acquired: make(map[string]bool)}
}

func (d *fakeDedup) TryAcquireAlertLock(ctx context.Context, orgSID, feature string, threshold int) (bool, error) {
	if d.fail {
		return false, errors.New("redis down")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	key := orgSID + ":" + feature + ":" + strconv.Itoa(threshold)
	if d.acquired[key] {
		return false, nil
	}
	d.acquired[key] = true
	return true, nil
}

func (d *fakeDedup) Window() time.Duration { return 24 * time.Hour }

type fakeSamples struct {
	mu      sync.Mutex
	samples map[string][]cache.UsageSample
}

func newFakeSamples() *fakeSamples {
	return &fakeSamples{samples: make(map[string][]cache.UsageSample)}
}

func (s *fakeSamples) seed(orgSID, metric string, at time.Time, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := orgSID + ":" + metric
	s.samples[key] = append(s.samples[key], cache.UsageSample{At: at, Count: count})
}

func (s *fakeSamples) RecordSample(ctx context.Context, orgSID, metric string, count int64) error {
	s.seed(orgSID, metric, time.Now(), count)
	return nil
}

func (s *fakeSamples) GetSince(ctx context.Context, orgSID, metric string, cutoff time.Time) ([]cache.UsageSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []cache.UsageSample
	for _, sample := range s.samples[orgSID+":"+metric] {
		if sample.At.After(cutoff) {
			out = append(out, sample)
		}
	}
	return out, nil
}

func (s *fakeSamples) PruneBefore(ctx context.Context, cutoff time.Time) error { return nil }

type captureSink struct {
	mu         sync.Mutex
	dispatched []*alert.Alert
}

func (s *captureSink) Dispatch(ctx context.Context, a *alert.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatched = append(s.dispatched, a)
}

func (s *captureSink) alerts() []*alert.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*alert.Alert(nil), s.dispatched...)
}

func newTestEngine(repo *fakeAlertRepo, dedup *fakeDedup, samples *fakeSamples, sink *captureSink) *Engine {
	return NewEngine(DefaultEngineConfig(), repo, &fakeConfigRepo{}, dedup, samples, sink, logger.NewLogger())
}

func TestEngine_ThresholdCrossing(t *testing.T) {
	tests := []struct {
		name          string
		current       int64
		limit         int64
		wantAlerts    int
		wantThreshold int
		wantSeverity  alert.Severity
	}{
		{"below all thresholds", 50, 100, 0, 0, ""},
		{"inside 80 band", 82, 100, 1, 80, alert.SeverityWarning},
		{"just past 80 band", 85, 100, 0, 0, ""},
		{"inside 90 band", 91, 100, 1, 90, alert.SeverityCritical},
		{"at the limit", 100, 100, 1, 100, alert.SeverityCritical},
		{"over the limit", 130, 100, 1, 100, alert.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeAlertRepo{}
			sink := &captureSink{}
			e := newTestEngine(repo, newFakeDedup(), newFakeSamples(), sink)

			e.Evaluate(context.Background(), "org_a", "api_calls", tt.current, tt.limit)

			got := sink.alerts()
			require.Len(t, got, tt.wantAlerts)
			if tt.wantAlerts > 0 {
				assert.Equal(t, alert.TypeThreshold, got[0].AlertType())
				assert.Equal(t, tt.wantThreshold, got[0].Threshold())
				assert.Equal(t, tt.wantSeverity, got[0].Severity())
				assert.Len(t, repo.createdAlerts(), tt.wantAlerts, "fired alerts must be persisted")
			}
		})
	}
}

func TestEngine_DedupSuppressesRepeat(t *testing.T) {
	repo := &fakeAlertRepo{}
	sink := &captureSink{}
	e := newTestEngine(repo, newFakeDedup(), newFakeSamples(), sink)
	ctx := context.Background()

	e.Evaluate(ctx, "org_a", "api_calls", 82, 100)
	e.Evaluate(ctx, "org_a", "api_calls", 83, 100)

	assert.Len(t, sink.alerts(), 1, "second crossing within the window must be suppressed")
}

func TestEngine_DedupFallsBackToHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("no prior alert fires", func(t *testing.T) {
		repo := &fakeAlertRepo{history: false}
		sink := &captureSink{}
		dedup := newFakeDedup()
		dedup.fail = true
		e := newTestEngine(repo, dedup, newFakeSamples(), sink)

		e.Evaluate(ctx, "org_a", "api_calls", 82, 100)
		assert.Len(t, sink.alerts(), 1)
	})

	t.Run("prior alert suppresses", func(t *testing.T) {
		repo := &fakeAlertRepo{history: true}
		sink := &captureSink{}
		dedup := newFakeDedup()
		dedup.fail = true
		e := newTestEngine(repo, dedup, newFakeSamples(), sink)

		e.Evaluate(ctx, "org_a", "api_calls", 82, 100)
		assert.Empty(t, sink.alerts())
	})
}

func TestEngine_UnlimitedSkipsThresholds(t *testing.T) {
	repo := &fakeAlertRepo{}
	sink := &captureSink{}
	samples := newFakeSamples()
	e := newTestEngine(repo, newFakeDedup(), samples, sink)

	e.Evaluate(context.Background(), "org_a", "api_calls", 1000000, -1)

	assert.Empty(t, sink.alerts())
	got, err := samples.GetSince(context.Background(), "org_a", "api_calls", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, got, 1, "samples still recorded for unlimited metrics")
}

func TestEngine_SpikeDetection(t *testing.T) {
	repo := &fakeAlertRepo{}
	sink := &captureSink{}
	samples := newFakeSamples()
	e := newTestEngine(repo, newFakeDedup(), samples, sink)
	ctx := context.Background()

	// 100 -> 200 within the window is 100% growth, well past the 50% bar.
	samples.seed("org_a", "api_calls", time.Now().Add(-30*time.Minute), 100)

	e.Evaluate(ctx, "org_a", "api_calls", 200, 1000)

	var spike *alert.Alert
	for _, a := range sink.alerts() {
		if a.AlertType() == alert.TypeSpike {
			spike = a
		}
	}
	require.NotNil(t, spike, "expected a spike alert")
	assert.Equal(t, alert.SeverityWarning, spike.Severity())
}

func TestEngine_ProjectionDetection(t *testing.T) {
	repo := &fakeAlertRepo{}
	sink := &captureSink{}
	samples := newFakeSamples()
	e := newTestEngine(repo, newFakeDedup(), samples, sink)
	ctx := context.Background()

	// 60 units consumed in 30 minutes = 120/hour; 500 remaining is ~4 hours
	// to the limit, inside the 24 hour horizon.
	samples.seed("org_a", "api_calls", time.Now().Add(-30*time.Minute), 440)

	e.Evaluate(ctx, "org_a", "api_calls", 500, 1000)

	var projection *alert.Alert
	for _, a := range sink.alerts() {
		if a.AlertType() == alert.TypeProjection {
			projection = a
		}
	}
	require.NotNil(t, projection, "expected a projection alert")
	assert.Equal(t, alert.SeverityCritical, projection.Severity())
}

func TestEngine_TrendAlertsNotDeduped(t *testing.T) {
	repo := &fakeAlertRepo{}
	sink := &captureSink{}
	samples := newFakeSamples()
	e := newTestEngine(repo, newFakeDedup(), samples, sink)
	ctx := context.Background()

	samples.seed("org_a", "api_calls", time.Now().Add(-30*time.Minute), 100)

	// Both observations sit well past the growth bar; each must fire even
	// though they land inside the same threshold dedup window.
	e.Evaluate(ctx, "org_a", "api_calls", 200, 10000)
	e.Evaluate(ctx, "org_a", "api_calls", 210, 10000)

	spikes := 0
	for _, a := range sink.alerts() {
		if a.AlertType() == alert.TypeSpike {
			spikes++
		}
	}
	assert.Equal(t, 2, spikes, "spike alerts are outside the threshold dedup window")
}

func TestEngine_SlowGrowthNoTrendAlerts(t *testing.T) {
	repo := &fakeAlertRepo{}
	sink := &captureSink{}
	samples := newFakeSamples()
	e := newTestEngine(repo, newFakeDedup(), samples, sink)
	ctx := context.Background()

	// 1 unit in 30 minutes: 2/hour, about 450 hours to the limit.
	samples.seed("org_a", "api_calls", time.Now().Add(-30*time.Minute), 99)

	e.Evaluate(ctx, "org_a", "api_calls", 100, 1000)

	for _, a := range sink.alerts() {
		assert.NotEqual(t, alert.TypeSpike, a.AlertType())
		assert.NotEqual(t, alert.TypeProjection, a.AlertType())
	}
}
