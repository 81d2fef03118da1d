package alerting

import (
	"context"
	"sort"
	"time"

	"metergate/internal/domain/alert"
	"metergate/internal/domain/plan"
	"metergate/internal/infrastructure/cache"
	"metergate/internal/shared/logger"
)

// thresholdBandWidth is the width of each firing band: crossing threshold T
// fires while usage sits in [T, T+bandWidth). Keeping the band narrow stops
// a long-crossed low threshold from re-firing forever.
const thresholdBandWidth = 5

// DedupLocker suppresses repeated alerts for the same key within the
// configured window.
type DedupLocker interface {
	TryAcquireAlertLock(ctx context.Context, orgSID, feature string, threshold int) (bool, error)
	Window() time.Duration
}

// AlertSink receives materialized alerts for delivery.
type AlertSink interface {
	Dispatch(ctx context.Context, a *alert.Alert)
}

// EngineConfig tunes threshold and trend evaluation.
type EngineConfig struct {
	// Thresholds is the default ladder; per-org config overrides it.
	Thresholds []int
	// SpikeWindow is how far back growth is measured for spike detection.
	SpikeWindow time.Duration
	// SpikeGrowthPercent fires a spike alert when usage grows faster than
	// this per window.
	SpikeGrowthPercent float64
	// ProjectionHorizon fires a projection alert when the limit would be
	// reached within this duration at the observed rate.
	ProjectionHorizon time.Duration
}

// DefaultEngineConfig returns the standard evaluation settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Thresholds:         []int{80, 90, 100},
		SpikeWindow:        time.Hour,
		SpikeGrowthPercent: 50,
		ProjectionHorizon:  24 * time.Hour,
	}
}

// Engine turns usage observations into alerts: threshold crossings, spikes,
// and projected exhaustion. Evaluation is best-effort and never blocks or
// fails the usage write that triggered it.
type Engine struct {
	cfg        EngineConfig
	alertRepo  alert.Repository
	configRepo alert.ConfigRepository
	dedup      DedupLocker
	samples    cache.UsageSampleCache
	sink       AlertSink
	logger     logger.Interface
}

func NewEngine(
	cfg EngineConfig,
	alertRepo alert.Repository,
	configRepo alert.ConfigRepository,
	dedup DedupLocker,
	samples cache.UsageSampleCache,
	sink AlertSink,
	log logger.Interface,
) *Engine {
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = DefaultEngineConfig().Thresholds
	}
	if cfg.SpikeWindow <= 0 {
		cfg.SpikeWindow = time.Hour
	}
	if cfg.SpikeGrowthPercent <= 0 {
		cfg.SpikeGrowthPercent = 50
	}
	if cfg.ProjectionHorizon <= 0 {
		cfg.ProjectionHorizon = 24 * time.Hour
	}
	sort.Ints(cfg.Thresholds)

	return &Engine{
		cfg:        cfg,
		alertRepo:  alertRepo,
		configRepo: configRepo,
		dedup:      dedup,
		samples:    samples,
		sink:       sink,
		logger:     log,
	}
}

// Evaluate inspects one (org, feature) observation against its limit and
// fires whatever alerts apply. Called after usage increments.
func (e *Engine) Evaluate(ctx context.Context, orgSID, feature string, current, limit int64) {
	if limit == plan.LimitUnlimited || limit <= 0 {
		// Nothing to alert against; still record the sample for trends.
		e.recordSample(ctx, orgSID, feature, current)
		return
	}

	e.recordSample(ctx, orgSID, feature, current)

	percentage := float64(current) / float64(limit) * 100

	e.evaluateThresholds(ctx, orgSID, feature, percentage, current, limit)
	e.evaluateTrends(ctx, orgSID, feature, current, limit)
}

func (e *Engine) recordSample(ctx context.Context, orgSID, feature string, current int64) {
	if err := e.samples.RecordSample(ctx, orgSID, feature, current); err != nil {
		e.logger.Warnw("failed to record usage sample",
			"org_sid", orgSID, "feature", feature, "error", err)
	}
}

func (e *Engine) evaluateThresholds(ctx context.Context, orgSID, feature string, percentage float64, current, limit int64) {
	thresholds := e.thresholdsFor(ctx, orgSID)

	for _, threshold := range thresholds {
		t := float64(threshold)
		inBand := percentage >= t && percentage < t+thresholdBandWidth
		// The top threshold has no band above it; anything at or past it
		// fires.
		if threshold >= 100 {
			inBand = percentage >= t
		}
		if !inBand {
			continue
		}

		if !e.acquireDedup(ctx, orgSID, feature, threshold) {
			continue
		}

		a, err := alert.NewThresholdAlert(orgSID, feature, threshold, percentage, current, limit)
		if err != nil {
			e.logger.Errorw("failed to build threshold alert",
				"org_sid", orgSID, "feature", feature, "error", err)
			continue
		}
		e.persistAndDispatch(ctx, a)
	}
}

// thresholdsFor returns the organization's configured ladder, or the
// engine's default.
func (e *Engine) thresholdsFor(ctx context.Context, orgSID string) []int {
	cfg, err := e.configRepo.Get(ctx, orgSID)
	if err != nil || cfg == nil {
		return e.cfg.Thresholds
	}
	if len(cfg.Thresholds) == 0 {
		return e.cfg.Thresholds
	}
	return cfg.Thresholds
}

// acquireDedup consults the shared lock first and falls back to the alert
// table when the lock store is unreachable, so an outage degrades to
// slightly slower dedup rather than alert storms.
func (e *Engine) acquireDedup(ctx context.Context, orgSID, feature string, threshold int) bool {
	acquired, err := e.dedup.TryAcquireAlertLock(ctx, orgSID, feature, threshold)
	if err == nil {
		return acquired
	}

	e.logger.Warnw("dedup lock store unavailable, falling back to alert history",
		"org_sid", orgSID, "feature", feature, "error", err)

	since := time.Now().Add(-e.dedup.Window())
	exists, herr := e.alertRepo.ExistsSince(ctx, orgSID, feature, threshold, since)
	if herr != nil {
		e.logger.Errorw("alert history fallback failed, suppressing alert",
			"org_sid", orgSID, "feature", feature, "error", herr)
		return false
	}
	return !exists
}

func (e *Engine) evaluateTrends(ctx context.Context, orgSID, feature string, current, limit int64) {
	cutoff := time.Now().Add(-e.cfg.SpikeWindow)
	samples, err := e.samples.GetSince(ctx, orgSID, feature, cutoff)
	if err != nil {
		e.logger.Warnw("failed to read usage samples",
			"org_sid", orgSID, "feature", feature, "error", err)
		return
	}
	if len(samples) < 2 {
		return
	}

	oldest := samples[0]
	newest := samples[len(samples)-1]
	elapsed := newest.At.Sub(oldest.At)
	if elapsed <= 0 || newest.Count <= oldest.Count {
		return
	}

	// Trend alerts are exempt from the threshold dedup window; the sample
	// history they are computed from is the only rate limit.

	// Spike: growth over the window relative to the window's starting
	// point.
	if oldest.Count > 0 {
		growth := float64(newest.Count-oldest.Count) / float64(oldest.Count) * 100
		if growth > e.cfg.SpikeGrowthPercent {
			a, aerr := alert.NewSpikeAlert(orgSID, feature, growth)
			if aerr == nil {
				e.persistAndDispatch(ctx, a)
			}
		}
	}

	// Projection: at the observed rate, when does usage hit the limit?
	// Samples taken almost simultaneously produce meaningless rates.
	if elapsed < 5*time.Minute {
		return
	}
	ratePerHour := float64(newest.Count-oldest.Count) / elapsed.Hours()
	if ratePerHour <= 0 {
		return
	}
	remaining := float64(limit - current)
	if remaining <= 0 {
		return
	}
	hoursToLimit := remaining / ratePerHour
	if hoursToLimit < e.cfg.ProjectionHorizon.Hours() {
		a, aerr := alert.NewProjectionAlert(orgSID, feature, hoursToLimit)
		if aerr == nil {
			e.persistAndDispatch(ctx, a)
		}
	}
}

func (e *Engine) persistAndDispatch(ctx context.Context, a *alert.Alert) {
	if err := e.alertRepo.Create(ctx, a); err != nil {
		e.logger.Errorw("failed to persist alert",
			"org_sid", a.OrgSID(), "feature", a.Feature(), "error", err)
		// Deliver anyway; a lost row is better than a silent limit breach.
	}
	e.sink.Dispatch(ctx, a)
	e.logger.Infow("alert fired",
		"org_sid", a.OrgSID(), "feature", a.Feature(),
		"type", a.AlertType(), "severity", a.Severity(), "threshold", a.Threshold())
}
