package gate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"metergate/internal/application/quota"
	"metergate/internal/domain/alert"
	"metergate/internal/domain/organization"
	"metergate/internal/domain/plan"
	"metergate/internal/domain/rule"
	"metergate/internal/domain/usage"
	"metergate/internal/infrastructure/cache"
	"metergate/internal/shared/biztime"
	apperrors "metergate/internal/shared/errors"
	"metergate/internal/shared/goroutine"
	"metergate/internal/shared/logger"
)

// asyncTimeout bounds the background work spawned per request (alert
// evaluation, plan change notices).
const asyncTimeout = 15 * time.Second

// Limiter answers limit checks; implemented by quota.LimitResolver.
type Limiter interface {
	ResolvePlan(ctx context.Context, orgSID string) (*plan.Plan, error)
	GetPlanLimit(ctx context.Context, orgSID, metric string) (int64, error)
	CanUse(ctx context.Context, orgSID, metric string, amount int64) quota.Decision
	CanUseConcurrent(ctx context.Context, orgSID, metric string) quota.Decision
	CheckMultiple(ctx context.Context, orgSID string, metrics []string) map[string]quota.Decision
}

// UsageEvaluator receives usage observations for alerting; implemented by
// alerting.Engine.
type UsageEvaluator interface {
	Evaluate(ctx context.Context, orgSID, feature string, current, limit int64)
}

// AlertLockClearer drops an organization's alert dedup locks, so a plan
// change re-arms its alerts.
type AlertLockClearer interface {
	ClearOrg(ctx context.Context, orgSID string) error
}

// PlanChangeNotifier informs an organization's recipients of a plan change.
type PlanChangeNotifier interface {
	SendPlanChangeNotice(ctx context.Context, cfg *alert.NotificationConfig, fromSlug, toSlug string, effectiveAt time.Time) error
}

// Service is the single entry point for feature gating, usage accounting,
// and plan administration. Handlers and jobs talk to it, never to the
// repositories directly.
type Service struct {
	limiter    Limiter
	orgRepo    organization.Repository
	planRepo   plan.Repository
	usageRepo  usage.Repository
	gaugeRepo  usage.GaugeRepository
	ruleRepo   rule.Repository
	alertRepo  alert.Repository
	configRepo alert.ConfigRepository
	feedRepo   alert.FeedRepository
	decisions  *cache.DecisionCache
	alertLocks AlertLockClearer
	evaluator  UsageEvaluator
	notifier   PlanChangeNotifier
	logger     logger.Interface
}

type ServiceDeps struct {
	Limiter    Limiter
	OrgRepo    organization.Repository
	PlanRepo   plan.Repository
	UsageRepo  usage.Repository
	GaugeRepo  usage.GaugeRepository
	RuleRepo   rule.Repository
	AlertRepo  alert.Repository
	ConfigRepo alert.ConfigRepository
	FeedRepo   alert.FeedRepository
	Decisions  *cache.DecisionCache
	AlertLocks AlertLockClearer
	Evaluator  UsageEvaluator
	// Notifier may be nil when no email transport is configured.
	Notifier PlanChangeNotifier
	Logger   logger.Interface
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		limiter:    deps.Limiter,
		orgRepo:    deps.OrgRepo,
		planRepo:   deps.PlanRepo,
		usageRepo:  deps.UsageRepo,
		gaugeRepo:  deps.GaugeRepo,
		ruleRepo:   deps.RuleRepo,
		alertRepo:  deps.AlertRepo,
		configRepo: deps.ConfigRepo,
		feedRepo:   deps.FeedRepo,
		decisions:  deps.Decisions,
		alertLocks: deps.AlertLocks,
		evaluator:  deps.Evaluator,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// CanUseFeature decides whether the organization may use the feature right
// now. Order: decision cache, custom rules, limit check. Only plain checks
// (no concurrency, no request context) are served from or written to the
// cache, since cached verdicts cannot depend on the requesting user.
// Callers without an organization are never metered.
func (s *Service) CanUseFeature(ctx context.Context, orgSID, feature string, opts CheckOptions) (Decision, error) {
	if feature == "" {
		return Decision{}, apperrors.NewValidationError("feature is required")
	}
	if orgSID == "" {
		return Decision{
			Allowed:   true,
			Reason:    quota.ReasonUnmetered,
			Limit:     plan.LimitUnlimited,
			Remaining: plan.LimitUnlimited,
		}, nil
	}

	cacheable := !opts.CheckConcurrent && opts.UserID == "" &&
		len(opts.Attributes) == 0 && len(opts.Rules) == 0

	if cacheable {
		if cached, ok := s.decisions.Get(orgSID, feature); ok {
			return Decision{
				Allowed:      cached.Allowed,
				Reason:       cached.Reason,
				CurrentUsage: cached.CurrentUsage,
				Limit:        cached.Limit,
				Remaining:    cached.Remaining,
				PlanName:     cached.PlanName,
				Cached:       true,
			}, nil
		}
	}

	if d, matched := s.evaluateRules(ctx, orgSID, feature, opts); matched {
		return d, nil
	}

	var qd quota.Decision
	if opts.CheckConcurrent {
		qd = s.limiter.CanUseConcurrent(ctx, orgSID, feature)
	} else {
		qd = s.limiter.CanUse(ctx, orgSID, feature, opts.Amount)
	}

	out := Decision{
		Allowed:      qd.Allowed,
		Reason:       qd.Reason,
		CurrentUsage: qd.CurrentUsage,
		Limit:        qd.Limit,
		Remaining:    qd.Remaining,
		PlanName:     qd.PlanName,
		Degraded:     qd.Degraded,
	}

	// Degraded verdicts are provisional and must not outlive the outage.
	if cacheable && !qd.Degraded {
		s.decisions.Set(orgSID, feature, cache.Decision{
			Allowed:      qd.Allowed,
			Reason:       qd.Reason,
			CurrentUsage: qd.CurrentUsage,
			Limit:        qd.Limit,
			Remaining:    qd.Remaining,
			PlanName:     qd.PlanName,
		})
	}

	if opts.NotifyOnLimit && !opts.CheckConcurrent && !qd.Degraded {
		s.evaluateAsync(orgSID, feature, qd.CurrentUsage, qd.Limit)
	}

	if !out.Allowed {
		out.Suggestions = s.suggestions(ctx, orgSID, feature, qd)
	}
	return out, nil
}

// evaluateRules runs persisted rules, then request-supplied ones, in order.
// The first match decides.
func (s *Service) evaluateRules(ctx context.Context, orgSID, feature string, opts CheckOptions) (Decision, bool) {
	persisted, err := s.ruleRepo.ListActive(ctx, orgSID, feature)
	if err != nil {
		// Rules are overrides; losing them degrades to plain limit checks.
		s.logger.Warnw("failed to load custom rules, skipping",
			"org_sid", orgSID, "feature", feature, "error", err)
	}

	ec := rule.EvalContext{
		Feature:    feature,
		UserID:     opts.UserID,
		Now:        biztime.NowUTC(),
		Attributes: opts.Attributes,
	}

	for _, r := range append(persisted, opts.Rules...) {
		res := r.Evaluate(ec)
		if !res.Matched {
			continue
		}
		s.logger.Debugw("custom rule matched",
			"org_sid", orgSID, "feature", feature, "rule_sid", r.SID(), "allow", res.Allow)
		return Decision{Allowed: res.Allow, Reason: res.Reason}, true
	}
	return Decision{}, false
}

func (s *Service) evaluateAsync(orgSID, feature string, current, limit int64) {
	goroutine.SafeGo(s.logger, "usage-alert-evaluate", func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		s.evaluator.Evaluate(ctx, orgSID, feature, current, limit)
	})
}

// suggestions builds denial hints: when the next reset lands and which
// public plan would lift the limit. Best effort; lookup failures just mean
// fewer hints.
func (s *Service) suggestions(ctx context.Context, orgSID, feature string, qd quota.Decision) []string {
	var out []string

	if qd.Reason == quota.ReasonLimitReached {
		reset := biztime.NextMonthStart(biztime.NowUTC())
		out = append(out, fmt.Sprintf("usage resets on %s", reset.Format("2006-01-02")))
	}

	current, err := s.limiter.ResolvePlan(ctx, orgSID)
	if err != nil {
		return out
	}
	plans, err := s.planRepo.ListPublic(ctx)
	if err != nil {
		return out
	}

	for _, p := range plans {
		if p.Slug() == current.Slug() {
			continue
		}
		limit := p.GetLimit(feature)
		if limit == plan.LimitUnlimited || (limit != plan.LimitDisabled && limit > qd.Limit) {
			out = append(out, fmt.Sprintf("upgrade to the %s plan for a higher %s limit", p.Name(), feature))
			break
		}
	}
	return out
}

// CheckFeatures evaluates several metrics in one call. An empty orgSID is
// unmetered, which the limiter resolves per metric.
func (s *Service) CheckFeatures(ctx context.Context, orgSID string, features []string) (map[string]Decision, error) {
	if len(features) == 0 {
		return nil, apperrors.NewValidationError("at least one feature is required")
	}

	raw := s.limiter.CheckMultiple(ctx, orgSID, features)
	out := make(map[string]Decision, len(raw))
	for feature, qd := range raw {
		out[feature] = Decision{
			Allowed:      qd.Allowed,
			Reason:       qd.Reason,
			CurrentUsage: qd.CurrentUsage,
			Limit:        qd.Limit,
			Remaining:    qd.Remaining,
			PlanName:     qd.PlanName,
			Degraded:     qd.Degraded,
		}
	}
	return out, nil
}

// RecordUsage adds amount to the metric's monthly counter. The decision
// cache entry is dropped before returning so the next check sees the new
// count; alert evaluation runs in the background.
func (s *Service) RecordUsage(ctx context.Context, orgSID, metric string, amount int64) error {
	if orgSID == "" {
		return apperrors.NewValidationError("organization SID is required")
	}
	if metric == "" {
		return apperrors.NewValidationError("metric is required")
	}
	if amount <= 0 {
		return apperrors.NewValidationError("amount must be positive")
	}

	if err := s.usageRepo.IncrementUsage(ctx, orgSID, metric, amount); err != nil {
		return apperrors.NewTransientStoreError("failed to record usage").WithCause(err)
	}
	s.decisions.Invalidate(orgSID, metric)

	goroutine.SafeGo(s.logger, "usage-alert-evaluate", func() {
		bctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()

		limit, err := s.limiter.GetPlanLimit(bctx, orgSID, metric)
		if err != nil {
			return
		}
		current, err := s.usageRepo.GetUsage(bctx, orgSID, metric)
		if err != nil {
			return
		}
		s.evaluator.Evaluate(bctx, orgSID, metric, current, limit)
	})
	return nil
}

// AcquireConcurrent bumps the concurrency gauge and returns the new value.
// Callers pair it with ReleaseUsage when the unit of work finishes.
func (s *Service) AcquireConcurrent(ctx context.Context, orgSID, metric string) (int64, error) {
	if orgSID == "" || metric == "" {
		return 0, apperrors.NewValidationError("organization SID and metric are required")
	}

	value, err := s.gaugeRepo.IncrementConcurrent(ctx, orgSID, metric)
	if err != nil {
		return 0, apperrors.NewTransientStoreError("failed to acquire concurrent slot").WithCause(err)
	}
	s.decisions.Invalidate(orgSID, metric)
	return value, nil
}

// ReleaseUsage decrements the concurrency gauge, clamped at zero.
func (s *Service) ReleaseUsage(ctx context.Context, orgSID, metric string) error {
	if orgSID == "" || metric == "" {
		return apperrors.NewValidationError("organization SID and metric are required")
	}

	if _, err := s.gaugeRepo.DecrementConcurrent(ctx, orgSID, metric); err != nil {
		return apperrors.NewTransientStoreError("failed to release concurrent slot").WithCause(err)
	}
	s.decisions.Invalidate(orgSID, metric)
	return nil
}

// ChangePlan moves the organization to another plan, immediately or at the
// start of the next billing cycle. The history entry is written either way.
func (s *Service) ChangePlan(ctx context.Context, orgSID, toSlug string, opts ChangePlanOptions) (*organization.PlanChange, error) {
	org, err := s.orgRepo.GetBySID(ctx, orgSID)
	if err != nil {
		return nil, apperrors.NewNotFoundError("organization not found").WithCause(err)
	}
	if _, err := s.planRepo.GetBySlug(ctx, toSlug); err != nil {
		if errors.Is(err, plan.ErrPlanNotFound) {
			return nil, apperrors.NewValidationError("unknown plan slug", toSlug)
		}
		return nil, apperrors.NewTransientStoreError("failed to resolve target plan").WithCause(err)
	}

	now := biztime.NowUTC()
	effectiveAt := now
	if !opts.Immediate {
		effectiveAt = biztime.NextMonthStart(now)
	}

	change, err := organization.NewPlanChange(orgSID, org.PlanSlug(), toSlug, effectiveAt, opts.Immediate, opts.InitiatedBy)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if opts.Immediate {
		if err := s.orgRepo.UpdatePlanSlug(ctx, orgSID, toSlug, change); err != nil {
			return nil, apperrors.NewTransientStoreError("failed to change plan").WithCause(err)
		}
		if opts.ResetUsage {
			if err := s.usageRepo.ResetMonthlyUsage(ctx, orgSID); err != nil {
				s.logger.Warnw("failed to reset usage after plan change",
					"org_sid", orgSID, "error", err)
			}
		}
		s.invalidateOrg(ctx, orgSID)
	} else {
		if err := s.orgRepo.RecordPlanChange(ctx, change); err != nil {
			return nil, apperrors.NewTransientStoreError("failed to schedule plan change").WithCause(err)
		}
	}

	s.logger.Infow("plan change recorded",
		"org_sid", orgSID, "from", org.PlanSlug(), "to", toSlug,
		"immediate", opts.Immediate, "effective_at", effectiveAt)

	if opts.NotifyUsers && s.notifier != nil {
		fromSlug := org.PlanSlug()
		goroutine.SafeGo(s.logger, "plan-change-notice", func() {
			bctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
			defer cancel()

			cfg, err := s.configRepo.Get(bctx, orgSID)
			if err != nil {
				return
			}
			if err := s.notifier.SendPlanChangeNotice(bctx, cfg, fromSlug, toSlug, effectiveAt); err != nil {
				s.logger.Warnw("failed to send plan change notice",
					"org_sid", orgSID, "error", err)
			}
		})
	}
	return change, nil
}

// invalidateOrg drops every cached verdict and alert lock for the
// organization. Called after plan changes, where both may now be wrong.
func (s *Service) invalidateOrg(ctx context.Context, orgSID string) {
	s.decisions.InvalidateOrg(orgSID)
	if s.alertLocks != nil {
		if err := s.alertLocks.ClearOrg(ctx, orgSID); err != nil {
			s.logger.Warnw("failed to clear alert locks",
				"org_sid", orgSID, "error", err)
		}
	}
}

// ApplyDuePlanChanges switches assignments for scheduled changes whose
// effective date has passed. Runs from the scheduler; returns how many were
// applied.
func (s *Service) ApplyDuePlanChanges(ctx context.Context) (int, error) {
	due, err := s.orgRepo.ListDuePlanChanges(ctx, biztime.NowUTC())
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, change := range due {
		if err := s.orgRepo.UpdatePlanSlug(ctx, change.OrgSID(), change.ToSlug(), nil); err != nil {
			s.logger.Errorw("failed to apply scheduled plan change",
				"org_sid", change.OrgSID(), "to", change.ToSlug(), "error", err)
			continue
		}
		if err := s.orgRepo.MarkPlanChangeApplied(ctx, change.ID()); err != nil {
			s.logger.Errorw("failed to mark plan change applied",
				"change_id", change.ID(), "error", err)
			continue
		}
		s.invalidateOrg(ctx, change.OrgSID())
		applied++
	}
	return applied, nil
}

// GetUsageStats reports the organization's standing against its plan's
// metric set. Plain reports are served from the decision cache's stats slot;
// history requests always hit the store.
func (s *Service) GetUsageStats(ctx context.Context, orgSID string, opts StatsOptions) (*UsageStats, error) {
	if orgSID == "" {
		return nil, apperrors.NewValidationError("organization SID is required")
	}

	if !opts.IncludeHistory {
		if v, ok := s.decisions.GetStats(orgSID); ok {
			if cached, ok := v.(*UsageStats); ok {
				return cached, nil
			}
		}
	}

	p, err := s.limiter.ResolvePlan(ctx, orgSID)
	if err != nil {
		return nil, apperrors.NewTransientStoreError("failed to resolve plan").WithCause(err)
	}

	counters := map[string]int64{}
	record, err := s.usageRepo.GetRecord(ctx, orgSID)
	if err != nil {
		return nil, apperrors.NewTransientStoreError("failed to read usage").WithCause(err)
	}
	if record != nil {
		counters = record.Counters()
	}

	now := biztime.NowUTC()
	stats := &UsageStats{
		OrgSID:      orgSID,
		PlanSlug:    p.Slug(),
		PlanVersion: p.Version(),
		Month:       biztime.MonthKey(now),
		NextResetAt: biztime.NextMonthStart(now),
	}

	limits := p.Limits()
	metrics := make([]string, 0, len(limits))
	for metric := range limits {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	for _, metric := range metrics {
		limit := limits[metric]
		used := counters[metric]

		m := MetricStats{Metric: metric, Used: used, Limit: limit}
		if limit > 0 {
			m.Percentage = float64(used) / float64(limit) * 100
			m.Remaining = limit - used
			if m.Remaining < 0 {
				m.Remaining = 0
			}
		}
		stats.Metrics = append(stats.Metrics, m)
	}

	if opts.IncludeHistory {
		changes, err := s.orgRepo.ListPlanChanges(ctx, orgSID)
		if err != nil {
			s.logger.Warnw("failed to load plan change history",
				"org_sid", orgSID, "error", err)
		}
		for _, c := range changes {
			stats.History = append(stats.History, PlanChangeEntry{
				FromSlug:    c.FromSlug(),
				ToSlug:      c.ToSlug(),
				EffectiveAt: c.EffectiveAt(),
				Immediate:   c.Immediate(),
				Applied:     c.Applied(),
				InitiatedBy: c.InitiatedBy(),
				CreatedAt:   c.CreatedAt(),
			})
		}
		return stats, nil
	}

	s.decisions.SetStats(orgSID, stats)
	return stats, nil
}

// AddCustomRule persists a gating override for the organization.
func (s *Service) AddCustomRule(ctx context.Context, orgSID string, input CustomRuleInput) (*rule.CustomRule, error) {
	r, err := rule.NewCustomRule(orgSID, input.Feature, input.RuleType, input.Effect,
		input.Conditions, input.Reason, input.ExpiresAt)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.ruleRepo.Create(ctx, r); err != nil {
		return nil, apperrors.NewTransientStoreError("failed to create rule").WithCause(err)
	}
	s.decisions.Invalidate(orgSID, input.Feature)
	return r, nil
}

// ListCustomRules returns every rule belonging to the organization.
func (s *Service) ListCustomRules(ctx context.Context, orgSID string) ([]*rule.CustomRule, error) {
	rules, err := s.ruleRepo.ListByOrg(ctx, orgSID)
	if err != nil {
		return nil, apperrors.NewTransientStoreError("failed to list rules").WithCause(err)
	}
	return rules, nil
}

// RemoveCustomRule deletes a rule after checking it belongs to the
// organization.
func (s *Service) RemoveCustomRule(ctx context.Context, orgSID, ruleSID string) error {
	r, err := s.ruleRepo.GetBySID(ctx, ruleSID)
	if err != nil {
		return apperrors.NewNotFoundError("rule not found").WithCause(err)
	}
	if r.OrgSID() != orgSID {
		return apperrors.NewForbiddenError("rule belongs to another organization")
	}

	if err := s.ruleRepo.Delete(ctx, ruleSID); err != nil {
		return apperrors.NewTransientStoreError("failed to delete rule").WithCause(err)
	}
	s.decisions.Invalidate(orgSID, r.Feature())
	return nil
}

// UpdatePlanLimits replaces a plan's limit map, bumping its version. Every
// cached verdict is dropped: any organization on the plan may now gate
// differently.
func (s *Service) UpdatePlanLimits(ctx context.Context, slug string, limits map[string]int64) (*plan.Plan, error) {
	p, err := s.planRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, plan.ErrPlanNotFound) {
			return nil, apperrors.NewNotFoundError("plan not found", slug)
		}
		return nil, apperrors.NewTransientStoreError("failed to load plan").WithCause(err)
	}

	if err := p.UpdateLimits(limits); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := s.planRepo.Update(ctx, p); err != nil {
		return nil, apperrors.NewTransientStoreError("failed to update plan").WithCause(err)
	}

	s.decisions.Clear()
	s.logger.Infow("plan limits updated", "slug", slug, "version", p.Version())
	return p, nil
}

// CreatePlan adds a plan to the catalog.
func (s *Service) CreatePlan(ctx context.Context, slug, name string, limits map[string]int64) (*plan.Plan, error) {
	p, err := plan.NewPlan(slug, name, limits)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := s.planRepo.Create(ctx, p); err != nil {
		return nil, apperrors.NewTransientStoreError("failed to create plan").WithCause(err)
	}
	return p, nil
}

// ListPlans returns the full plan catalog.
func (s *Service) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	plans, err := s.planRepo.List(ctx)
	if err != nil {
		return nil, apperrors.NewTransientStoreError("failed to list plans").WithCause(err)
	}
	return plans, nil
}

// CreateOrganization registers a new tenant. An empty planSlug leaves the
// organization on the free fallback.
func (s *Service) CreateOrganization(ctx context.Context, name, planSlug string) (*organization.Organization, error) {
	if planSlug != "" {
		if _, err := s.planRepo.GetBySlug(ctx, planSlug); err != nil {
			if errors.Is(err, plan.ErrPlanNotFound) {
				return nil, apperrors.NewValidationError("unknown plan slug", planSlug)
			}
			return nil, apperrors.NewTransientStoreError("failed to resolve plan").WithCause(err)
		}
	}

	org, err := organization.NewOrganization(name, planSlug)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, apperrors.NewTransientStoreError("failed to create organization").WithCause(err)
	}
	return org, nil
}

// ResetMonthlyUsage zeroes the organization's counters. Administrative.
func (s *Service) ResetMonthlyUsage(ctx context.Context, orgSID string) error {
	if err := s.usageRepo.ResetMonthlyUsage(ctx, orgSID); err != nil {
		return apperrors.NewTransientStoreError("failed to reset usage").WithCause(err)
	}
	s.decisions.InvalidateOrg(orgSID)
	return nil
}

// ResetConcurrentGauge zeroes a stuck gauge. Administrative crash recovery.
func (s *Service) ResetConcurrentGauge(ctx context.Context, orgSID, metric string) error {
	if err := s.gaugeRepo.ResetConcurrent(ctx, orgSID, metric); err != nil {
		return apperrors.NewTransientStoreError("failed to reset gauge").WithCause(err)
	}
	s.decisions.Invalidate(orgSID, metric)
	return nil
}

// ListAlerts returns the organization's most recent alerts.
func (s *Service) ListAlerts(ctx context.Context, orgSID string, limit int) ([]*alert.Alert, error) {
	alerts, err := s.alertRepo.ListByOrg(ctx, orgSID, limit)
	if err != nil {
		return nil, apperrors.NewTransientStoreError("failed to list alerts").WithCause(err)
	}
	return alerts, nil
}

// AcknowledgeAlert marks one alert as seen.
func (s *Service) AcknowledgeAlert(ctx context.Context, alertSID string) error {
	if err := s.alertRepo.Acknowledge(ctx, alertSID); err != nil {
		return apperrors.NewNotFoundError("alert not found").WithCause(err)
	}
	return nil
}

// GetNotificationConfig returns the organization's alerting settings,
// defaults when never configured.
func (s *Service) GetNotificationConfig(ctx context.Context, orgSID string) (*alert.NotificationConfig, error) {
	cfg, err := s.configRepo.Get(ctx, orgSID)
	if err != nil {
		return nil, apperrors.NewTransientStoreError("failed to load notification config").WithCause(err)
	}
	return cfg, nil
}

// UpdateNotificationConfig validates and stores alerting settings.
func (s *Service) UpdateNotificationConfig(ctx context.Context, cfg *alert.NotificationConfig) error {
	if err := cfg.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if err := s.configRepo.Upsert(ctx, cfg); err != nil {
		return apperrors.NewTransientStoreError("failed to save notification config").WithCause(err)
	}
	return nil
}

// ListFeedItems returns the organization's in-product feed.
func (s *Service) ListFeedItems(ctx context.Context, orgSID string, limit int) ([]*alert.FeedItem, error) {
	items, err := s.feedRepo.ListByOrg(ctx, orgSID, limit)
	if err != nil {
		return nil, apperrors.NewTransientStoreError("failed to list feed items").WithCause(err)
	}
	return items, nil
}

// MarkFeedItemRead flips one feed item's read flag.
func (s *Service) MarkFeedItemRead(ctx context.Context, orgSID string, itemID uint) error {
	if err := s.feedRepo.MarkRead(ctx, orgSID, itemID); err != nil {
		return apperrors.NewNotFoundError("feed item not found").WithCause(err)
	}
	return nil
}
