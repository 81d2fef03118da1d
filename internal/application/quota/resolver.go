package quota

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"metergate/internal/domain/organization"
	"metergate/internal/domain/plan"
	"metergate/internal/domain/usage"
	"metergate/internal/shared/logger"
)

// Decision is the outcome of one limit check.
type Decision struct {
	Allowed      bool   `json:"allowed"`
	Reason       string `json:"reason,omitempty"`
	CurrentUsage int64  `json:"current_usage"`
	Limit        int64  `json:"limit"`
	// Remaining is max(0, limit-current); -1 when unlimited or unknown.
	Remaining int64 `json:"remaining"`
	// PlanName is the display name of the plan the limit came from.
	PlanName string `json:"plan_name,omitempty"`
	// Degraded marks decisions produced while the store or plan data was
	// unreachable. Degraded decisions allow and must not be cached.
	Degraded bool `json:"degraded,omitempty"`
}

const (
	ReasonNotOnPlan     = "feature not available on plan"
	ReasonLimitReached  = "plan limit reached"
	ReasonUnlimited     = "unlimited on plan"
	ReasonWithinLimit   = "within plan limit"
	ReasonStoreDegraded = "limit check degraded, allowing"
	ReasonUnmetered     = "not bound to an organization"
)

// unmetered is the verdict for callers outside any organization. They are
// never limited.
func unmetered() Decision {
	return Decision{
		Allowed:   true,
		Reason:    ReasonUnmetered,
		Limit:     plan.LimitUnlimited,
		Remaining: plan.LimitUnlimited,
	}
}

// LimitResolver answers "may this organization use this metric right now"
// from plan limits and live usage. Lookup failures degrade open: quota
// enforcement protects revenue, not safety, so an outage must not take
// tenant traffic down with it.
type LimitResolver struct {
	orgRepo      organization.Repository
	planRepo     plan.Repository
	usageRepo    usage.Repository
	gaugeRepo    usage.GaugeRepository
	freePlanSlug string
	logger       logger.Interface
}

func NewLimitResolver(
	orgRepo organization.Repository,
	planRepo plan.Repository,
	usageRepo usage.Repository,
	gaugeRepo usage.GaugeRepository,
	freePlanSlug string,
	log logger.Interface,
) *LimitResolver {
	if freePlanSlug == "" {
		freePlanSlug = plan.FreePlanSlug
	}
	return &LimitResolver{
		orgRepo:      orgRepo,
		planRepo:     planRepo,
		usageRepo:    usageRepo,
		gaugeRepo:    gaugeRepo,
		freePlanSlug: freePlanSlug,
		logger:       log,
	}
}

// ResolvePlan returns the organization's effective plan. Organizations
// without an assignment, or with a slug that no longer resolves, fall back
// to the free plan.
func (r *LimitResolver) ResolvePlan(ctx context.Context, orgSID string) (*plan.Plan, error) {
	slug := r.freePlanSlug

	org, err := r.orgRepo.GetBySID(ctx, orgSID)
	if err == nil && org.PlanSlug() != "" {
		slug = org.PlanSlug()
	} else if err != nil {
		r.logger.Warnw("organization lookup failed, using free plan",
			"org_sid", orgSID, "error", err)
	}

	p, err := r.planRepo.GetBySlug(ctx, slug)
	if err == nil {
		return p, nil
	}

	if slug != r.freePlanSlug && errors.Is(err, plan.ErrPlanNotFound) {
		r.logger.Warnw("assigned plan not found, falling back to free plan",
			"org_sid", orgSID, "plan_slug", slug)
		return r.planRepo.GetBySlug(ctx, r.freePlanSlug)
	}
	return nil, err
}

// GetPlanLimit returns the effective limit for (org, metric). A metric the
// plan does not configure is disabled, never unlimited.
func (r *LimitResolver) GetPlanLimit(ctx context.Context, orgSID, metric string) (int64, error) {
	p, err := r.ResolvePlan(ctx, orgSID)
	if err != nil {
		return 0, err
	}
	return p.GetLimit(metric), nil
}

// CanUse decides whether consuming amount more of metric stays within the
// monthly limit. amount <= 0 is treated as 1. An empty orgSID means the
// caller has no organization and is never metered.
func (r *LimitResolver) CanUse(ctx context.Context, orgSID, metric string, amount int64) Decision {
	if orgSID == "" {
		return unmetered()
	}
	if amount <= 0 {
		amount = 1
	}

	p, err := r.ResolvePlan(ctx, orgSID)
	if err != nil {
		r.logger.Errorw("plan resolution failed, degrading open",
			"org_sid", orgSID, "metric", metric, "error", err)
		return Decision{Allowed: true, Reason: ReasonStoreDegraded,
			Limit: plan.LimitUnlimited, Remaining: plan.LimitUnlimited, Degraded: true}
	}

	return r.decide(ctx, orgSID, metric, amount, p, r.usageRepo.GetUsage)
}

// CanUseConcurrent decides whether one more simultaneous use of metric
// stays within the concurrency limit. An empty orgSID is never metered.
func (r *LimitResolver) CanUseConcurrent(ctx context.Context, orgSID, metric string) Decision {
	if orgSID == "" {
		return unmetered()
	}

	p, err := r.ResolvePlan(ctx, orgSID)
	if err != nil {
		r.logger.Errorw("plan resolution failed, degrading open",
			"org_sid", orgSID, "metric", metric, "error", err)
		return Decision{Allowed: true, Reason: ReasonStoreDegraded,
			Limit: plan.LimitUnlimited, Remaining: plan.LimitUnlimited, Degraded: true}
	}

	return r.decide(ctx, orgSID, metric, 1, p, r.gaugeRepo.GetConcurrent)
}

func (r *LimitResolver) decide(ctx context.Context, orgSID, metric string, amount int64, p *plan.Plan,
	read func(context.Context, string, string) (int64, error)) Decision {

	limit := p.GetLimit(metric)

	switch limit {
	case plan.LimitDisabled:
		return Decision{Allowed: false, Reason: ReasonNotOnPlan, Limit: limit, PlanName: p.Name()}
	case plan.LimitUnlimited:
		current, err := read(ctx, orgSID, metric)
		if err != nil {
			// Usage is informational here; the verdict stands.
			r.logger.Warnw("usage read failed for unlimited metric",
				"org_sid", orgSID, "metric", metric, "error", err)
			current = 0
		}
		return Decision{Allowed: true, Reason: ReasonUnlimited, CurrentUsage: current,
			Limit: limit, Remaining: plan.LimitUnlimited, PlanName: p.Name()}
	}

	current, err := read(ctx, orgSID, metric)
	if err != nil {
		r.logger.Errorw("usage read failed, degrading open",
			"org_sid", orgSID, "metric", metric, "error", err)
		return Decision{Allowed: true, Reason: ReasonStoreDegraded,
			Limit: limit, Remaining: plan.LimitUnlimited, PlanName: p.Name(), Degraded: true}
	}

	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}
	if current+amount > limit {
		return Decision{Allowed: false, Reason: ReasonLimitReached, CurrentUsage: current,
			Limit: limit, Remaining: remaining, PlanName: p.Name()}
	}
	return Decision{Allowed: true, Reason: ReasonWithinLimit, CurrentUsage: current,
		Limit: limit, Remaining: remaining, PlanName: p.Name()}
}

// CheckMultiple evaluates several metrics concurrently. The plan is
// resolved once; per-metric usage reads fan out.
func (r *LimitResolver) CheckMultiple(ctx context.Context, orgSID string, metrics []string) map[string]Decision {
	out := make(map[string]Decision, len(metrics))
	if len(metrics) == 0 {
		return out
	}

	if orgSID == "" {
		for _, m := range metrics {
			out[m] = unmetered()
		}
		return out
	}

	p, err := r.ResolvePlan(ctx, orgSID)
	if err != nil {
		r.logger.Errorw("plan resolution failed, degrading open",
			"org_sid", orgSID, "error", err)
		for _, m := range metrics {
			out[m] = Decision{Allowed: true, Reason: ReasonStoreDegraded,
				Limit: plan.LimitUnlimited, Remaining: plan.LimitUnlimited, Degraded: true}
		}
		return out
	}

	type result struct {
		metric   string
		decision Decision
	}
	results := make([]result, len(metrics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, metric := range metrics {
		g.Go(func() error {
			d := r.decide(gctx, orgSID, metric, 1, p, r.usageRepo.GetUsage)
			results[i] = result{metric: metric, decision: d}
			return nil
		})
	}
	// Workers never return errors; failures degrade open per metric.
	_ = g.Wait()

	for _, res := range results {
		out[res.metric] = res.decision
	}
	return out
}
