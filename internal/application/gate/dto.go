package gate

import (
	"time"

	"metergate/internal/domain/rule"
)

// CheckOptions tunes one feature gating check.
type CheckOptions struct {
	// Amount is the units the caller intends to consume; zero means one.
	Amount int64
	// CheckConcurrent gates against the concurrency gauge instead of the
	// monthly counter.
	CheckConcurrent bool
	// NotifyOnLimit triggers asynchronous alert evaluation after the check.
	NotifyOnLimit bool
	// UserID and Attributes feed user_based and conditional rules.
	UserID     string
	Attributes map[string]string
	// Rules are request-supplied overrides evaluated after persisted rules.
	Rules []*rule.CustomRule
}

// Decision is the facade's gating verdict.
type Decision struct {
	Allowed      bool   `json:"allowed"`
	Reason       string `json:"reason,omitempty"`
	CurrentUsage int64  `json:"current_usage"`
	Limit        int64  `json:"limit"`
	// Remaining is max(0, limit-current); -1 when unlimited or unknown.
	Remaining   int64    `json:"remaining"`
	PlanName    string   `json:"plan_name,omitempty"`
	Degraded    bool     `json:"degraded,omitempty"`
	Cached      bool     `json:"cached,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ChangePlanOptions tunes a plan assignment change.
type ChangePlanOptions struct {
	// Immediate applies the change now; otherwise it takes effect at the
	// start of the next billing cycle.
	Immediate bool
	// ResetUsage zeroes the organization's monthly counters alongside an
	// immediate change.
	ResetUsage bool
	// NotifyUsers emails the organization's configured recipients.
	NotifyUsers bool
	InitiatedBy string
}

// StatsOptions tunes a usage stats query.
type StatsOptions struct {
	IncludeHistory bool
}

// MetricStats is the current standing of one metered metric.
type MetricStats struct {
	Metric     string  `json:"metric"`
	Used       int64   `json:"used"`
	Limit      int64   `json:"limit"`
	Percentage float64 `json:"percentage"`
	Remaining  int64   `json:"remaining"`
}

// PlanChangeEntry is one row of the plan-change history.
type PlanChangeEntry struct {
	FromSlug    string    `json:"from_slug,omitempty"`
	ToSlug      string    `json:"to_slug"`
	EffectiveAt time.Time `json:"effective_at"`
	Immediate   bool      `json:"immediate"`
	Applied     bool      `json:"applied"`
	InitiatedBy string    `json:"initiated_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UsageStats is the per-organization usage report.
type UsageStats struct {
	OrgSID      string            `json:"org_sid"`
	PlanSlug    string            `json:"plan_slug"`
	PlanVersion uint              `json:"plan_version"`
	Month       string            `json:"month"`
	NextResetAt time.Time         `json:"next_reset_at"`
	Metrics     []MetricStats     `json:"metrics"`
	History     []PlanChangeEntry `json:"history,omitempty"`
}

// CustomRuleInput carries the fields needed to create a custom rule.
type CustomRuleInput struct {
	Feature    string
	RuleType   rule.Type
	Effect     rule.Effect
	Conditions rule.Conditions
	Reason     string
	ExpiresAt  *time.Time
}
