package dto

import (
	"time"

	"metergate/internal/domain/alert"
	"metergate/internal/domain/organization"
	"metergate/internal/domain/plan"
	"metergate/internal/domain/rule"
)

// CreatePlanRequest adds a plan to the catalog.
type CreatePlanRequest struct {
	Slug   string           `json:"slug" binding:"required"`
	Name   string           `json:"name" binding:"required"`
	Limits map[string]int64 `json:"limits"`
}

// UpdateLimitsRequest replaces a plan's limit map.
type UpdateLimitsRequest struct {
	Limits map[string]int64 `json:"limits" binding:"required"`
}

// CreateOrganizationRequest registers a tenant.
type CreateOrganizationRequest struct {
	Name     string `json:"name" binding:"required"`
	PlanSlug string `json:"plan_slug"`
}

// ChangePlanRequest moves an organization to another plan.
type ChangePlanRequest struct {
	PlanSlug    string `json:"plan_slug" binding:"required"`
	Immediate   bool   `json:"immediate"`
	ResetUsage  bool   `json:"reset_usage"`
	NotifyUsers bool   `json:"notify_users"`
	InitiatedBy string `json:"initiated_by"`
}

// ResetGaugeRequest zeroes a stuck concurrency gauge.
type ResetGaugeRequest struct {
	Metric string `json:"metric" binding:"required"`
}

// CreateRuleRequest adds a custom gating rule.
type CreateRuleRequest struct {
	Feature    string          `json:"feature" binding:"required"`
	RuleType   string          `json:"rule_type" binding:"required"`
	Effect     string          `json:"effect" binding:"required"`
	Conditions rule.Conditions `json:"conditions"`
	Reason     string          `json:"reason"`
	ExpiresAt  *time.Time      `json:"expires_at"`
}

// NotificationConfigRequest replaces an organization's alerting settings.
type NotificationConfigRequest struct {
	Enabled        bool     `json:"enabled"`
	Channels       []string `json:"channels"`
	Thresholds     []int    `json:"thresholds"`
	Recipients     []string `json:"recipients"`
	WebhookURL     string   `json:"webhook_url"`
	ChatWebhookURL string   `json:"chat_webhook_url"`
}

// ToConfig builds the domain config for the organization.
func (r *NotificationConfigRequest) ToConfig(orgSID string) *alert.NotificationConfig {
	channels := make([]alert.ChannelType, 0, len(r.Channels))
	for _, ch := range r.Channels {
		channels = append(channels, alert.ChannelType(ch))
	}
	return &alert.NotificationConfig{
		OrgSID:         orgSID,
		Enabled:        r.Enabled,
		Channels:       channels,
		Thresholds:     r.Thresholds,
		Recipients:     r.Recipients,
		WebhookURL:     r.WebhookURL,
		ChatWebhookURL: r.ChatWebhookURL,
	}
}

// PlanResponse is the wire form of a plan.
type PlanResponse struct {
	Slug      string           `json:"slug"`
	Name      string           `json:"name"`
	Version   uint             `json:"version"`
	Limits    map[string]int64 `json:"limits"`
	SortOrder int              `json:"sort_order"`
	IsPublic  bool             `json:"is_public"`
	CreatedAt time.Time        `json:"created_at"`
}

func PlanToResponse(p *plan.Plan) PlanResponse {
	return PlanResponse{
		Slug:      p.Slug(),
		Name:      p.Name(),
		Version:   p.Version(),
		Limits:    p.Limits(),
		SortOrder: p.SortOrder(),
		IsPublic:  p.IsPublic(),
		CreatedAt: p.CreatedAt(),
	}
}

func PlansToResponse(plans []*plan.Plan) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanToResponse(p))
	}
	return out
}

// OrganizationResponse is the wire form of an organization.
type OrganizationResponse struct {
	SID       string    `json:"sid"`
	Name      string    `json:"name"`
	PlanSlug  string    `json:"plan_slug"`
	CreatedAt time.Time `json:"created_at"`
}

func OrganizationToResponse(o *organization.Organization) OrganizationResponse {
	return OrganizationResponse{
		SID:       o.SID(),
		Name:      o.Name(),
		PlanSlug:  o.PlanSlug(),
		CreatedAt: o.CreatedAt(),
	}
}

// PlanChangeResponse is one history entry.
type PlanChangeResponse struct {
	FromSlug    string    `json:"from_slug,omitempty"`
	ToSlug      string    `json:"to_slug"`
	EffectiveAt time.Time `json:"effective_at"`
	Immediate   bool      `json:"immediate"`
	Applied     bool      `json:"applied"`
	InitiatedBy string    `json:"initiated_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func PlanChangeToResponse(c *organization.PlanChange) PlanChangeResponse {
	return PlanChangeResponse{
		FromSlug:    c.FromSlug(),
		ToSlug:      c.ToSlug(),
		EffectiveAt: c.EffectiveAt(),
		Immediate:   c.Immediate(),
		Applied:     c.Applied(),
		InitiatedBy: c.InitiatedBy(),
		CreatedAt:   c.CreatedAt(),
	}
}

func PlanChangesToResponse(changes []*organization.PlanChange) []PlanChangeResponse {
	out := make([]PlanChangeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, PlanChangeToResponse(c))
	}
	return out
}

// AlertResponse is the wire form of an alert.
type AlertResponse struct {
	SID          string     `json:"sid"`
	Feature      string     `json:"feature"`
	AlertType    string     `json:"alert_type"`
	Threshold    int        `json:"threshold"`
	Percentage   float64    `json:"percentage"`
	Severity     string     `json:"severity"`
	Message      string     `json:"message"`
	Acknowledged bool       `json:"acknowledged"`
	AckedAt      *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func AlertToResponse(a *alert.Alert) AlertResponse {
	return AlertResponse{
		SID:          a.SID(),
		Feature:      a.Feature(),
		AlertType:    string(a.AlertType()),
		Threshold:    a.Threshold(),
		Percentage:   a.Percentage(),
		Severity:     string(a.Severity()),
		Message:      a.Message(),
		Acknowledged: a.Acknowledged(),
		AckedAt:      a.AcknowledgedAt(),
		CreatedAt:    a.CreatedAt(),
	}
}

func AlertsToResponse(alerts []*alert.Alert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, AlertToResponse(a))
	}
	return out
}

// RuleResponse is the wire form of a custom rule.
type RuleResponse struct {
	SID        string          `json:"sid"`
	Feature    string          `json:"feature"`
	RuleType   string          `json:"rule_type"`
	Effect     string          `json:"effect"`
	Conditions rule.Conditions `json:"conditions"`
	Reason     string          `json:"reason,omitempty"`
	Enabled    bool            `json:"enabled"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func RuleToResponse(r *rule.CustomRule) RuleResponse {
	return RuleResponse{
		SID:        r.SID(),
		Feature:    r.Feature(),
		RuleType:   string(r.RuleType()),
		Effect:     string(r.Effect()),
		Conditions: r.Conditions(),
		Reason:     r.Reason(),
		Enabled:    r.Enabled(),
		ExpiresAt:  r.ExpiresAt(),
		CreatedAt:  r.CreatedAt(),
	}
}

func RulesToResponse(rules []*rule.CustomRule) []RuleResponse {
	out := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, RuleToResponse(r))
	}
	return out
}

// FeedItemResponse is the wire form of one feed entry.
type FeedItemResponse struct {
	ID        uint      `json:"id"`
	AlertSID  string    `json:"alert_sid"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func FeedItemsToResponse(items []*alert.FeedItem) []FeedItemResponse {
	out := make([]FeedItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, FeedItemResponse{
			ID:        item.ID(),
			AlertSID:  item.AlertSID(),
			Title:     item.Title(),
			Body:      item.Body(),
			Read:      item.Read(),
			CreatedAt: item.CreatedAt(),
		})
	}
	return out
}
