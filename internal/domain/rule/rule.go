package rule

import (
	"fmt"
	"strings"
	"time"

	"metergate/internal/shared/id"
)

// Type discriminates how a custom rule is evaluated.
type Type string

const (
	TypeTimeBased   Type = "time_based"
	TypeUserBased   Type = "user_based"
	TypeConditional Type = "conditional"
)

// Effect is what a matched rule does to the access decision.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Conditions holds the evaluation parameters for each rule type. Only the
// fields relevant to the rule's type are consulted.
type Conditions struct {
	// time_based: inclusive hour window in UTC, 0-23. StartHour > EndHour
	// wraps past midnight.
	StartHour *int `json:"start_hour,omitempty"`
	EndHour   *int `json:"end_hour,omitempty"`
	// time_based: weekdays the rule applies on; empty means every day.
	// time.Weekday numbering, Sunday=0.
	Weekdays []int `json:"weekdays,omitempty"`

	// user_based: user IDs the rule applies to.
	UserIDs []string `json:"user_ids,omitempty"`

	// conditional: attribute equality checks against the evaluation
	// context; all must match.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// EvalContext carries the request-time facts a rule can match against.
type EvalContext struct {
	Feature string
	UserID  string
	Now     time.Time
	// Attributes are caller-supplied key/value pairs for conditional rules.
	Attributes map[string]string
}

// CustomRule is a per-organization override evaluated before plan limits.
type CustomRule struct {
	id         uint
	sid        string
	orgSID     string
	feature    string
	ruleType   Type
	effect     Effect
	conditions Conditions
	reason     string
	enabled    bool
	expiresAt  *time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

func NewCustomRule(orgSID, feature string, ruleType Type, effect Effect, conditions Conditions, reason string, expiresAt *time.Time) (*CustomRule, error) {
	if orgSID == "" {
		return nil, fmt.Errorf("organization SID is required")
	}
	if feature == "" {
		return nil, fmt.Errorf("feature is required")
	}
	if err := validateType(ruleType, conditions); err != nil {
		return nil, err
	}
	if effect != EffectAllow && effect != EffectDeny {
		return nil, fmt.Errorf("invalid effect: %s", effect)
	}

	sid, err := id.NewRuleID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	now := time.Now()
	return &CustomRule{
		sid:        sid,
		orgSID:     orgSID,
		feature:    feature,
		ruleType:   ruleType,
		effect:     effect,
		conditions: conditions,
		reason:     reason,
		enabled:    true,
		expiresAt:  expiresAt,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func validateType(ruleType Type, c Conditions) error {
	switch ruleType {
	case TypeTimeBased:
		if c.StartHour == nil || c.EndHour == nil {
			return fmt.Errorf("time_based rule requires start_hour and end_hour")
		}
		if *c.StartHour < 0 || *c.StartHour > 23 || *c.EndHour < 0 || *c.EndHour > 23 {
			return fmt.Errorf("hours must be between 0 and 23")
		}
		for _, d := range c.Weekdays {
			if d < 0 || d > 6 {
				return fmt.Errorf("weekday out of range: %d", d)
			}
		}
	case TypeUserBased:
		if len(c.UserIDs) == 0 {
			return fmt.Errorf("user_based rule requires at least one user ID")
		}
	case TypeConditional:
		if len(c.Attributes) == 0 {
			return fmt.Errorf("conditional rule requires at least one attribute")
		}
	default:
		return fmt.Errorf("invalid rule type: %s", ruleType)
	}
	return nil
}

func ReconstructCustomRule(ruleID uint, sid, orgSID, feature string, ruleType Type,
	effect Effect, conditions Conditions, reason string, enabled bool,
	expiresAt *time.Time, createdAt, updatedAt time.Time) (*CustomRule, error) {

	if ruleID == 0 {
		return nil, fmt.Errorf("rule ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("rule SID is required")
	}

	return &CustomRule{
		id:         ruleID,
		sid:        sid,
		orgSID:     orgSID,
		feature:    feature,
		ruleType:   ruleType,
		effect:     effect,
		conditions: conditions,
		reason:     reason,
		enabled:    enabled,
		expiresAt:  expiresAt,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}, nil
}

func (r *CustomRule) ID() uint              { return r.id }
func (r *CustomRule) SID() string           { return r.sid }
func (r *CustomRule) OrgSID() string        { return r.orgSID }
func (r *CustomRule) Feature() string       { return r.feature }
func (r *CustomRule) RuleType() Type        { return r.ruleType }
func (r *CustomRule) Effect() Effect        { return r.effect }
func (r *CustomRule) Conditions() Conditions { return r.conditions }
func (r *CustomRule) Reason() string        { return r.reason }
func (r *CustomRule) Enabled() bool         { return r.enabled }
func (r *CustomRule) ExpiresAt() *time.Time { return r.expiresAt }
func (r *CustomRule) CreatedAt() time.Time  { return r.createdAt }
func (r *CustomRule) UpdatedAt() time.Time  { return r.updatedAt }

func (r *CustomRule) SetID(ruleID uint) error {
	if r.id != 0 {
		return fmt.Errorf("rule ID is already set")
	}
	if ruleID == 0 {
		return fmt.Errorf("rule ID cannot be zero")
	}
	r.id = ruleID
	return nil
}

func (r *CustomRule) Disable() {
	r.enabled = false
	r.updatedAt = time.Now()
}

// Result is the outcome of evaluating one rule.
type Result struct {
	Matched bool
	Allow   bool
	Reason  string
}

// Evaluate applies the rule to the evaluation context. A disabled or
// expired rule never matches.
func (r *CustomRule) Evaluate(ec EvalContext) Result {
	if !r.enabled {
		return Result{}
	}
	if r.expiresAt != nil && !ec.Now.Before(*r.expiresAt) {
		return Result{}
	}
	if r.feature != ec.Feature {
		return Result{}
	}

	matched := false
	switch r.ruleType {
	case TypeTimeBased:
		matched = r.matchesTime(ec.Now)
	case TypeUserBased:
		matched = r.matchesUser(ec.UserID)
	case TypeConditional:
		matched = r.matchesAttributes(ec.Attributes)
	}
	if !matched {
		return Result{}
	}

	reason := r.reason
	if reason == "" {
		reason = fmt.Sprintf("%s rule %s", r.ruleType, r.sid)
	}
	return Result{
		Matched: true,
		Allow:   r.effect == EffectAllow,
		Reason:  reason,
	}
}

func (r *CustomRule) matchesTime(now time.Time) bool {
	c := r.conditions
	if c.StartHour == nil || c.EndHour == nil {
		return false
	}
	utc := now.UTC()
	if len(c.Weekdays) > 0 {
		dayOK := false
		for _, d := range c.Weekdays {
			if int(utc.Weekday()) == d {
				dayOK = true
				break
			}
		}
		if !dayOK {
			return false
		}
	}
	hour := utc.Hour()
	start, end := *c.StartHour, *c.EndHour
	if start <= end {
		return hour >= start && hour <= end
	}
	// Window wraps past midnight.
	return hour >= start || hour <= end
}

func (r *CustomRule) matchesUser(userID string) bool {
	if userID == "" {
		return false
	}
	for _, u := range r.conditions.UserIDs {
		if strings.EqualFold(u, userID) {
			return true
		}
	}
	return false
}

func (r *CustomRule) matchesAttributes(attrs map[string]string) bool {
	if len(r.conditions.Attributes) == 0 {
		return false
	}
	for k, want := range r.conditions.Attributes {
		if attrs[k] != want {
			return false
		}
	}
	return true
}
