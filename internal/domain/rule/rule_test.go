package rule

import (
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestNewCustomRuleValidation(t *testing.T) {
	tests := []struct {
		name       string
		ruleType   Type
		effect     Effect
		conditions Conditions
		wantErr    bool
	}{
		{
			name:       "valid time based",
			ruleType:   TypeTimeBased,
			effect:     EffectDeny,
			conditions: Conditions{StartHour: intPtr(9), EndHour: intPtr(17)},
			wantErr:    false,
		},
		{
			name:       "time based missing hours",
			ruleType:   TypeTimeBased,
			effect:     EffectDeny,
			conditions: Conditions{},
			wantErr:    true,
		},
		{
			name:       "time based hour out of range",
			ruleType:   TypeTimeBased,
			effect:     EffectDeny,
			conditions: Conditions{StartHour: intPtr(9), EndHour: intPtr(25)},
			wantErr:    true,
		},
		{
			name:       "valid user based",
			ruleType:   TypeUserBased,
			effect:     EffectAllow,
			conditions: Conditions{UserIDs: []string{"user_1"}},
			wantErr:    false,
		},
		{
			name:       "user based without users",
			ruleType:   TypeUserBased,
			effect:     EffectAllow,
			conditions: Conditions{},
			wantErr:    true,
		},
		{
			name:       "valid conditional",
			ruleType:   TypeConditional,
			effect:     EffectDeny,
			conditions: Conditions{Attributes: map[string]string{"region": "eu"}},
			wantErr:    false,
		},
		{
			name:       "conditional without attributes",
			ruleType:   TypeConditional,
			effect:     EffectDeny,
			conditions: Conditions{},
			wantErr:    true,
		},
		{
			name:       "unknown type",
			ruleType:   "geo_based",
			effect:     EffectDeny,
			conditions: Conditions{},
			wantErr:    true,
		},
		{
			name:       "unknown effect",
			ruleType:   TypeUserBased,
			effect:     "audit",
			conditions: Conditions{UserIDs: []string{"user_1"}},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCustomRule("org_abc123", "api_calls", tt.ruleType, tt.effect, tt.conditions, "", nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewCustomRule() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeBasedRuleEvaluate(t *testing.T) {
	r, err := NewCustomRule("org_abc123", "exports", TypeTimeBased, EffectDeny,
		Conditions{StartHour: intPtr(22), EndHour: intPtr(4)}, "maintenance window", nil)
	if err != nil {
		t.Fatalf("NewCustomRule() error = %v", err)
	}

	tests := []struct {
		name    string
		hour    int
		matched bool
	}{
		{"inside wrapped window late", 23, true},
		{"inside wrapped window early", 3, true},
		{"boundary start", 22, true},
		{"boundary end", 4, true},
		{"outside window", 12, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2026, 8, 20, tt.hour, 30, 0, 0, time.UTC)
			res := r.Evaluate(EvalContext{Feature: "exports", Now: now})
			if res.Matched != tt.matched {
				t.Errorf("Matched = %v, want %v", res.Matched, tt.matched)
			}
			if res.Matched && res.Allow {
				t.Error("deny rule must not allow")
			}
			if res.Matched && res.Reason != "maintenance window" {
				t.Errorf("Reason = %q, want %q", res.Reason, "maintenance window")
			}
		})
	}
}

func TestTimeBasedRuleWeekdays(t *testing.T) {
	r, err := NewCustomRule("org_abc123", "exports", TypeTimeBased, EffectDeny,
		Conditions{StartHour: intPtr(0), EndHour: intPtr(23), Weekdays: []int{0, 6}}, "", nil)
	if err != nil {
		t.Fatalf("NewCustomRule() error = %v", err)
	}

	// 2026-08-22 is a Saturday, 2026-08-24 a Monday.
	saturday := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	if !r.Evaluate(EvalContext{Feature: "exports", Now: saturday}).Matched {
		t.Error("rule should match on Saturday")
	}
	if r.Evaluate(EvalContext{Feature: "exports", Now: monday}).Matched {
		t.Error("rule should not match on Monday")
	}
}

func TestUserBasedRuleEvaluate(t *testing.T) {
	r, err := NewCustomRule("org_abc123", "beta_tools", TypeUserBased, EffectAllow,
		Conditions{UserIDs: []string{"user_42"}}, "", nil)
	if err != nil {
		t.Fatalf("NewCustomRule() error = %v", err)
	}
	now := time.Now()

	res := r.Evaluate(EvalContext{Feature: "beta_tools", UserID: "user_42", Now: now})
	if !res.Matched || !res.Allow {
		t.Errorf("Evaluate() = %+v, want matched allow", res)
	}

	if r.Evaluate(EvalContext{Feature: "beta_tools", UserID: "user_7", Now: now}).Matched {
		t.Error("rule should not match other users")
	}
	if r.Evaluate(EvalContext{Feature: "beta_tools", Now: now}).Matched {
		t.Error("rule should not match when no user ID is supplied")
	}
	if r.Evaluate(EvalContext{Feature: "exports", UserID: "user_42", Now: now}).Matched {
		t.Error("rule should not match other features")
	}
}

func TestConditionalRuleEvaluate(t *testing.T) {
	r, err := NewCustomRule("org_abc123", "exports", TypeConditional, EffectDeny,
		Conditions{Attributes: map[string]string{"region": "eu", "tier": "trial"}}, "", nil)
	if err != nil {
		t.Fatalf("NewCustomRule() error = %v", err)
	}
	now := time.Now()

	res := r.Evaluate(EvalContext{
		Feature:    "exports",
		Now:        now,
		Attributes: map[string]string{"region": "eu", "tier": "trial", "extra": "x"},
	})
	if !res.Matched || res.Allow {
		t.Errorf("Evaluate() = %+v, want matched deny", res)
	}

	partial := r.Evaluate(EvalContext{
		Feature:    "exports",
		Now:        now,
		Attributes: map[string]string{"region": "eu"},
	})
	if partial.Matched {
		t.Error("rule requires all attributes to match")
	}
}

func TestRuleLifecycle(t *testing.T) {
	expires := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	r, err := NewCustomRule("org_abc123", "beta_tools", TypeUserBased, EffectAllow,
		Conditions{UserIDs: []string{"user_42"}}, "", &expires)
	if err != nil {
		t.Fatalf("NewCustomRule() error = %v", err)
	}

	before := expires.Add(-time.Hour)
	after := expires.Add(time.Hour)

	if !r.Evaluate(EvalContext{Feature: "beta_tools", UserID: "user_42", Now: before}).Matched {
		t.Error("unexpired rule should match")
	}
	if r.Evaluate(EvalContext{Feature: "beta_tools", UserID: "user_42", Now: after}).Matched {
		t.Error("expired rule must not match")
	}

	r.Disable()
	if r.Evaluate(EvalContext{Feature: "beta_tools", UserID: "user_42", Now: before}).Matched {
		t.Error("disabled rule must not match")
	}
}
