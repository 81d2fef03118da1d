package plan

import "testing"

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name     string
		slug     string
		planName string
		limits   map[string]int64
		wantErr  bool
	}{
		{
			name:     "valid plan",
			slug:     "pro",
			planName: "Pro",
			limits:   map[string]int64{"api_calls": 100000, "seats": 25},
			wantErr:  false,
		},
		{
			name:     "unlimited metric",
			slug:     "enterprise",
			planName: "Enterprise",
			limits:   map[string]int64{"api_calls": LimitUnlimited},
			wantErr:  false,
		},
		{
			name:     "empty slug",
			slug:     "",
			planName: "Pro",
			limits:   map[string]int64{"api_calls": 100},
			wantErr:  true,
		},
		{
			name:     "empty name",
			slug:     "pro",
			planName: "",
			limits:   map[string]int64{"api_calls": 100},
			wantErr:  true,
		},
		{
			name:     "limit below -1",
			slug:     "bad",
			planName: "Bad",
			limits:   map[string]int64{"api_calls": -2},
			wantErr:  true,
		},
		{
			name:     "nil limits allowed",
			slug:     "empty",
			planName: "Empty",
			limits:   nil,
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlan(tt.slug, tt.planName, tt.limits)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPlan() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && p.Slug() != tt.slug {
				t.Errorf("Slug() = %v, want %v", p.Slug(), tt.slug)
			}
		})
	}
}

func TestPlanGetLimit(t *testing.T) {
	p, err := NewPlan("pro", "Pro", map[string]int64{
		"api_calls": 100000,
		"exports":   LimitUnlimited,
		"sandboxes": 0,
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	tests := []struct {
		name   string
		metric string
		want   int64
	}{
		{"configured metric", "api_calls", 100000},
		{"unlimited metric", "exports", LimitUnlimited},
		{"explicit zero", "sandboxes", LimitDisabled},
		{"absent metric is disabled", "webhooks", LimitDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.GetLimit(tt.metric); got != tt.want {
				t.Errorf("GetLimit(%q) = %v, want %v", tt.metric, got, tt.want)
			}
		})
	}
}

func TestPlanUpdateLimits(t *testing.T) {
	p, err := NewPlan("pro", "Pro", map[string]int64{"api_calls": 100})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}
	v := p.Version()

	if err := p.UpdateLimits(map[string]int64{"api_calls": 500}); err != nil {
		t.Fatalf("UpdateLimits() error = %v", err)
	}
	if p.Version() != v+1 {
		t.Errorf("Version() = %v, want %v", p.Version(), v+1)
	}
	if got := p.GetLimit("api_calls"); got != 500 {
		t.Errorf("GetLimit(api_calls) = %v, want 500", got)
	}

	if err := p.UpdateLimits(map[string]int64{"api_calls": -5}); err == nil {
		t.Error("UpdateLimits() with invalid limit should fail")
	}
	if p.Version() != v+1 {
		t.Errorf("failed update must not bump version, got %v", p.Version())
	}

	if err := p.UpdateLimits(nil); err == nil {
		t.Error("UpdateLimits() with empty map should fail")
	}
}

func TestPlanLimitsCopy(t *testing.T) {
	p, err := NewPlan("pro", "Pro", map[string]int64{"api_calls": 100})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	limits := p.Limits()
	limits["api_calls"] = 999

	if got := p.GetLimit("api_calls"); got != 100 {
		t.Errorf("mutating Limits() copy leaked into plan, GetLimit = %v", got)
	}
}
