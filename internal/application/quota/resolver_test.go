package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"metergate/internal/domain/organization"
	"metergate/internal/domain/plan"
	"metergate/internal/domain/usage"
	"metergate/internal/shared/logger"
)

type mockOrgRepo struct{ mock.Mock }

func (m *mockOrgRepo) GetBySID(ctx context.Context, sid string) (*organization.Organization, error) {
	args := m.Called(ctx, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Organization), args.Error(1)
}

func (m *mockOrgRepo) Create(ctx context.Context, org *organization.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *mockOrgRepo) UpdatePlanSlug(ctx context.Context, sid, planSlug string, change *organization.PlanChange) error {
	return m.Called(ctx, sid, planSlug, change).Error(0)
}

func (m *mockOrgRepo) RecordPlanChange(ctx context.Context, change *organization.PlanChange) error {
	return m.Called(ctx, change).Error(0)
}

func (m *mockOrgRepo) ListPlanChanges(ctx context.Context, sid string) ([]*organization.PlanChange, error) {
	args := m.Called(ctx, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*organization.PlanChange), args.Error(1)
}

func (m *mockOrgRepo) ListDuePlanChanges(ctx context.Context, asOf time.Time) ([]*organization.PlanChange, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*organization.PlanChange), args.Error(1)
}

func (m *mockOrgRepo) MarkPlanChangeApplied(ctx context.Context, changeID uint) error {
	return m.Called(ctx, changeID).Error(0)
}

type mockPlanRepo struct{ mock.Mock }

func (m *mockPlanRepo) GetBySlug(ctx context.Context, slug string) (*plan.Plan, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *mockPlanRepo) List(ctx context.Context) ([]*plan.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*plan.Plan), args.Error(1)
}

func (m *mockPlanRepo) ListPublic(ctx context.Context) ([]*plan.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*plan.Plan), args.Error(1)
}

func (m *mockPlanRepo) Create(ctx context.Context, p *plan.Plan) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPlanRepo) Update(ctx context.Context, p *plan.Plan) error {
	return m.Called(ctx, p).Error(0)
}

type mockUsageRepo struct{ mock.Mock }

func (m *mockUsageRepo) IncrementUsage(ctx context.Context, orgID, metric string, amount int64) error {
	return m.Called(ctx, orgID, metric, amount).Error(0)
}

func (m *mockUsageRepo) GetUsage(ctx context.Context, orgID, metric string) (int64, error) {
	args := m.Called(ctx, orgID, metric)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUsageRepo) GetRecord(ctx context.Context, orgID string) (*usage.UsageRecord, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usage.UsageRecord), args.Error(1)
}

func (m *mockUsageRepo) ResetMonthlyUsage(ctx context.Context, orgID string) error {
	return m.Called(ctx, orgID).Error(0)
}

func (m *mockUsageRepo) ResetStaleRecords(ctx context.Context, currentMonth string) (int64, error) {
	args := m.Called(ctx, currentMonth)
	return args.Get(0).(int64), args.Error(1)
}

type mockGaugeRepo struct{ mock.Mock }

func (m *mockGaugeRepo) IncrementConcurrent(ctx context.Context, orgID, metric string) (int64, error) {
	args := m.Called(ctx, orgID, metric)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockGaugeRepo) DecrementConcurrent(ctx context.Context, orgID, metric string) (int64, error) {
	args := m.Called(ctx, orgID, metric)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockGaugeRepo) GetConcurrent(ctx context.Context, orgID, metric string) (int64, error) {
	args := m.Called(ctx, orgID, metric)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockGaugeRepo) ResetConcurrent(ctx context.Context, orgID, metric string) error {
	return m.Called(ctx, orgID, metric).Error(0)
}

func testOrg(t *testing.T, planSlug string) *organization.Organization {
	org, err := organization.ReconstructOrganization(1, "org_test", "Test Org", planSlug, time.Now(), time.Now())
	require.NoError(t, err)
	return org
}

func testPlan(t *testing.T, slug string, limits map[string]int64) *plan.Plan {
	p, err := plan.ReconstructPlan(1, slug, slug, 1, limits, 0, true, time.Now(), time.Now())
	require.NoError(t, err)
	return p
}

func newResolver(orgRepo *mockOrgRepo, planRepo *mockPlanRepo, usageRepo *mockUsageRepo, gaugeRepo *mockGaugeRepo) *LimitResolver {
	return NewLimitResolver(orgRepo, planRepo, usageRepo, gaugeRepo, "free", logger.NewLogger())
}

func TestResolvePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("assigned plan resolves", func(t *testing.T) {
		orgRepo := new(mockOrgRepo)
		planRepo := new(mockPlanRepo)
		orgRepo.On("GetBySID", ctx, "org_test").Return(testOrg(t, "pro"), nil)
		planRepo.On("GetBySlug", ctx, "pro").Return(testPlan(t, "pro", map[string]int64{"api_calls": 100}), nil)

		r := newResolver(orgRepo, planRepo, new(mockUsageRepo), new(mockGaugeRepo))
		p, err := r.ResolvePlan(ctx, "org_test")
		require.NoError(t, err)
		assert.Equal(t, "pro", p.Slug())
	})

	t.Run("no assignment falls back to free", func(t *testing.T) {
		orgRepo := new(mockOrgRepo)
		planRepo := new(mockPlanRepo)
		orgRepo.On("GetBySID", ctx, "org_test").Return(testOrg(t, ""), nil)
		planRepo.On("GetBySlug", ctx, "free").Return(testPlan(t, "free", map[string]int64{"api_calls": 10}), nil)

		r := newResolver(orgRepo, planRepo, new(mockUsageRepo), new(mockGaugeRepo))
		p, err := r.ResolvePlan(ctx, "org_test")
		require.NoError(t, err)
		assert.Equal(t, "free", p.Slug())
	})

	t.Run("unknown organization falls back to free", func(t *testing.T) {
		orgRepo := new(mockOrgRepo)
		planRepo := new(mockPlanRepo)
		orgRepo.On("GetBySID", ctx, "org_test").Return(nil, errors.New("not found"))
		planRepo.On("GetBySlug", ctx, "free").Return(testPlan(t, "free", nil), nil)

		r := newResolver(orgRepo, planRepo, new(mockUsageRepo), new(mockGaugeRepo))
		p, err := r.ResolvePlan(ctx, "org_test")
		require.NoError(t, err)
		assert.Equal(t, "free", p.Slug())
	})

	t.Run("dangling plan slug falls back to free", func(t *testing.T) {
		orgRepo := new(mockOrgRepo)
		planRepo := new(mockPlanRepo)
		orgRepo.On("GetBySID", ctx, "org_test").Return(testOrg(t, "legacy"), nil)
		planRepo.On("GetBySlug", ctx, "legacy").Return(nil, plan.ErrPlanNotFound)
		planRepo.On("GetBySlug", ctx, "free").Return(testPlan(t, "free", nil), nil)

		r := newResolver(orgRepo, planRepo, new(mockUsageRepo), new(mockGaugeRepo))
		p, err := r.ResolvePlan(ctx, "org_test")
		require.NoError(t, err)
		assert.Equal(t, "free", p.Slug())
	})
}

func TestCanUse(t *testing.T) {
	ctx := context.Background()

	setup := func(limits map[string]int64) (*mockUsageRepo, *LimitResolver) {
		orgRepo := new(mockOrgRepo)
		planRepo := new(mockPlanRepo)
		usageRepo := new(mockUsageRepo)
		orgRepo.On("GetBySID", ctx, "org_test").Return(testOrg(t, "pro"), nil)
		planRepo.On("GetBySlug", ctx, "pro").Return(testPlan(t, "pro", limits), nil)
		return usageRepo, newResolver(orgRepo, planRepo, usageRepo, new(mockGaugeRepo))
	}

	t.Run("within limit allows", func(t *testing.T) {
		usageRepo, r := setup(map[string]int64{"api_calls": 100})
		usageRepo.On("GetUsage", ctx, "org_test", "api_calls").Return(int64(40), nil)

		d := r.CanUse(ctx, "org_test", "api_calls", 1)
		assert.True(t, d.Allowed)
		assert.Equal(t, ReasonWithinLimit, d.Reason)
		assert.Equal(t, int64(40), d.CurrentUsage)
		assert.Equal(t, int64(100), d.Limit)
		assert.Equal(t, int64(60), d.Remaining)
		assert.Equal(t, "pro", d.PlanName)
	})

	t.Run("exactly at limit denies", func(t *testing.T) {
		usageRepo, r := setup(map[string]int64{"api_calls": 100})
		usageRepo.On("GetUsage", ctx, "org_test", "api_calls").Return(int64(100), nil)

		d := r.CanUse(ctx, "org_test", "api_calls", 1)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonLimitReached, d.Reason)
		assert.Equal(t, int64(0), d.Remaining)
	})

	t.Run("amount pushing past limit denies", func(t *testing.T) {
		usageRepo, r := setup(map[string]int64{"api_calls": 100})
		usageRepo.On("GetUsage", ctx, "org_test", "api_calls").Return(int64(95), nil)

		d := r.CanUse(ctx, "org_test", "api_calls", 10)
		assert.False(t, d.Allowed)
	})

	t.Run("amount exactly filling limit allows", func(t *testing.T) {
		usageRepo, r := setup(map[string]int64{"api_calls": 100})
		usageRepo.On("GetUsage", ctx, "org_test", "api_calls").Return(int64(95), nil)

		d := r.CanUse(ctx, "org_test", "api_calls", 5)
		assert.True(t, d.Allowed)
	})

	t.Run("unlimited metric always allows", func(t *testing.T) {
		usageRepo, r := setup(map[string]int64{"api_calls": plan.LimitUnlimited})
		usageRepo.On("GetUsage", ctx, "org_test", "api_calls").Return(int64(1000000), nil)

		d := r.CanUse(ctx, "org_test", "api_calls", 1)
		assert.True(t, d.Allowed)
		assert.Equal(t, ReasonUnlimited, d.Reason)
		assert.Equal(t, plan.LimitUnlimited, d.Remaining)
	})

	t.Run("unconfigured metric denies", func(t *testing.T) {
		_, r := setup(map[string]int64{"api_calls": 100})

		d := r.CanUse(ctx, "org_test", "exports", 1)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonNotOnPlan, d.Reason)
		assert.Equal(t, int64(0), d.Remaining)
	})

	t.Run("caller without organization is unmetered", func(t *testing.T) {
		orgRepo := new(mockOrgRepo)
		r := newResolver(orgRepo, new(mockPlanRepo), new(mockUsageRepo), new(mockGaugeRepo))

		d := r.CanUse(ctx, "", "exports", 1)
		assert.True(t, d.Allowed)
		assert.Equal(t, ReasonUnmetered, d.Reason)
		assert.Equal(t, plan.LimitUnlimited, d.Limit)
		assert.Equal(t, plan.LimitUnlimited, d.Remaining)
		orgRepo.AssertNotCalled(t, "GetBySID")
	})

	t.Run("usage read failure degrades open", func(t *testing.T) {
		usageRepo, r := setup(map[string]int64{"api_calls": 100})
		usageRepo.On("GetUsage", ctx, "org_test", "api_calls").Return(int64(0), errors.New("store down"))

		d := r.CanUse(ctx, "org_test", "api_calls", 1)
		assert.True(t, d.Allowed)
		assert.True(t, d.Degraded)
		assert.Equal(t, ReasonStoreDegraded, d.Reason)
	})

	t.Run("plan store failure degrades open", func(t *testing.T) {
		orgRepo := new(mockOrgRepo)
		planRepo := new(mockPlanRepo)
		orgRepo.On("GetBySID", ctx, "org_test").Return(testOrg(t, "pro"), nil)
		planRepo.On("GetBySlug", ctx, "pro").Return(nil, errors.New("store down"))

		r := newResolver(orgRepo, planRepo, new(mockUsageRepo), new(mockGaugeRepo))
		d := r.CanUse(ctx, "org_test", "api_calls", 1)
		assert.True(t, d.Allowed)
		assert.True(t, d.Degraded)
	})
}

func TestCanUseConcurrent(t *testing.T) {
	ctx := context.Background()

	orgRepo := new(mockOrgRepo)
	planRepo := new(mockPlanRepo)
	gaugeRepo := new(mockGaugeRepo)
	orgRepo.On("GetBySID", ctx, "org_test").Return(testOrg(t, "pro"), nil)
	planRepo.On("GetBySlug", ctx, "pro").Return(testPlan(t, "pro", map[string]int64{"active_sessions": 5}), nil)

	r := newResolver(orgRepo, planRepo, new(mockUsageRepo), gaugeRepo)

	gaugeRepo.On("GetConcurrent", ctx, "org_test", "active_sessions").Return(int64(4), nil).Once()
	d := r.CanUseConcurrent(ctx, "org_test", "active_sessions")
	assert.True(t, d.Allowed)

	gaugeRepo.On("GetConcurrent", ctx, "org_test", "active_sessions").Return(int64(5), nil).Once()
	d = r.CanUseConcurrent(ctx, "org_test", "active_sessions")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonLimitReached, d.Reason)

	d = r.CanUseConcurrent(ctx, "", "active_sessions")
	assert.True(t, d.Allowed, "caller without organization is unmetered")
	assert.Equal(t, plan.LimitUnlimited, d.Limit)
}

func TestCheckMultiple(t *testing.T) {
	ctx := context.Background()

	orgRepo := new(mockOrgRepo)
	planRepo := new(mockPlanRepo)
	usageRepo := new(mockUsageRepo)
	orgRepo.On("GetBySID", ctx, "org_test").Return(testOrg(t, "pro"), nil)
	planRepo.On("GetBySlug", ctx, "pro").Return(testPlan(t, "pro", map[string]int64{
		"api_calls": 100,
		"exports":   plan.LimitUnlimited,
	}), nil)
	usageRepo.On("GetUsage", mock.Anything, "org_test", "api_calls").Return(int64(100), nil)
	usageRepo.On("GetUsage", mock.Anything, "org_test", "exports").Return(int64(3), nil)

	r := newResolver(orgRepo, planRepo, usageRepo, new(mockGaugeRepo))
	decisions := r.CheckMultiple(ctx, "org_test", []string{"api_calls", "exports", "webhooks"})

	require.Len(t, decisions, 3)
	assert.False(t, decisions["api_calls"].Allowed)
	assert.True(t, decisions["exports"].Allowed)
	assert.False(t, decisions["webhooks"].Allowed, "unconfigured metric must deny")
	assert.Equal(t, ReasonNotOnPlan, decisions["webhooks"].Reason)
	assert.Equal(t, "pro", decisions["api_calls"].PlanName)
}

func TestCheckMultiple_NoOrganization(t *testing.T) {
	orgRepo := new(mockOrgRepo)
	r := newResolver(orgRepo, new(mockPlanRepo), new(mockUsageRepo), new(mockGaugeRepo))

	decisions := r.CheckMultiple(context.Background(), "", []string{"api_calls", "exports"})

	require.Len(t, decisions, 2)
	for metric, d := range decisions {
		assert.True(t, d.Allowed, metric)
		assert.Equal(t, plan.LimitUnlimited, d.Limit, metric)
		assert.Equal(t, plan.LimitUnlimited, d.Remaining, metric)
	}
	orgRepo.AssertNotCalled(t, "GetBySID")
}
