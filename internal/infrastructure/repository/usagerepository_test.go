package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"metergate/internal/infrastructure/persistence/models"
	"metergate/internal/shared/biztime"
	"metergate/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.UsageRecordModel{},
		&models.ConcurrentGaugeModel{},
		&models.PlanModel{},
		&models.OrganizationModel{},
		&models.PlanChangeModel{},
		&models.AlertModel{},
		&models.NotificationConfigModel{},
		&models.CustomRuleModel{},
		&models.FeedItemModel{},
	)
	require.NoError(t, err)

	return db
}

func TestUsageRepository_IncrementAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUsageRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("first increment creates the row", func(t *testing.T) {
		err := repo.IncrementUsage(ctx, "org_a", "api_calls", 3)
		assert.NoError(t, err)

		got, err := repo.GetUsage(ctx, "org_a", "api_calls")
		assert.NoError(t, err)
		assert.Equal(t, int64(3), got)
	})

	t.Run("subsequent increments accumulate", func(t *testing.T) {
		err := repo.IncrementUsage(ctx, "org_a", "api_calls", 7)
		assert.NoError(t, err)

		got, err := repo.GetUsage(ctx, "org_a", "api_calls")
		assert.NoError(t, err)
		assert.Equal(t, int64(10), got)
	})

	t.Run("metrics are independent", func(t *testing.T) {
		err := repo.IncrementUsage(ctx, "org_a", "exports", 1)
		assert.NoError(t, err)

		got, err := repo.GetUsage(ctx, "org_a", "exports")
		assert.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("unknown metric reads zero", func(t *testing.T) {
		got, err := repo.GetUsage(ctx, "org_a", "webhooks")
		assert.NoError(t, err)
		assert.Equal(t, int64(0), got)
	})

	t.Run("non-positive amounts rejected", func(t *testing.T) {
		assert.Error(t, repo.IncrementUsage(ctx, "org_a", "api_calls", 0))
		assert.Error(t, repo.IncrementUsage(ctx, "org_a", "api_calls", -1))
	})
}

func TestUsageRepository_ReadRepairsStaleMonth(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUsageRepository(db, logger.NewLogger())
	ctx := context.Background()

	// Seed a row left over from a previous period.
	require.NoError(t, db.Create(&models.UsageRecordModel{
		OrgSID: "org_b",
		Metric: "api_calls",
		Month:  "2000-01",
		Count:  500,
	}).Error)

	got, err := repo.GetUsage(ctx, "org_b", "api_calls")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), got)

	// The row itself must now carry the current month.
	var row models.UsageRecordModel
	require.NoError(t, db.Where("org_sid = ? AND metric = ?", "org_b", "api_calls").First(&row).Error)
	assert.Equal(t, biztime.CurrentMonthKey(), row.Month)
	assert.Equal(t, int64(0), row.Count)
}

func TestUsageRepository_IncrementRollsOverStaleMonth(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUsageRepository(db, logger.NewLogger())
	ctx := context.Background()

	require.NoError(t, db.Create(&models.UsageRecordModel{
		OrgSID: "org_c",
		Metric: "api_calls",
		Month:  "2000-01",
		Count:  500,
	}).Error)

	err := repo.IncrementUsage(ctx, "org_c", "api_calls", 2)
	assert.NoError(t, err)

	got, err := repo.GetUsage(ctx, "org_c", "api_calls")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), got, "stale count must not survive rollover")
}

func TestUsageRepository_GetRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUsageRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("no usage returns nil", func(t *testing.T) {
		rec, err := repo.GetRecord(ctx, "org_missing")
		assert.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("aggregates all metrics", func(t *testing.T) {
		require.NoError(t, repo.IncrementUsage(ctx, "org_d", "api_calls", 4))
		require.NoError(t, repo.IncrementUsage(ctx, "org_d", "exports", 2))

		rec, err := repo.GetRecord(ctx, "org_d")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, int64(4), rec.Count("api_calls"))
		assert.Equal(t, int64(2), rec.Count("exports"))
		assert.Equal(t, biztime.CurrentMonthKey(), rec.Month())
	})
}

func TestUsageRepository_ResetMonthlyUsage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUsageRepository(db, logger.NewLogger())
	ctx := context.Background()

	require.NoError(t, repo.IncrementUsage(ctx, "org_e", "api_calls", 9))
	require.NoError(t, repo.ResetMonthlyUsage(ctx, "org_e"))

	got, err := repo.GetUsage(ctx, "org_e", "api_calls")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestUsageRepository_ResetStaleRecords(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUsageRepository(db, logger.NewLogger())
	ctx := context.Background()

	require.NoError(t, db.Create(&models.UsageRecordModel{
		OrgSID: "org_f", Metric: "api_calls", Month: "2000-01", Count: 10,
	}).Error)
	require.NoError(t, db.Create(&models.UsageRecordModel{
		OrgSID: "org_g", Metric: "api_calls", Month: biztime.CurrentMonthKey(), Count: 10,
	}).Error)

	swept, err := repo.ResetStaleRecords(ctx, biztime.CurrentMonthKey())
	assert.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	got, err := repo.GetUsage(ctx, "org_g", "api_calls")
	assert.NoError(t, err)
	assert.Equal(t, int64(10), got, "current-month rows must be untouched")
}

func TestGaugeRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGaugeRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("increment creates and counts", func(t *testing.T) {
		v, err := repo.IncrementConcurrent(ctx, "org_a", "active_sessions")
		assert.NoError(t, err)
		assert.Equal(t, int64(1), v)

		v, err = repo.IncrementConcurrent(ctx, "org_a", "active_sessions")
		assert.NoError(t, err)
		assert.Equal(t, int64(2), v)
	})

	t.Run("decrement lowers and clamps", func(t *testing.T) {
		v, err := repo.DecrementConcurrent(ctx, "org_a", "active_sessions")
		assert.NoError(t, err)
		assert.Equal(t, int64(1), v)

		v, err = repo.DecrementConcurrent(ctx, "org_a", "active_sessions")
		assert.NoError(t, err)
		assert.Equal(t, int64(0), v)

		v, err = repo.DecrementConcurrent(ctx, "org_a", "active_sessions")
		assert.NoError(t, err)
		assert.Equal(t, int64(0), v, "gauge must clamp at zero")
	})

	t.Run("decrement on missing gauge reads zero", func(t *testing.T) {
		v, err := repo.DecrementConcurrent(ctx, "org_z", "active_sessions")
		assert.NoError(t, err)
		assert.Equal(t, int64(0), v)
	})

	t.Run("reset zeroes the gauge", func(t *testing.T) {
		_, err := repo.IncrementConcurrent(ctx, "org_b", "active_sessions")
		require.NoError(t, err)
		_, err = repo.IncrementConcurrent(ctx, "org_b", "active_sessions")
		require.NoError(t, err)

		require.NoError(t, repo.ResetConcurrent(ctx, "org_b", "active_sessions"))

		v, err := repo.GetConcurrent(ctx, "org_b", "active_sessions")
		assert.NoError(t, err)
		assert.Equal(t, int64(0), v)
	})
}
