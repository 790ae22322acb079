package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/orris-inc/cloudbilling/internal/domain/billing"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/migration"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

var t0 = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	// every pooled connection would otherwise get its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(migration.AutoMigrateModels()...))
	return db
}

func testLogger() logger.Interface {
	return logger.NewNop()
}

func newTestSubscription(t *testing.T, userID uint, start time.Time) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.NewSubscription(userID, 1, billing.Schedule{
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   start.AddDate(0, 1, 0),
		NextBillingAt:      start.AddDate(0, 1, 0),
	}, start)
	require.NoError(t, err)
	return sub
}

func newTestPlan(t *testing.T) *subscription.Plan {
	t.Helper()
	day := 15
	plan, err := subscription.NewPlan(
		7,
		"vps-small",
		billing.Interval{Type: billing.IntervalMonth, Value: 1, DayOfMonth: &day},
		billing.CancellationPolicy{CancelAtPeriodEnd: true, MinCommitmentDays: 30, NoticeDays: 7},
		subscription.PlanPricing{
			BasePrice:     decimal.RequireFromString("10.50"),
			MarginPercent: decimal.RequireFromString("20"),
			MarginFixed:   decimal.RequireFromString("1.25"),
			Currency:      "EUR",
		},
		map[string]any{"backups": false},
		t0,
	)
	require.NoError(t, err)
	return plan
}
