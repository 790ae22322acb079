package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/orris-inc/cloudbilling/internal/shared/constants"
)

func TestNewManager_StrategyByEnvironment(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{env: constants.EnvDevelopment, want: "gorm_auto_migrate"},
		{env: "DEVELOPMENT", want: "gorm_auto_migrate"},
		{env: constants.EnvTest, want: "goose"},
		{env: constants.EnvProduction, want: "goose"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, NewManager(tt.env).GetStrategy().GetName())
		})
	}
}

func TestGormAutoMigrate_CreatesAllTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, NewManagerWithStrategy(NewGormAutoMigrateStrategy()).Migrate(db))

	for _, table := range []string{
		constants.TableServiceTypes,
		constants.TableServicePlans,
		constants.TableSubscriptions,
		constants.TableSubscriptionItems,
		constants.TableReservedHostnames,
		constants.TableBackorders,
		constants.TableInvoiceRefs,
		constants.TableOpenPositions,
		constants.TableUsageRecords,
		constants.TableBillingAccounts,
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestEmbeddedScripts(t *testing.T) {
	entries, err := scripts.ReadDir(scriptsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_init_billing.sql", entries[0].Name())
}
