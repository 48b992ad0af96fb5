package database

import (
	"testing"

	"casaviva_backend/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrateDatabaseOnExplicitHandle(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, MigrateDatabase(db, &model.Subscription{}, &model.Lead{}))
	assert.True(t, db.Migrator().HasTable(&model.Subscription{}))
	assert.True(t, db.Migrator().HasTable(&model.Lead{}))

	// A second run takes the update path and stays idempotent.
	require.NoError(t, MigrateDatabase(db, &model.Subscription{}))
}
