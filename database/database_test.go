package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tipflow/tip-backend/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestMigrate(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Migrate(db))

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	// idempotent
	require.NoError(t, Migrate(db))
}

func TestSeed(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Migrate(db))

	first, err := Seed(db, SeedOptions{TipCode: "TIP001", SubAccount: "sub-demo"})
	require.NoError(t, err)
	second, err := Seed(db, SeedOptions{TipCode: "TIP001", SubAccount: "sub-demo"})
	require.NoError(t, err)
	assert.Equal(t, first.EmployeeID, second.EmployeeID)

	var employees, subs int64
	db.Model(&models.Employee{}).Count(&employees)
	db.Model(&models.SubAccount{}).Count(&subs)
	assert.EqualValues(t, 1, employees)
	assert.EqualValues(t, 1, subs)

	var employee models.Employee
	require.NoError(t, db.Preload("ServiceProvider").First(&employee, "id = ?", first.EmployeeID).Error)
	assert.True(t, employee.IsActive)
	assert.True(t, employee.ServiceProvider.IsVerified)
}

func TestSeed_RequiresTipCode(t *testing.T) {
	db := setupTestDB(t)
	_, err := Seed(db, SeedOptions{})
	assert.Error(t, err)
}
