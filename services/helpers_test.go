package services

import (
	"testing"

	"bug_track_app_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Unique shared memory name to isolate tests while allowing shared cache
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	assert.NoError(t, err)

	err = testDB.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Bug{},
		&models.OperationLog{},
	)
	assert.NoError(t, err)

	return testDB
}

func validBug() *models.Bug {
	return &models.Bug{
		Status:                    models.BugStatusPass,
		TCID:                      "T-1",
		Tester:                    "Alice",
		Date:                      "2025/01/01",
		Stage:                     "S1",
		ProductCustomerLikelihood: "1_High/High/Frequent",
		TestCaseName:              "TC1",
		Title:                     "Bug A",
	}
}
