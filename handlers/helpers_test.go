package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bug_track_app_go/db"
	"bug_track_app_go/middleware"
	"bug_track_app_go/models"
	"bug_track_app_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the package-global connection at a fresh
// in-memory database for one test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.New().String())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	err = gdb.AutoMigrate(&models.User{}, &models.Session{}, &models.Bug{}, &models.OperationLog{})
	assert.NoError(t, err)

	db.DB = gdb
	return gdb
}

// newContext builds an echo context carrying a JSON body
func newContext(t *testing.T, method, path string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&reader).Encode(body))
	}

	req := httptest.NewRequest(method, path, &reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// asUser installs an authenticated user on the context, as
// RequireAuth would after validating a bearer token
func asUser(c echo.Context, user *models.User) {
	c.Set(middleware.ContextKeyUser, user)
}

func makeUser(t *testing.T, username, email string) *models.User {
	t.Helper()
	hash, err := services.HashPassword("password123")
	assert.NoError(t, err)
	user := &models.User{Username: username, Email: email, Password: hash}
	assert.NoError(t, db.DB.Create(user).Error)
	return user
}

func makeBug(t *testing.T) *models.Bug {
	t.Helper()
	bug := &models.Bug{
		Status:                    models.BugStatusPass,
		TCID:                      "T-1",
		Tester:                    "Alice",
		Date:                      "2025/01/01",
		Stage:                     "S1",
		ProductCustomerLikelihood: "1_High/High/Frequent",
		TestCaseName:              "TC1",
		Title:                     "Bug A",
	}
	assert.NoError(t, services.CreateBug(db.DB, bug))
	return bug
}

// httpStatus extracts the status of a handler call: the HTTPError
// code when the handler returned one, the recorder code otherwise
func httpStatus(err error, rec *httptest.ResponseRecorder) int {
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he.Code
		}
		return http.StatusInternalServerError
	}
	return rec.Code
}
