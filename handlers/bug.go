package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bug_track_app_go/config"
	"bug_track_app_go/db"
	"bug_track_app_go/middleware"
	"bug_track_app_go/models"
	"bug_track_app_go/services"

	"github.com/labstack/echo/v4"
)

// GetBugsHandler returns bugs with filtering and pagination.
// all=true disables pagination and returns the complete matching set,
// ordered by updatedAt descending.
func GetBugsHandler(c echo.Context) error {
	filters := services.BugFilters{
		Search:    c.QueryParam("search"),
		Pims:      c.QueryParam("pims"),
		Tester:    c.QueryParam("tester"),
		Status:    c.QueryParam("status"),
		Stage:     c.QueryParam("stage"),
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
	}

	all := c.QueryParam("all") == "true"

	page := 1
	limit := 20
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if p, err := strconv.Atoi(pageParam); err == nil && p > 0 {
			page = p
		}
	}
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}

	bugs, total, err := services.ListBugs(db.DB, filters, page, limit, all)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch bugs")
	}

	if all {
		page = 1
		limit = int(total)
	}
	totalPages := 1
	if !all && limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"bugs": bugs,
		"pagination": map[string]interface{}{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

// CreateBugHandler validates and persists a new bug
func CreateBugHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	var bug models.Bug
	if err := c.Bind(&bug); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	bug.ID = "" // Server-assigned

	if err := services.CreateBug(db.DB, &bug); err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			return echo.NewHTTPError(http.StatusBadRequest, vErr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create bug")
	}

	services.RecordOperation(db.DB, user.Username, models.OperationCreate, &bug,
		fmt.Sprintf("Created bug %s", bug.TCID))

	notifyTester(c, &bug, user.Username)

	return c.JSON(http.StatusCreated, map[string]string{"id": bug.ID})
}

// UpdateBugHandler replaces the fields of an existing bug
func UpdateBugHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	id := c.Param("id")

	bug, err := services.GetBug(db.DB, id)
	if err != nil {
		if errors.Is(err, services.ErrBugNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Bug not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch bug")
	}

	// Bind over the stored record so omitted fields keep their values
	if err := c.Bind(bug); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	bug.ID = id

	if err := services.SaveBug(db.DB, bug); err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			return echo.NewHTTPError(http.StatusBadRequest, vErr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update bug")
	}

	services.RecordOperation(db.DB, user.Username, models.OperationUpdate, bug,
		fmt.Sprintf("Updated bug %s", bug.TCID))

	return c.JSON(http.StatusOK, bug)
}

// DeleteBugHandler permanently removes a bug
func DeleteBugHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	id := c.Param("id")

	bug, err := services.DeleteBug(db.DB, id)
	if err != nil {
		if errors.Is(err, services.ErrBugNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Bug not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete bug")
	}

	services.RecordOperation(db.DB, user.Username, models.OperationDelete, bug,
		fmt.Sprintf("Deleted bug %s", bug.TCID))

	return c.JSON(http.StatusOK, map[string]string{"message": "Bug deleted"})
}

// notifyTester emails the assigned tester when their account has an
// email on file and they are not the acting user
func notifyTester(c echo.Context, bug *models.Bug, actor string) {
	if bug.Tester == "" || bug.Tester == actor {
		return
	}
	cfg, ok := c.Get("config").(*config.Config)
	if !ok {
		return
	}

	var tester models.User
	if err := db.DB.Where("username = ?", bug.Tester).First(&tester).Error; err != nil {
		return
	}
	if tester.Email == "" {
		return
	}

	services.SendEmailAsync(cfg, services.BuildAssignmentEmail(tester.Email, bug, actor))
}
