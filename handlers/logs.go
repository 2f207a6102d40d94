package handlers

import (
	"net/http"
	"strconv"

	"bug_track_app_go/db"
	"bug_track_app_go/middleware"
	"bug_track_app_go/models"
	"bug_track_app_go/services"

	"github.com/labstack/echo/v4"
)

// GetLogsHandler returns operation log entries, newest first
func GetLogsHandler(c echo.Context) error {
	limit := 100
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := services.ListOperations(db.DB, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch operation log")
	}

	return c.JSON(http.StatusOK, entries)
}

type logRequest struct {
	Operation   models.Operation `json:"operation"`
	Target      string           `json:"target"`
	TargetTitle string           `json:"targetTitle"`
	Details     string           `json:"details"`
	BugPims     string           `json:"bug_pims"`
	BugTester   string           `json:"bug_tester"`
	BugDate     string           `json:"bug_date"`
	BugTCID     string           `json:"bug_tcid"`
}

// CreateLogHandler appends a client-driven log entry. The Copy
// composite uses this to record COPY against the new record; the
// acting user always comes from the session, never the payload.
func CreateLogHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	var req logRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	entry := &models.OperationLog{
		User:        user.Username,
		Action:      req.Operation,
		Target:      req.Target,
		TargetTitle: req.TargetTitle,
		Details:     req.Details,
		BugPims:     req.BugPims,
		BugTester:   req.BugTester,
		BugDate:     req.BugDate,
		BugTCID:     req.BugTCID,
	}

	if err := services.AppendLogEntry(db.DB, entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, entry)
}
