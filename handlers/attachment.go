package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"bug_track_app_go/db"
	"bug_track_app_go/middleware"
	"bug_track_app_go/models"
	"bug_track_app_go/services"

	"github.com/labstack/echo/v4"
)

// UploadAttachmentHandler stores an evidence file for a bug and
// appends its quoted path to the bug's link field
func UploadAttachmentHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	id := c.Param("id")

	bug, err := services.GetBug(db.DB, id)
	if err != nil {
		if errors.Is(err, services.ErrBugNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Bug not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch bug")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file upload")
	}

	key := services.AttachmentKey(bug.ID, fileHeader.Filename)
	result, err := services.Storage.Upload(c.Request().Context(), fileHeader, key)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store attachment")
	}

	// The link field is a newline-separated list of quoted paths
	entry := fmt.Sprintf("%q", result.Key)
	if bug.Link != "" {
		bug.Link += "\n"
	}
	bug.Link += entry

	if err := services.SaveBug(db.DB, bug); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update bug link")
	}

	services.RecordOperation(db.DB, user.Username, models.OperationUpdate, bug,
		fmt.Sprintf("Attached %s", result.FileName))

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"key":  result.Key,
		"size": result.FileSize,
		"url":  result.URL,
		"bug":  bug,
	})
}
