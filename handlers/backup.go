package handlers

import (
	"fmt"
	"net/http"
	"time"

	"bug_track_app_go/db"
	"bug_track_app_go/services"

	"github.com/labstack/echo/v4"
)

// BackupHandler streams a zipped export of the bugs and operation log
// tables (Excel workbook plus raw JSON dumps)
func BackupHandler(c echo.Context) error {
	buf, err := services.BuildBackupArchive(db.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build backup archive")
	}

	filename := services.BackupFileName(time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, filename))

	return c.Blob(http.StatusOK, "application/zip", buf.Bytes())
}
