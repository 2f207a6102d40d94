package handlers

import (
	"net/http"

	"bug_track_app_go/db"
	"bug_track_app_go/services"

	"github.com/labstack/echo/v4"
)

type sheetImportRequest struct {
	SheetURL string `json:"sheet_url"`
}

// ImportGoogleSheetHandler downloads a Google Sheet and bulk-upserts
// bugs by TCID. Partial success is expected: the response carries
// per-row outcome counts rather than failing atomically.
func ImportGoogleSheetHandler(c echo.Context) error {
	var req sheetImportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.SheetURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sheet_url is required")
	}

	reader, err := services.FetchGoogleSheet(c.Request().Context(), req.SheetURL)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	result, err := services.ImportWorkbook(db.DB, reader)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, result)
}

// ImportWorkbookHandler runs the same bulk upsert from a directly
// uploaded .xlsx file
func ImportWorkbookHandler(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file upload")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read uploaded file")
	}
	defer file.Close()

	result, err := services.ImportWorkbook(db.DB, file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, result)
}
