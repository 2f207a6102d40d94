package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"bug_track_app_go/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ImportResult contains the summary of a bulk import.
// The importer is best-effort: a failed row never rolls back others.
type ImportResult struct {
	TotalRows int      `json:"totalRows"`
	Imported  int      `json:"imported"`
	Updated   int      `json:"updated"`
	Errors    int      `json:"errors"`
	Details   []string `json:"error_details,omitempty"`
}

var sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([A-Za-z0-9_-]+)`)

// sheetDownloadTimeout bounds the Google export fetch
const sheetDownloadTimeout = 30 * time.Second

// FetchGoogleSheet downloads a Google Sheet as an xlsx export.
// Accepts either a full sheet URL or a bare spreadsheet id.
func FetchGoogleSheet(ctx context.Context, sheetURL string) (io.Reader, error) {
	id := strings.TrimSpace(sheetURL)
	if m := sheetIDPattern.FindStringSubmatch(sheetURL); m != nil {
		id = m[1]
	}
	if id == "" {
		return nil, fmt.Errorf("sheet url is empty; provide a Google Sheets link or spreadsheet id")
	}

	exportURL := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=xlsx", id)

	ctx, cancel := context.WithTimeout(ctx, sheetDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download sheet (check network and that the sheet is shared): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet download returned %d (is the sheet shared as 'anyone with the link'?)", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet export: %w", err)
	}
	return bytes.NewReader(data), nil
}

// ImportWorkbook parses an xlsx workbook and upserts one bug per row,
// keyed by TCID. The first sheet is read; the first row is the header.
// Rows missing tcid or pims count as errors, as do rows failing the
// record validation rules.
func ImportWorkbook(db *gorm.DB, file io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	columns := headerIndex(rows[0])
	result := &ImportResult{}

	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after header

		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		// Skip fully empty rows
		empty := true
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		result.TotalRows++

		tcid := cell("tcid")
		pims := cell("pims")
		if tcid == "" {
			result.Errors++
			result.Details = append(result.Details, fmt.Sprintf("Row %d: missing tcid (upsert key)", rowNum))
			continue
		}
		if pims == "" {
			result.Errors++
			result.Details = append(result.Details, fmt.Sprintf("Row %d: missing pims", rowNum))
			continue
		}

		incoming := models.Bug{
			Status:                    cell("status"),
			TCID:                      tcid,
			Pims:                      pims,
			Tester:                    cell("tester"),
			Date:                      cell("date"),
			Stage:                     cell("stage"),
			ProductCustomerLikelihood: cell("product_customer_likelihood"),
			TestCaseName:              cell("test_case_name"),
			Chinese:                   cell("chinese"),
			Title:                     cell("title"),
			SystemInformation:         cell("system_information"),
			Description:               cell("description"),
			Link:                      cell("link"),
		}
		if incoming.Status == "" {
			incoming.Status = models.BugStatusNotReadyForPIMS
		}

		var existing models.Bug
		err := db.Where("tcid = ?", tcid).First(&existing).Error
		switch {
		case err == nil:
			incoming.ID = existing.ID
			incoming.CreatedAt = existing.CreatedAt
			incoming.Notes = existing.Notes
			incoming.Meetings = existing.Meetings
			if saveErr := SaveBug(db, &incoming); saveErr != nil {
				result.Errors++
				result.Details = append(result.Details, fmt.Sprintf("Row %d: %v", rowNum, saveErr))
				continue
			}
			result.Updated++
		case err == gorm.ErrRecordNotFound:
			if createErr := CreateBug(db, &incoming); createErr != nil {
				result.Errors++
				result.Details = append(result.Details, fmt.Sprintf("Row %d: %v", rowNum, createErr))
				continue
			}
			result.Imported++
		default:
			result.Errors++
			result.Details = append(result.Details, fmt.Sprintf("Row %d: database error: %v", rowNum, err))
		}
	}

	return result, nil
}

// headerIndex maps normalized header names to column positions.
// "Test Case Name" and "test_case_name" resolve to the same key.
func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		if key != "" {
			columns[key] = i
		}
	}
	return columns
}
