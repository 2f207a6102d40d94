package services

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"bug_track_app_go/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var bugSheetHeader = []string{
	"status", "tcid", "pims", "tester", "date", "stage",
	"product_customer_likelihood", "test_case_name", "chinese", "title",
	"system_information", "description", "link", "notes", "meetings",
	"createdAt", "updatedAt",
}

// BuildBackupArchive exports both tables into a zip containing an
// Excel workbook (one sheet per table) and raw JSON dumps
func BuildBackupArchive(db *gorm.DB) (*bytes.Buffer, error) {
	var bugs []models.Bug
	if err := db.Order("updated_at DESC").Find(&bugs).Error; err != nil {
		return nil, fmt.Errorf("failed to read bugs for backup: %w", err)
	}

	var entries []models.OperationLog
	if err := db.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to read operation log for backup: %w", err)
	}

	workbook, err := buildWorkbook(bugs, entries)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	files := []struct {
		name string
		data func() ([]byte, error)
	}{
		{"backup.xlsx", func() ([]byte, error) { return workbook.Bytes(), nil }},
		{"bugs.json", func() ([]byte, error) { return json.MarshalIndent(bugs, "", "  ") }},
		{"operation_logs.json", func() ([]byte, error) { return json.MarshalIndent(entries, "", "  ") }},
	}

	for _, file := range files {
		data, err := file.data()
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", file.name, err)
		}
		w, err := zw.Create(file.name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", file.name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf, nil
}

// BackupFileName returns a timestamped name for the export
func BackupFileName(now time.Time) string {
	return fmt.Sprintf("bugtrack-backup-%s.zip", now.Format("20060102-150405"))
}

func buildWorkbook(bugs []models.Bug, entries []models.OperationLog) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Bugs")
	writeRow(f, "Bugs", 1, bugSheetHeader)
	for i, b := range bugs {
		writeRow(f, "Bugs", i+2, []string{
			b.Status, b.TCID, b.Pims, b.Tester, b.Date, b.Stage,
			b.ProductCustomerLikelihood, b.TestCaseName, b.Chinese, b.Title,
			b.SystemInformation, b.Description, b.Link, b.Notes, b.Meetings,
			b.CreatedAt.Format(time.RFC3339), b.UpdatedAt.Format(time.RFC3339),
		})
	}

	f.NewSheet("Operation Log")
	writeRow(f, "Operation Log", 1, []string{
		"timestamp", "user", "operation", "target", "targetTitle", "details",
		"pims", "tester", "date", "tcid",
	})
	for i, e := range entries {
		writeRow(f, "Operation Log", i+2, []string{
			e.CreatedAt.Format(time.RFC3339), e.User, string(e.Action),
			e.Target, e.TargetTitle, e.Details,
			e.BugPims, e.BugTester, e.BugDate, e.BugTCID,
		})
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle("Bugs", "A1", "Q1", headerStyle)
	f.SetCellStyle("Operation Log", "A1", "J1", headerStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}
