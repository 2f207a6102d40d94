package services

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"bug_track_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func TestBuildBackupArchive(t *testing.T) {
	testDB := setupTestDB(t)

	bug := validBug()
	assert.NoError(t, CreateBug(testDB, bug))
	assert.NotNil(t, RecordOperation(testDB, "alice", models.OperationCreate, bug, ""))

	buf, err := BuildBackupArchive(testDB)
	assert.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.NoError(t, err)

	names := make(map[string][]byte, len(zr.File))
	for _, zf := range zr.File {
		rc, err := zf.Open()
		assert.NoError(t, err)
		var content bytes.Buffer
		_, err = content.ReadFrom(rc)
		assert.NoError(t, err)
		rc.Close()
		names[zf.Name] = content.Bytes()
	}

	assert.Contains(t, names, "backup.xlsx")
	assert.Contains(t, names, "bugs.json")
	assert.Contains(t, names, "operation_logs.json")

	t.Run("Workbook reopens with both sheets", func(t *testing.T) {
		f, err := excelize.OpenReader(bytes.NewReader(names["backup.xlsx"]))
		assert.NoError(t, err)
		defer f.Close()

		assert.ElementsMatch(t, []string{"Bugs", "Operation Log"}, f.GetSheetList())

		rows, err := f.GetRows("Bugs")
		assert.NoError(t, err)
		assert.Len(t, rows, 2)
		assert.Equal(t, "status", rows[0][0])
		assert.Equal(t, "T-1", rows[1][1])

		logRows, err := f.GetRows("Operation Log")
		assert.NoError(t, err)
		assert.Len(t, logRows, 2)
		assert.Equal(t, "CREATE", logRows[1][2])
	})

	t.Run("JSON dumps decode", func(t *testing.T) {
		var bugs []models.Bug
		assert.NoError(t, json.Unmarshal(names["bugs.json"], &bugs))
		assert.Len(t, bugs, 1)
		assert.Equal(t, bug.ID, bugs[0].ID)

		var entries []models.OperationLog
		assert.NoError(t, json.Unmarshal(names["operation_logs.json"], &entries))
		assert.Len(t, entries, 1)
		assert.Equal(t, models.OperationCreate, entries[0].Action)
	})
}

func TestBackupFileName(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, "bugtrack-backup-20250314-092653.zip", BackupFileName(at))
}
