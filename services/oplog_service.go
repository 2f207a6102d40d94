package services

import (
	"fmt"
	"log"

	"bug_track_app_go/models"

	"gorm.io/gorm"
)

// RecordOperation appends an entry to the operation log. Entries are
// written synchronously so the trail exists as soon as the mutating
// call returns; a write failure is logged but never fails the
// operation it describes.
func RecordOperation(db *gorm.DB, user string, action models.Operation, bug *models.Bug, details string) *models.OperationLog {
	entry := &models.OperationLog{
		User:    user,
		Action:  action,
		Details: details,
	}
	if bug != nil {
		entry.Target = bug.ID
		entry.TargetTitle = bug.Title
		entry.BugPims = bug.Pims
		entry.BugTester = bug.Tester
		entry.BugDate = bug.Date
		entry.BugTCID = bug.TCID
	}

	if err := db.Create(entry).Error; err != nil {
		log.Printf("[OPLOG] Failed to record %s on %s: %v", action, entry.Target, err)
		return nil
	}
	return entry
}

// AppendLogEntry persists a client-supplied log entry (used for the
// client-composite COPY operation)
func AppendLogEntry(db *gorm.DB, entry *models.OperationLog) error {
	if !models.IsValidOperation(entry.Action) {
		return fmt.Errorf("unknown operation %q", entry.Action)
	}
	if entry.User == "" || entry.Target == "" {
		return fmt.Errorf("log entry requires user and target")
	}
	if err := db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

// ListOperations returns the newest log entries, most recent first
func ListOperations(db *gorm.DB, limit int) ([]models.OperationLog, error) {
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	var entries []models.OperationLog
	err := db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch operation log: %w", err)
	}
	return entries, nil
}
