package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Operation represents the type of action recorded in the log
type Operation string

const (
	OperationCreate  Operation = "CREATE"
	OperationUpdate  Operation = "UPDATE"
	OperationDelete  Operation = "DELETE"
	OperationComment Operation = "COMMENT"
	OperationMeeting Operation = "MEETING"
	OperationCopy    Operation = "COPY"
)

// IsValidOperation checks if the operation is a known value
func IsValidOperation(op Operation) bool {
	switch op {
	case OperationCreate, OperationUpdate, OperationDelete,
		OperationComment, OperationMeeting, OperationCopy:
		return true
	}
	return false
}

// OperationLog is an immutable audit trail row. One entry is appended
// per mutating API call; entries are never updated or deleted and
// retention is unbounded.
type OperationLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_oplog_created_at" json:"timestamp"`

	User   string    `gorm:"column:user;not null;index:idx_oplog_user" json:"user"`
	Action Operation `gorm:"column:operation;not null;index:idx_oplog_operation" json:"operation"`

	// Target bug. Title is denormalized so the entry survives deletion.
	Target      string `gorm:"type:uuid;not null;index:idx_oplog_target" json:"target"`
	TargetTitle string `json:"targetTitle"`
	Details     string `gorm:"type:text" json:"details"`

	// Snapshot of the bug at the time of the operation
	BugPims   string `json:"bug_pims"`
	BugTester string `json:"bug_tester"`
	BugDate   string `json:"bug_date"`
	BugTCID   string `gorm:"column:bug_tcid" json:"bug_tcid"`
}

// BeforeCreate generates the entry ID
func (o *OperationLog) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate prevents modification of log entries (immutability)
func (o *OperationLog) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}

// BeforeDelete prevents deletion of log entries (immutability)
func (o *OperationLog) BeforeDelete(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}

// TableName specifies the table name
func (OperationLog) TableName() string {
	return "operation_logs"
}
