package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bug status constants. Transitions are deliberately unconstrained:
// any status may be set from any other via an edit.
const (
	BugStatusClose           = "Close"
	BugStatusFail            = "Fail"
	BugStatusPending         = "Pending"
	BugStatusPass            = "Pass"
	BugStatusClientComments  = "Client Comments"
	BugStatusReadyForTest    = "Ready for Test"
	BugStatusReadyForPIMS    = "Ready for PIMS"
	BugStatusNotReadyForPIMS = "Not Ready for PIMS"
)

// DateLayout is the display form bug dates are stored in.
// Dates are stored and compared as strings, not time values.
const DateLayout = "2006/01/02"

var tcidPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Bug represents one test/bug entry
type Bug struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`

	Status string `gorm:"not null;default:Not Ready for PIMS;index" json:"status"`
	TCID   string `gorm:"column:tcid;not null;index" json:"tcid"`
	Pims   string `gorm:"index" json:"pims"` // External tracker reference, conventionally prefixed PIMS-
	Tester string `gorm:"not null;index" json:"tester"`
	Date   string `gorm:"not null" json:"date"`
	Stage  string `gorm:"not null;index" json:"stage"`

	ProductCustomerLikelihood string `gorm:"not null" json:"product_customer_likelihood"`
	TestCaseName              string `gorm:"not null" json:"test_case_name"`

	Chinese string `json:"chinese"`
	Title   string `gorm:"not null" json:"title"`

	SystemInformation string `gorm:"type:text" json:"system_information"`
	Description       string `gorm:"type:text" json:"description"`

	// Newline-separated list of quoted evidence file paths
	Link string `gorm:"type:text" json:"link"`

	// Append-only logs: entries formatted "[<timestamp> - <user>]: <text>",
	// delimited by a blank line, newest first. See services notelog.
	Notes    string `gorm:"type:text" json:"notes"`
	Meetings string `gorm:"type:text" json:"meetings"`
}

// BeforeCreate hook to generate UUID
func (b *Bug) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Bug model
func (Bug) TableName() string {
	return "bugs"
}

// HasPims reports whether the bug has been filed in the external tracker
func (b *Bug) HasPims() bool {
	return strings.TrimSpace(b.Pims) != ""
}

// IsValidBugStatus checks if the status is a known value
func IsValidBugStatus(status string) bool {
	validStatuses := []string{
		BugStatusClose,
		BugStatusFail,
		BugStatusPending,
		BugStatusPass,
		BugStatusClientComments,
		BugStatusReadyForTest,
		BugStatusReadyForPIMS,
		BugStatusNotReadyForPIMS,
	}
	for _, s := range validStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ValidationError reports a failed field-level constraint
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the required-field constraints for create/update.
// No document is ever persisted when validation fails.
func (b *Bug) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"tcid", b.TCID},
		{"tester", b.Tester},
		{"date", b.Date},
		{"stage", b.Stage},
		{"product_customer_likelihood", b.ProductCustomerLikelihood},
		{"test_case_name", b.TestCaseName},
		{"title", b.Title},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: "is required and must not be blank"}
		}
	}

	if !tcidPattern.MatchString(strings.TrimSpace(b.TCID)) {
		return &ValidationError{Field: "tcid", Message: "may only contain letters, digits, '.', '_' and '-'"}
	}

	if b.Status != "" && !IsValidBugStatus(b.Status) {
		return &ValidationError{Field: "status", Message: "is not a known status"}
	}

	return nil
}
