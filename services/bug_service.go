package services

import (
	"errors"
	"fmt"
	"strings"

	"bug_track_app_go/models"

	"gorm.io/gorm"
)

// ErrBugNotFound is returned when a bug id does not exist
var ErrBugNotFound = errors.New("bug not found")

// BugFilters holds the query parameters for listing bugs
type BugFilters struct {
	Search    string
	Pims      string
	Tester    string
	Status    string
	Stage     string
	StartDate string // YYYY/MM/DD, inclusive
	EndDate   string // YYYY/MM/DD, inclusive
}

// buildBugQuery applies the filters to a bugs query.
// Bug dates are stored as zero-padded YYYY/MM/DD strings, so the date
// range is a plain string comparison.
func buildBugQuery(db *gorm.DB, f BugFilters) *gorm.DB {
	query := db.Model(&models.Bug{})

	if f.Pims != "" {
		query = query.Where("pims = ?", f.Pims)
	}
	if f.Tester != "" {
		query = query.Where("tester = ?", f.Tester)
	}
	if f.Status != "" && models.IsValidBugStatus(f.Status) {
		query = query.Where("status = ?", f.Status)
	}
	if f.Stage != "" {
		query = query.Where("stage = ?", f.Stage)
	}
	if f.StartDate != "" {
		query = query.Where("date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		query = query.Where("date <= ?", f.EndDate)
	}

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where(
			db.Where("tcid LIKE ?", pattern).
				Or("title LIKE ?", pattern).
				Or("chinese LIKE ?", pattern).
				Or("pims LIKE ?", pattern).
				Or("tester LIKE ?", pattern).
				Or("test_case_name LIKE ?", pattern).
				Or("description LIKE ?", pattern),
		)
	}

	return query
}

// ListBugs returns the matching bugs plus the total match count.
// Canonical order is updated_at descending; all=true disables
// pagination and returns the complete matching set.
func ListBugs(db *gorm.DB, f BugFilters, page, limit int, all bool) ([]models.Bug, int64, error) {
	query := buildBugQuery(db, f)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bugs: %w", err)
	}

	query = query.Order("updated_at DESC")
	if !all {
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 20
		}
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	var bugs []models.Bug
	if err := query.Find(&bugs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch bugs: %w", err)
	}

	return bugs, total, nil
}

// GetBug fetches a single bug by id
func GetBug(db *gorm.DB, id string) (*models.Bug, error) {
	var bug models.Bug
	if err := db.First(&bug, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBugNotFound
		}
		return nil, fmt.Errorf("failed to fetch bug: %w", err)
	}
	return &bug, nil
}

// CreateBug validates and persists a new bug record.
// Validation failure leaves nothing persisted.
func CreateBug(db *gorm.DB, bug *models.Bug) error {
	normalizeBug(bug)
	if bug.Status == "" {
		bug.Status = models.BugStatusNotReadyForPIMS
	}
	if err := bug.Validate(); err != nil {
		return err
	}
	if err := db.Create(bug).Error; err != nil {
		return fmt.Errorf("failed to create bug: %w", err)
	}
	return nil
}

// SaveBug validates and persists changes to an existing bug record
func SaveBug(db *gorm.DB, bug *models.Bug) error {
	normalizeBug(bug)
	if err := bug.Validate(); err != nil {
		return err
	}
	if err := db.Save(bug).Error; err != nil {
		return fmt.Errorf("failed to save bug: %w", err)
	}
	return nil
}

// UpdateNoteBlob updates the notes or meetings column of a bug and
// returns the full updated record. The column name is constrained by
// the callers (comment/meeting handlers), never user input.
func UpdateNoteBlob(db *gorm.DB, id, column, blob string) (*models.Bug, error) {
	bug, err := GetBug(db, id)
	if err != nil {
		return nil, err
	}
	if err := db.Model(bug).Update(column, blob).Error; err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", column, err)
	}
	return GetBug(db, id)
}

// DeleteBug permanently removes a bug record (no soft delete)
func DeleteBug(db *gorm.DB, id string) (*models.Bug, error) {
	bug, err := GetBug(db, id)
	if err != nil {
		return nil, err
	}
	if err := db.Delete(bug).Error; err != nil {
		return nil, fmt.Errorf("failed to delete bug: %w", err)
	}
	return bug, nil
}

// normalizeBug trims identity fields and strips markup from free text
func normalizeBug(bug *models.Bug) {
	bug.TCID = strings.TrimSpace(bug.TCID)
	bug.Tester = strings.TrimSpace(bug.Tester)
	bug.Pims = strings.TrimSpace(bug.Pims)
	bug.Stage = strings.TrimSpace(bug.Stage)
	bug.SystemInformation = SanitizeText(bug.SystemInformation)
	bug.Description = SanitizeText(bug.Description)
}
