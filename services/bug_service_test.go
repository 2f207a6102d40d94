package services

import (
	"fmt"
	"testing"
	"time"

	"bug_track_app_go/models"

	"github.com/stretchr/testify/assert"
)

func TestCreateBug(t *testing.T) {
	t.Run("Valid bug", func(t *testing.T) {
		testDB := setupTestDB(t)
		bug := validBug()

		err := CreateBug(testDB, bug)
		assert.NoError(t, err)
		assert.NotEmpty(t, bug.ID)

		stored, err := GetBug(testDB, bug.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Bug A", stored.Title)
	})

	t.Run("Default status", func(t *testing.T) {
		testDB := setupTestDB(t)
		bug := validBug()
		bug.Status = ""

		err := CreateBug(testDB, bug)
		assert.NoError(t, err)
		assert.Equal(t, models.BugStatusNotReadyForPIMS, bug.Status)
	})

	t.Run("Missing required fields persist nothing", func(t *testing.T) {
		cases := []struct {
			field  string
			mutate func(*models.Bug)
		}{
			{"tcid", func(b *models.Bug) { b.TCID = "" }},
			{"tester", func(b *models.Bug) { b.Tester = "   " }},
			{"date", func(b *models.Bug) { b.Date = "" }},
			{"stage", func(b *models.Bug) { b.Stage = "" }},
			{"product_customer_likelihood", func(b *models.Bug) { b.ProductCustomerLikelihood = "" }},
			{"test_case_name", func(b *models.Bug) { b.TestCaseName = "" }},
			{"title", func(b *models.Bug) { b.Title = "" }},
		}

		for _, tc := range cases {
			t.Run(tc.field, func(t *testing.T) {
				testDB := setupTestDB(t)
				bug := validBug()
				tc.mutate(bug)

				err := CreateBug(testDB, bug)
				assert.Error(t, err)

				var verr *models.ValidationError
				assert.ErrorAs(t, err, &verr)
				assert.Equal(t, tc.field, verr.Field)

				var count int64
				testDB.Model(&models.Bug{}).Count(&count)
				assert.Equal(t, int64(0), count, "nothing should be persisted on validation failure")
			})
		}
	})

	t.Run("Malformed tcid", func(t *testing.T) {
		testDB := setupTestDB(t)
		bug := validBug()
		bug.TCID = "T 1/bad"

		err := CreateBug(testDB, bug)
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "tcid", verr.Field)
	})

	t.Run("Unknown status", func(t *testing.T) {
		testDB := setupTestDB(t)
		bug := validBug()
		bug.Status = "Escalated"

		err := CreateBug(testDB, bug)
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "status", verr.Field)
	})

	t.Run("Identity fields trimmed", func(t *testing.T) {
		testDB := setupTestDB(t)
		bug := validBug()
		bug.TCID = "  T-1  "
		bug.Pims = " PIMS-100 "

		err := CreateBug(testDB, bug)
		assert.NoError(t, err)
		assert.Equal(t, "T-1", bug.TCID)
		assert.Equal(t, "PIMS-100", bug.Pims)
	})
}

func TestListBugs(t *testing.T) {
	t.Run("Ordered by updated_at descending", func(t *testing.T) {
		testDB := setupTestDB(t)

		for i := 0; i < 3; i++ {
			bug := validBug()
			bug.TCID = fmt.Sprintf("T-%d", i+1)
			assert.NoError(t, CreateBug(testDB, bug))
			// Force distinct updated_at values, bypassing the auto timestamp
			at := time.Now().Add(time.Duration(i) * time.Hour)
			testDB.Model(bug).UpdateColumn("updated_at", at)
		}

		bugs, total, err := ListBugs(testDB, BugFilters{}, 1, 20, false)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, bugs, 3)
		assert.Equal(t, "T-3", bugs[0].TCID)
		assert.Equal(t, "T-2", bugs[1].TCID)
		assert.Equal(t, "T-1", bugs[2].TCID)
	})

	t.Run("Pagination", func(t *testing.T) {
		testDB := setupTestDB(t)
		for i := 0; i < 5; i++ {
			bug := validBug()
			bug.TCID = fmt.Sprintf("T-%d", i+1)
			assert.NoError(t, CreateBug(testDB, bug))
		}

		page1, total, err := ListBugs(testDB, BugFilters{}, 1, 2, false)
		assert.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, page1, 2)

		page3, _, err := ListBugs(testDB, BugFilters{}, 3, 2, false)
		assert.NoError(t, err)
		assert.Len(t, page3, 1)
	})

	t.Run("All disables pagination", func(t *testing.T) {
		testDB := setupTestDB(t)
		for i := 0; i < 5; i++ {
			bug := validBug()
			bug.TCID = fmt.Sprintf("T-%d", i+1)
			assert.NoError(t, CreateBug(testDB, bug))
		}

		bugs, total, err := ListBugs(testDB, BugFilters{}, 1, 2, true)
		assert.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, bugs, 5)
	})

	t.Run("Equality filters", func(t *testing.T) {
		testDB := setupTestDB(t)

		a := validBug()
		a.Tester = "Alice"
		a.Status = models.BugStatusPass
		assert.NoError(t, CreateBug(testDB, a))

		b := validBug()
		b.TCID = "T-2"
		b.Tester = "Bob"
		b.Status = models.BugStatusFail
		b.Stage = "S2"
		assert.NoError(t, CreateBug(testDB, b))

		bugs, total, err := ListBugs(testDB, BugFilters{Tester: "Bob"}, 1, 20, false)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "T-2", bugs[0].TCID)

		bugs, _, err = ListBugs(testDB, BugFilters{Status: models.BugStatusPass}, 1, 20, false)
		assert.NoError(t, err)
		assert.Len(t, bugs, 1)
		assert.Equal(t, "Alice", bugs[0].Tester)

		bugs, _, err = ListBugs(testDB, BugFilters{Stage: "S2"}, 1, 20, false)
		assert.NoError(t, err)
		assert.Len(t, bugs, 1)
	})

	t.Run("Date range is a string comparison", func(t *testing.T) {
		testDB := setupTestDB(t)
		dates := []string{"2024/12/31", "2025/01/15", "2025/02/01"}
		for i, d := range dates {
			bug := validBug()
			bug.TCID = fmt.Sprintf("T-%d", i+1)
			bug.Date = d
			assert.NoError(t, CreateBug(testDB, bug))
		}

		bugs, _, err := ListBugs(testDB, BugFilters{StartDate: "2025/01/01", EndDate: "2025/01/31"}, 1, 20, false)
		assert.NoError(t, err)
		assert.Len(t, bugs, 1)
		assert.Equal(t, "2025/01/15", bugs[0].Date)

		bugs, _, err = ListBugs(testDB, BugFilters{StartDate: "2025/01/01"}, 1, 20, false)
		assert.NoError(t, err)
		assert.Len(t, bugs, 2)
	})

	t.Run("Search matches multiple columns", func(t *testing.T) {
		testDB := setupTestDB(t)

		a := validBug()
		a.Title = "login crash"
		assert.NoError(t, CreateBug(testDB, a))

		b := validBug()
		b.TCID = "T-2"
		b.Title = "Bug B"
		b.Description = "fails during login flow"
		assert.NoError(t, CreateBug(testDB, b))

		c := validBug()
		c.TCID = "T-3"
		c.Title = "Bug C"
		assert.NoError(t, CreateBug(testDB, c))

		_, total, err := ListBugs(testDB, BugFilters{Search: "login"}, 1, 20, false)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestGetBug(t *testing.T) {
	testDB := setupTestDB(t)

	_, err := GetBug(testDB, "no-such-id")
	assert.ErrorIs(t, err, ErrBugNotFound)
}

func TestDeleteBug(t *testing.T) {
	testDB := setupTestDB(t)
	bug := validBug()
	assert.NoError(t, CreateBug(testDB, bug))

	deleted, err := DeleteBug(testDB, bug.ID)
	assert.NoError(t, err)
	assert.Equal(t, bug.ID, deleted.ID)

	_, err = GetBug(testDB, bug.ID)
	assert.ErrorIs(t, err, ErrBugNotFound)

	_, err = DeleteBug(testDB, bug.ID)
	assert.ErrorIs(t, err, ErrBugNotFound)
}

func TestUpdateNoteBlob(t *testing.T) {
	testDB := setupTestDB(t)
	bug := validBug()
	assert.NoError(t, CreateBug(testDB, bug))

	updated, err := UpdateNoteBlob(testDB, bug.ID, "notes", "[2025/01/01 10:00:00 - Alice]: ok")
	assert.NoError(t, err)
	assert.Equal(t, "[2025/01/01 10:00:00 - Alice]: ok", updated.Notes)

	_, err = UpdateNoteBlob(testDB, "no-such-id", "notes", "x")
	assert.ErrorIs(t, err, ErrBugNotFound)
}
