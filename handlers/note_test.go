package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"bug_track_app_go/db"
	"bug_track_app_go/models"
	"bug_track_app_go/services"

	"github.com/stretchr/testify/assert"
)

func TestAddCommentHandler(t *testing.T) {
	t.Run("Entry prepended in blob format", func(t *testing.T) {
		setupTestDB(t)
		user := makeUser(t, "alice", "")
		bug := makeBug(t)

		c, rec := newContext(t, http.MethodPost, "/api/bugs/"+bug.ID+"/comments",
			map[string]string{"text": "retested on build 42"})
		c.SetParamNames("id")
		c.SetParamValues(bug.ID)
		asUser(c, user)

		assert.NoError(t, AddCommentHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var updated models.Bug
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.True(t, strings.HasPrefix(updated.Notes, "["))
		assert.Contains(t, updated.Notes, "- alice]: retested on build 42")

		entries := services.ParseNotes(updated.Notes)
		assert.Len(t, entries, 1)
		assert.Equal(t, "alice", entries[0].Author)
	})

	t.Run("Logged as COMMENT not UPDATE", func(t *testing.T) {
		setupTestDB(t)
		user := makeUser(t, "alice", "")
		bug := makeBug(t)

		c, _ := newContext(t, http.MethodPost, "/api/bugs/"+bug.ID+"/comments",
			map[string]string{"text": "note"})
		c.SetParamNames("id")
		c.SetParamValues(bug.ID)
		asUser(c, user)
		assert.NoError(t, AddCommentHandler(c))

		var entries []models.OperationLog
		assert.NoError(t, db.DB.Find(&entries).Error)
		assert.Len(t, entries, 1)
		assert.Equal(t, models.OperationComment, entries[0].Action)
	})

	t.Run("Blank text rejected", func(t *testing.T) {
		setupTestDB(t)
		user := makeUser(t, "alice", "")
		bug := makeBug(t)

		c, rec := newContext(t, http.MethodPost, "/api/bugs/"+bug.ID+"/comments",
			map[string]string{"text": "   "})
		c.SetParamNames("id")
		c.SetParamValues(bug.ID)
		asUser(c, user)

		err := AddCommentHandler(c)
		assert.Equal(t, http.StatusBadRequest, httpStatus(err, rec))
	})

	t.Run("Unknown bug", func(t *testing.T) {
		setupTestDB(t)
		user := makeUser(t, "alice", "")

		c, rec := newContext(t, http.MethodPost, "/api/bugs/missing/comments",
			map[string]string{"text": "note"})
		c.SetParamNames("id")
		c.SetParamValues("missing")
		asUser(c, user)

		err := AddCommentHandler(c)
		assert.Equal(t, http.StatusNotFound, httpStatus(err, rec))
	})
}

func TestDeleteCommentHandler(t *testing.T) {
	addComment := func(t *testing.T, user *models.User, bugID, text string) *models.Bug {
		t.Helper()
		c, rec := newContext(t, http.MethodPost, "/api/bugs/"+bugID+"/comments",
			map[string]string{"text": text})
		c.SetParamNames("id")
		c.SetParamValues(bugID)
		asUser(c, user)
		assert.NoError(t, AddCommentHandler(c))

		var updated models.Bug
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		return &updated
	}

	t.Run("Delete newest restores prior blob", func(t *testing.T) {
		setupTestDB(t)
		user := makeUser(t, "alice", "")
		bug := makeBug(t)

		first := addComment(t, user, bug.ID, "first comment")
		addComment(t, user, bug.ID, "second comment")

		c, rec := newContext(t, http.MethodDelete, "/api/bugs/"+bug.ID+"/comments/0", nil)
		c.SetParamNames("id", "index")
		c.SetParamValues(bug.ID, "0")
		asUser(c, user)

		assert.NoError(t, DeleteCommentHandler(c))

		var updated models.Bug
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, first.Notes, updated.Notes, "prior blob restored byte-for-byte")
	})

	t.Run("Index out of range", func(t *testing.T) {
		setupTestDB(t)
		user := makeUser(t, "alice", "")
		bug := makeBug(t)
		addComment(t, user, bug.ID, "only comment")

		c, rec := newContext(t, http.MethodDelete, "/api/bugs/"+bug.ID+"/comments/5", nil)
		c.SetParamNames("id", "index")
		c.SetParamValues(bug.ID, "5")
		asUser(c, user)

		err := DeleteCommentHandler(c)
		assert.Equal(t, http.StatusBadRequest, httpStatus(err, rec))
	})

	t.Run("Non-numeric index", func(t *testing.T) {
		setupTestDB(t)
		user := makeUser(t, "alice", "")
		bug := makeBug(t)

		c, rec := newContext(t, http.MethodDelete, "/api/bugs/"+bug.ID+"/comments/abc", nil)
		c.SetParamNames("id", "index")
		c.SetParamValues(bug.ID, "abc")
		asUser(c, user)

		err := DeleteCommentHandler(c)
		assert.Equal(t, http.StatusBadRequest, httpStatus(err, rec))
	})
}

func TestMeetingHandlers(t *testing.T) {
	setupTestDB(t)
	user := makeUser(t, "alice", "")
	bug := makeBug(t)

	c, rec := newContext(t, http.MethodPost, "/api/bugs/"+bug.ID+"/meetings",
		map[string]string{"text": "client sync notes"})
	c.SetParamNames("id")
	c.SetParamValues(bug.ID)
	asUser(c, user)

	assert.NoError(t, AddMeetingHandler(c))

	var updated models.Bug
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Contains(t, updated.Meetings, "client sync notes")
	assert.Empty(t, updated.Notes, "meetings and comments are separate logs")

	var entry models.OperationLog
	assert.NoError(t, db.DB.First(&entry).Error)
	assert.Equal(t, models.OperationMeeting, entry.Action)
}

func TestGetNotesHandler(t *testing.T) {
	setupTestDB(t)
	bug := makeBug(t)

	t.Run("Empty log returns empty array", func(t *testing.T) {
		c, rec := newContext(t, http.MethodGet, "/api/bugs/"+bug.ID+"/comments", nil)
		c.SetParamNames("id")
		c.SetParamValues(bug.ID)

		assert.NoError(t, GetNotesHandler(c))
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	})

	t.Run("Parsed entries", func(t *testing.T) {
		_, err := services.UpdateNoteBlob(db.DB, bug.ID, "notes",
			"[2025/01/02 10:00:00 - bob]: newer\n\n[2025/01/01 10:00:00 - alice]: older")
		assert.NoError(t, err)

		c, rec := newContext(t, http.MethodGet, "/api/bugs/"+bug.ID+"/comments", nil)
		c.SetParamNames("id")
		c.SetParamValues(bug.ID)

		assert.NoError(t, GetNotesHandler(c))

		var entries []services.NoteEntry
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		assert.Len(t, entries, 2)
		assert.Equal(t, "bob", entries[0].Author)
		assert.Equal(t, "alice", entries[1].Author)
	})
}
