package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bug_track_app_go/db"
	"bug_track_app_go/middleware"
	"bug_track_app_go/models"
	"bug_track_app_go/services"

	"github.com/labstack/echo/v4"
)

// Comments and meeting notes are modeled as single-field updates on
// the bug record. They return the full updated record and log
// COMMENT/MEETING instead of UPDATE, so the operation log stays free
// of comment noise.

type noteRequest struct {
	Text string `json:"text"`
}

// AddCommentHandler prepends a comment entry to a bug's notes
func AddCommentHandler(c echo.Context) error {
	return addNote(c, "notes", models.OperationComment)
}

// DeleteCommentHandler removes the comment entry at the given index
func DeleteCommentHandler(c echo.Context) error {
	return deleteNote(c, "notes", models.OperationComment)
}

// AddMeetingHandler prepends a meeting note to a bug's meetings log
func AddMeetingHandler(c echo.Context) error {
	return addNote(c, "meetings", models.OperationMeeting)
}

// DeleteMeetingHandler removes the meeting entry at the given index
func DeleteMeetingHandler(c echo.Context) error {
	return deleteNote(c, "meetings", models.OperationMeeting)
}

func addNote(c echo.Context, column string, op models.Operation) error {
	user := middleware.GetCurrentUser(c)
	id := c.Param("id")

	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text: is required and must not be blank")
	}

	bug, err := services.GetBug(db.DB, id)
	if err != nil {
		if errors.Is(err, services.ErrBugNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Bug not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch bug")
	}

	blob := bug.Notes
	if column == "meetings" {
		blob = bug.Meetings
	}
	blob = services.PrependNote(blob, user.Username, req.Text, time.Now())

	updated, err := services.UpdateNoteBlob(db.DB, id, column, blob)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save entry")
	}

	services.RecordOperation(db.DB, user.Username, op, updated,
		fmt.Sprintf("Added %s entry", column))

	return c.JSON(http.StatusOK, updated)
}

func deleteNote(c echo.Context, column string, op models.Operation) error {
	user := middleware.GetCurrentUser(c)
	id := c.Param("id")

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "index must be a non-negative integer")
	}

	bug, err := services.GetBug(db.DB, id)
	if err != nil {
		if errors.Is(err, services.ErrBugNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Bug not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch bug")
	}

	blob := bug.Notes
	if column == "meetings" {
		blob = bug.Meetings
	}

	blob, err = services.DeleteNoteAt(blob, index)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := services.UpdateNoteBlob(db.DB, id, column, blob)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save entry")
	}

	services.RecordOperation(db.DB, user.Username, op, updated,
		fmt.Sprintf("Removed %s entry %d", column, index))

	return c.JSON(http.StatusOK, updated)
}

// GetNotesHandler returns a bug's comments parsed into ordered entries
func GetNotesHandler(c echo.Context) error {
	return getNotes(c, "notes")
}

// GetMeetingsHandler returns a bug's meeting notes as ordered entries
func GetMeetingsHandler(c echo.Context) error {
	return getNotes(c, "meetings")
}

func getNotes(c echo.Context, column string) error {
	bug, err := services.GetBug(db.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrBugNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Bug not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch bug")
	}

	blob := bug.Notes
	if column == "meetings" {
		blob = bug.Meetings
	}

	entries := services.ParseNotes(blob)
	if entries == nil {
		entries = []services.NoteEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}
