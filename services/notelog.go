package services

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Comment and meeting logs are stored as a single text blob per bug.
// Entries are formatted "[<timestamp> - <user>]: <text>", delimited by
// a blank line, newest first. The blob is the persisted representation;
// NoteEntry gives callers explicit array semantics over it.

const (
	// NoteEntrySeparator delimits entries inside a note blob
	NoteEntrySeparator = "\n\n"
	// NoteTimestampLayout is the timestamp format used in entry headers
	NoteTimestampLayout = "2006/01/02 15:04:05"
)

var noteEntryPattern = regexp.MustCompile(`(?s)^\[(.+?) - (.+?)\]: (.*)$`)

// newlineRun matches the runs that would collide with NoteEntrySeparator
var newlineRun = regexp.MustCompile(`\n{2,}`)

// strictPolicy strips all markup from free text before it is persisted
var strictPolicy = bluemonday.StrictPolicy()

// NoteEntry is one parsed comment or meeting note
type NoteEntry struct {
	Timestamp string `json:"timestamp"`
	Author    string `json:"author"`
	Text      string `json:"text"`
}

// SanitizeText strips markup from user-supplied free text. The
// stripped output is unescaped again because the stored value is
// plain text, not HTML: a literal "Q&A" must survive the round trip.
func SanitizeText(text string) string {
	return html.UnescapeString(strictPolicy.Sanitize(text))
}

// FormatNoteEntry renders a single entry in the blob format
func FormatNoteEntry(author, text string, at time.Time) string {
	return fmt.Sprintf("[%s - %s]: %s", at.Format(NoteTimestampLayout), author, text)
}

// PrependNote adds a new entry to the front of a note blob.
// Blank lines inside the text are collapsed so a single entry can
// never contain the separator. The prior blob is preserved
// byte-for-byte after the separator, so a later delete at index 0
// restores it exactly.
func PrependNote(blob, author, text string, at time.Time) string {
	text = newlineRun.ReplaceAllString(SanitizeText(text), "\n")
	entry := FormatNoteEntry(author, text, at)
	if blob == "" {
		return entry
	}
	return entry + NoteEntrySeparator + blob
}

// DeleteNoteAt removes entry i from a note blob and rejoins the rest
func DeleteNoteAt(blob string, i int) (string, error) {
	if strings.TrimSpace(blob) == "" {
		return "", fmt.Errorf("note log is empty")
	}

	entries := strings.Split(blob, NoteEntrySeparator)
	if i < 0 || i >= len(entries) {
		return "", fmt.Errorf("note index %d out of range (have %d entries)", i, len(entries))
	}

	entries = append(entries[:i], entries[i+1:]...)
	return strings.Join(entries, NoteEntrySeparator), nil
}

// ParseNotes splits a note blob into ordered entries, newest first.
// Blocks that do not match the entry header are kept verbatim with
// empty timestamp/author so legacy data is never dropped.
func ParseNotes(blob string) []NoteEntry {
	if strings.TrimSpace(blob) == "" {
		return nil
	}

	blocks := strings.Split(blob, NoteEntrySeparator)
	entries := make([]NoteEntry, 0, len(blocks))
	for _, block := range blocks {
		if m := noteEntryPattern.FindStringSubmatch(block); m != nil {
			entries = append(entries, NoteEntry{Timestamp: m[1], Author: m[2], Text: m[3]})
			continue
		}
		entries = append(entries, NoteEntry{Text: block})
	}
	return entries
}
