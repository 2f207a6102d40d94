package client

import (
	"bug_track_app_go/models"
)

// PageSize is the fixed number of cards per page
const PageSize = 15

// Status-bar tiles. Clicking one applies an immediate client-side
// filter with no API round trip; clicking the active tile again
// clears it.
const (
	TileReadyForTest = models.BugStatusReadyForTest
	TileFail         = models.BugStatusFail
	TilePass         = models.BugStatusPass
	TileTotal        = "Total"
)

// Board holds the in-memory list state for one view: the
// deduplicated result set, the active tile filter, and a page
// position tracked independently for the unfiltered and filtered
// states so clearing a filter restores the prior page.
type Board struct {
	key         DedupKeyFunc
	currentUser string
	scopeToUser bool // general view scopes tiles to the current user's bugs

	bugs       []models.Bug // deduplicated, server order preserved
	activeTile string

	unfilteredPage int
	filteredPage   int
}

// NewBoard creates a view over an empty result set. The dedup
// strategy is fixed per view; scopeToUser selects whether tile
// filters cover only the current user's bugs (general view) or all
// bugs (Jira-update view).
func NewBoard(key DedupKeyFunc, currentUser string, scopeToUser bool) *Board {
	return &Board{
		key:            key,
		currentUser:    currentUser,
		scopeToUser:    scopeToUser,
		unfilteredPage: 1,
		filteredPage:   1,
	}
}

// SetBugs replaces the working set with a fresh (deduplicated) fetch
// and resets both page positions
func (b *Board) SetBugs(bugs []models.Bug) {
	b.bugs = Deduplicate(bugs, b.key)
	b.unfilteredPage = 1
	b.filteredPage = 1
}

// Bugs returns the full deduplicated working set
func (b *Board) Bugs() []models.Bug {
	return b.bugs
}

// Upsert patches one record in place after a mutation, avoiding a
// refetch. Unknown records are prepended (they are the newest by
// updatedAt).
func (b *Board) Upsert(bug models.Bug) {
	for i := range b.bugs {
		if b.bugs[i].ID == bug.ID {
			b.bugs[i] = bug
			return
		}
	}
	b.bugs = append([]models.Bug{bug}, b.bugs...)
	b.bugs = Deduplicate(b.bugs, b.key)
}

// Remove drops a deleted record from the working set
func (b *Board) Remove(id string) {
	for i := range b.bugs {
		if b.bugs[i].ID == id {
			b.bugs = append(b.bugs[:i], b.bugs[i+1:]...)
			return
		}
	}
}

// ToggleTile activates a tile filter, or clears it when the same
// tile is already active
func (b *Board) ToggleTile(tile string) {
	if b.activeTile == tile {
		b.activeTile = ""
		return
	}
	b.activeTile = tile
	b.filteredPage = 1
}

// ActiveTile returns the current tile filter, empty when inactive
func (b *Board) ActiveTile() string {
	return b.activeTile
}

// Filtered reports whether a tile filter is active
func (b *Board) Filtered() bool {
	return b.activeTile != ""
}

// visible applies the active tile filter to the working set
func (b *Board) visible() []models.Bug {
	if b.activeTile == "" {
		return b.bugs
	}

	result := make([]models.Bug, 0, len(b.bugs))
	for _, bug := range b.bugs {
		if b.scopeToUser && bug.Tester != b.currentUser {
			continue
		}
		if b.activeTile != TileTotal && bug.Status != b.activeTile {
			continue
		}
		result = append(result, bug)
	}
	return result
}

// TileCounts returns the numbers shown on the status bar, honoring
// the view's user scoping
func (b *Board) TileCounts() map[string]int {
	counts := map[string]int{
		TileReadyForTest: 0,
		TileFail:         0,
		TilePass:         0,
		TileTotal:        0,
	}
	for _, bug := range b.bugs {
		if b.scopeToUser && bug.Tester != b.currentUser {
			continue
		}
		counts[TileTotal]++
		switch bug.Status {
		case TileReadyForTest, TileFail, TilePass:
			counts[bug.Status]++
		}
	}
	return counts
}

// Page returns the page position for the current filter state
func (b *Board) Page() int {
	if b.Filtered() {
		return b.filteredPage
	}
	return b.unfilteredPage
}

// SetPage moves the page position for the current filter state;
// out-of-range positions are clamped
func (b *Board) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	if total := b.TotalPages(); total > 0 && page > total {
		page = total
	}
	if b.Filtered() {
		b.filteredPage = page
		return
	}
	b.unfilteredPage = page
}

// TotalPages is ceil(n / PageSize) over the visible sequence
func (b *Board) TotalPages() int {
	n := len(b.visible())
	return (n + PageSize - 1) / PageSize
}

// CurrentPage slices the visible sequence for display
func (b *Board) CurrentPage() []models.Bug {
	visible := b.visible()
	page := b.Page()

	start := (page - 1) * PageSize
	if start >= len(visible) {
		return nil
	}
	end := start + PageSize
	if end > len(visible) {
		end = len(visible)
	}
	return visible[start:end]
}
