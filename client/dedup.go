package client

import (
	"strings"

	"bug_track_app_go/models"
)

// The general list view and the Jira-update view deduplicate their
// result sets with different keys. That divergence is deliberate
// per-view policy: callers pass the strategy explicitly instead of
// the views sharing one hidden default.

// DedupKeyFunc maps a bug to its identity key for deduplication
type DedupKeyFunc func(b *models.Bug) string

// DedupByID keys on record identity. Used by the general list view.
func DedupByID(b *models.Bug) string {
	return "id:" + b.ID
}

// DedupByPIMS keys on the normalized pims value (lower-cased,
// trimmed) so case variants of the same external reference collapse.
// Records without a pims value fall back to their record id to avoid
// false merges. Used by the Jira-update view.
func DedupByPIMS(b *models.Bug) string {
	pims := strings.ToLower(strings.TrimSpace(b.Pims))
	if pims == "" {
		return "id:" + b.ID
	}
	return "pims:" + pims
}

// Deduplicate collapses duplicates, preserving first-seen order.
// Idempotent: deduplicating an already-deduplicated sequence returns
// the same sequence.
func Deduplicate(bugs []models.Bug, key DedupKeyFunc) []models.Bug {
	seen := make(map[string]struct{}, len(bugs))
	result := make([]models.Bug, 0, len(bugs))
	for i := range bugs {
		k := key(&bugs[i])
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, bugs[i])
	}
	return result
}
