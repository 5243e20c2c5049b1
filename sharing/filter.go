// ABOUTME: Pure sharing visibility projections over record lists
// ABOUTME: Filter by mode, edit permission and per-mode counters for badges
package sharing

import (
	"github.com/joalcobiz/mylifeos/models"
)

// Stats counts the records reachable through each visibility channel.
type Stats struct {
	Total    int `json:"total"`
	Mine     int `json:"mine"`
	Shared   int `json:"shared"`
	Assigned int `json:"assigned"`
}

// Count returns the counter that matches mode.
func (s Stats) Count(mode models.SharingMode) int {
	switch mode {
	case models.ModeMine:
		return s.Mine
	case models.ModeShared:
		return s.Shared
	case models.ModeAssigned:
		return s.Assigned
	}
	return s.Total
}

func isMine(r models.Record, viewerID string) bool {
	return r.Owner == viewerID
}

func isShared(r models.Record, viewerID string) bool {
	return r.Owner != viewerID && (r.IsShared || r.SharedWithViewer(viewerID))
}

func isAssigned(r models.Record, viewerID string) bool {
	return r.AssignedTo == viewerID && r.Owner != viewerID
}

func isVisible(r models.Record, viewerID string) bool {
	return r.Owner == viewerID || r.IsShared || r.SharedWithViewer(viewerID) || r.AssignedTo == viewerID
}

// IsVisible reports whether r passes the filter for mode. Unknown modes let
// everything through.
func IsVisible(r models.Record, viewerID string, mode models.SharingMode, isAdmin bool) bool {
	switch mode {
	case models.ModeAll:
		return isAdmin || isVisible(r, viewerID)
	case models.ModeMine:
		return isMine(r, viewerID)
	case models.ModeShared:
		return isShared(r, viewerID)
	case models.ModeAssigned:
		return isAssigned(r, viewerID)
	}
	return true
}

// Filter returns the records visible to viewerID under mode, in input order.
// An admin in ModeAll sees everything. The input is never modified.
func Filter(records []models.Record, viewerID string, mode models.SharingMode, isAdmin bool) []models.Record {
	if !mode.Valid() || (isAdmin && mode == models.ModeAll) {
		return append([]models.Record(nil), records...)
	}

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if IsVisible(r, viewerID, mode, isAdmin) {
			out = append(out, r)
		}
	}
	return out
}

// CanEdit reports whether viewer may mutate r. Only the UI consults this; the
// document store does not enforce it.
func CanEdit(r models.Record, viewer models.Viewer) bool {
	if viewer.Privileged() {
		return true
	}
	if viewer.UID == "" {
		return false
	}
	return r.Owner == viewer.UID || r.AssignedTo == viewer.UID || r.SharedWithViewer(viewer.UID)
}

// StatsFor counts the full, unfiltered list so every mode badge stays accurate
// whichever mode is active. Total counts what ModeAll shows a non-admin.
func StatsFor(records []models.Record, viewerID string) Stats {
	var s Stats
	for _, r := range records {
		if isVisible(r, viewerID) {
			s.Total++
		}
		if isMine(r, viewerID) {
			s.Mine++
		}
		if isShared(r, viewerID) {
			s.Shared++
		}
		if isAssigned(r, viewerID) {
			s.Assigned++
		}
	}
	return s
}

// Channel names how uid gets to see r, for labels.
func Channel(r models.Record, uid string) string {
	switch {
	case isMine(r, uid):
		if r.IsShared || len(r.SharedWith) > 0 {
			return "mine, shared"
		}
		return "mine"
	case isShared(r, uid):
		return "shared"
	case isAssigned(r, uid):
		return "assigned"
	}
	return "admin"
}
