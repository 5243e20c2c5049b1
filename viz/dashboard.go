// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Bar chart of visible records per collection with sync warnings
package viz

import (
	"fmt"
	"strings"

	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/sharing"
	"github.com/joalcobiz/mylifeos/store"
	"github.com/joalcobiz/mylifeos/view"
)

// Workspace opens collections and their sharing views by name.
type Workspace interface {
	Collection(name string) (*store.Collection, error)
	Accessor(name string) (*view.Accessor, error)
}

type CollectionStats struct {
	Name   string
	Mode   models.SharingMode
	Stats  sharing.Stats
	Status store.Status
}

type DashboardStats struct {
	Viewer      models.Viewer
	Collections []CollectionStats

	// Overall stats
	TotalVisible int
	TotalPending int

	// Needs attention
	Discarded []string
	Loading   []string
}

func GenerateDashboardStats(ws Workspace, names []string) (*DashboardStats, error) {
	stats := &DashboardStats{}

	for _, name := range names {
		c, err := ws.Collection(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		acc, err := ws.Accessor(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		stats.Viewer = c.Viewer()

		cs := CollectionStats{
			Name:   name,
			Mode:   acc.Mode(),
			Stats:  acc.Stats(),
			Status: c.Status(),
		}
		stats.Collections = append(stats.Collections, cs)
		stats.TotalVisible += cs.Stats.Total
		stats.TotalPending += cs.Status.Pending

		if cs.Status.Discarded > 0 {
			stats.Discarded = append(stats.Discarded, name)
		}
		if cs.Status.Loading {
			stats.Loading = append(stats.Loading, name)
		}
	}

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  MYLIFEOS DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	// Collections overview
	out.WriteString("COLLECTIONS\n")
	renderCollections(&out, stats.Collections)
	out.WriteString("\n")

	// Stats
	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  %d visible records  %d waiting to sync\n\n", stats.TotalVisible, stats.TotalPending))

	// Needs attention
	if len(stats.Discarded) > 0 || len(stats.Loading) > 0 {
		out.WriteString("NEEDS ATTENTION\n")

		if len(stats.Discarded) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  writes discarded by the server in: %s\n", strings.Join(stats.Discarded, ", ")))
		}

		if len(stats.Loading) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  still waiting for a first snapshot: %s\n", strings.Join(stats.Loading, ", ")))
		}
	}

	return out.String()
}

func renderCollections(out *strings.Builder, collections []CollectionStats) {
	// Find max count for scaling
	maxCount := 0
	for _, cs := range collections {
		if cs.Stats.Total > maxCount {
			maxCount = cs.Stats.Total
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, cs := range collections {
		// Calculate bar length (0-10 blocks)
		barLength := (cs.Stats.Total * 10) / maxCount

		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-12s %s  %3d  (mine %d, shared %d, assigned %d)",
			cs.Name, bar, cs.Stats.Total, cs.Stats.Mine, cs.Stats.Shared, cs.Stats.Assigned))
		if cs.Status.Pending > 0 {
			out.WriteString(fmt.Sprintf("  ⟳ %d pending", cs.Status.Pending))
		}
		out.WriteString("\n")
	}
}
