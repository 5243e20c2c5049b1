// ABOUTME: Tests for the filtered collection accessor
// ABOUTME: Checks annotations, mode resolution and memoisation of derived views
package view

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/joalcobiz/mylifeos/cache"
	"github.com/joalcobiz/mylifeos/identity"
	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/sharing"
	"github.com/joalcobiz/mylifeos/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	records []models.Record
	version uint64
	removed []string
}

func (f *fakeSource) Name() string                        { return models.CollectionGoals }
func (f *fakeSource) Snapshot() ([]models.Record, uint64) { return models.CloneRecords(f.records), f.version }
func (f *fakeSource) Loading() bool                       { return false }
func (f *fakeSource) Add(models.Fields) models.Record     { return models.Record{} }
func (f *fakeSource) Update(string, models.Fields)        {}
func (f *fakeSource) Upsert(string, models.Fields)        {}
func (f *fakeSource) Remove(id string)                    { f.removed = append(f.removed, id) }

func (f *fakeSource) set(records ...models.Record) {
	f.records = records
	f.version++
}

func newSettings(t *testing.T) *sharing.SettingsService {
	t.Helper()
	s := sharing.NewSettingsService(sharing.NewKVPersistence(cache.NewMemoryKV()), log.New(io.Discard))
	s.Load()
	return s
}

func itemIDs(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func setup(t *testing.T, viewer models.Viewer) (*fakeSource, *sharing.SettingsService, *Accessor) {
	t.Helper()
	src := &fakeSource{}
	src.set(
		models.Record{ID: "mine", Owner: "u1"},
		models.Record{ID: "public", Owner: "u2", IsShared: true},
		models.Record{ID: "assigned", Owner: "u2", AssignedTo: "u1"},
		models.Record{ID: "hidden", Owner: "u3"},
	)
	settings := newSettings(t)
	dir := identity.NewMemoryDirectory(map[string]string{"u1": "Ana", "u2": "Ben"})
	a := New(src, settings, identity.NewStatic(viewer, false), dir, "")
	return src, settings, a
}

func TestItemsAreFilteredAndAnnotated(t *testing.T) {
	_, _, a := setup(t, models.Viewer{UID: "u1"})

	assert.Equal(t, models.CollectionGoals, a.Module())
	items := a.Items()
	require.Equal(t, []string{"mine", "public", "assigned"}, itemIDs(items))

	assert.Equal(t, "Ana", items[0].OwnerDisplayName)
	assert.True(t, items[0].IsOwnedByViewer)
	assert.True(t, items[0].IsEditableByViewer)

	assert.Equal(t, "Ben", items[1].OwnerDisplayName)
	assert.False(t, items[1].IsOwnedByViewer)
	assert.False(t, items[1].IsEditableByViewer)

	assert.True(t, items[2].IsEditableByViewer)
}

func TestAdminSeesEverythingInAllMode(t *testing.T) {
	_, _, a := setup(t, models.Viewer{UID: "u1", IsAdmin: true})

	items := a.Items()
	assert.Len(t, items, 4)
	assert.Equal(t, "u3", items[3].OwnerDisplayName)
	assert.True(t, items[3].IsEditableByViewer)
}

func TestModeFollowsSettingsUntilPinned(t *testing.T) {
	_, settings, a := setup(t, models.Viewer{UID: "u1"})

	require.NoError(t, settings.SetModulePreference(models.CollectionGoals, models.ModulePreference{DefaultMode: models.ModeMine}))
	assert.Equal(t, models.ModeMine, a.Mode())
	assert.Equal(t, []string{"mine"}, itemIDs(a.Items()))

	a.SetMode(models.ModeAssigned)
	assert.Equal(t, []string{"assigned"}, itemIDs(a.Items()))

	a.SetMode("")
	assert.Equal(t, models.ModeMine, a.Mode())
}

func TestItemsAreMemoised(t *testing.T) {
	src, settings, a := setup(t, models.Viewer{UID: "u1"})

	first := a.Items()
	second := a.Items()
	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, 1, a.recomputes)

	// A store change invalidates
	src.set(append(src.records, models.Record{ID: "new", Owner: "u1"})...)
	third := a.Items()
	assert.Equal(t, 2, a.recomputes)
	assert.Len(t, third, 4)

	// A settings change invalidates even when the mode is the same
	require.NoError(t, settings.SetShowOwnerLabels(false))
	a.Items()
	assert.Equal(t, 3, a.recomputes)

	// A mode change invalidates
	a.SetMode(models.ModeShared)
	a.Items()
	assert.Equal(t, 4, a.recomputes)
	a.Items()
	assert.Equal(t, 4, a.recomputes)
	assert.False(t, a.ShowOwnerLabels())
}

func TestStatsIgnoreActiveMode(t *testing.T) {
	_, _, a := setup(t, models.Viewer{UID: "u1"})

	before := a.Stats()
	a.SetMode(models.ModeMine)
	after := a.Stats()

	assert.Equal(t, sharing.Stats{Total: 3, Mine: 1, Shared: 1, Assigned: 1}, before)
	assert.Equal(t, before, after)
}

func TestMutationsPassThrough(t *testing.T) {
	src, _, a := setup(t, models.Viewer{UID: "u1"})
	a.Remove("mine")
	assert.Equal(t, []string{"mine"}, src.removed)
}

func TestAccessorOverStore(t *testing.T) {
	viewer := models.Viewer{UID: "u1"}
	coll := store.New(context.Background(), nil, nil, viewer, models.CollectionTasks, store.WithLogger(log.New(io.Discard)))
	defer coll.Close()

	a := New(coll, newSettings(t), identity.NewStatic(viewer, true), nil, "")
	assert.Equal(t, "projects", a.Module())

	rec := a.Add(models.Fields{"name": "Plan trip"})
	items := a.Items()
	require.Len(t, items, 1)
	assert.Equal(t, rec.ID, items[0].ID)
	assert.Equal(t, "u1", items[0].OwnerDisplayName)
	assert.True(t, items[0].IsOwnedByViewer)

	a.Update(rec.ID, models.Fields{"status": "done"})
	item, ok := a.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, "done", item.String("status"))

	a.Remove(rec.ID)
	assert.Empty(t, a.Items())
}
