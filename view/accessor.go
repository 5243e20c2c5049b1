// ABOUTME: Filtered collection accessor composing the store with sharing rules
// ABOUTME: Memoises annotated items and stats until records, viewer, mode or settings change
package view

import (
	"sync"

	"github.com/joalcobiz/mylifeos/identity"
	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/sharing"
)

// Source is the part of a collection store the accessor needs.
type Source interface {
	Name() string
	Snapshot() ([]models.Record, uint64)
	Loading() bool
	Add(item models.Fields) models.Record
	Update(id string, patch models.Fields)
	Upsert(id string, patch models.Fields)
	Remove(id string)
}

// Item is a visible record annotated for display.
type Item struct {
	models.Record
	OwnerDisplayName   string `json:"ownerDisplayName"`
	IsOwnedByViewer    bool   `json:"isOwnedByViewer"`
	IsEditableByViewer bool   `json:"isEditableByViewer"`
}

type memoKey struct {
	version  uint64
	uid      string
	admin    bool
	mode     models.SharingMode
	revision uint64
}

// Accessor is what a screen renders for one collection.
type Accessor struct {
	source   Source
	settings *sharing.SettingsService
	provider identity.Provider
	dir      identity.Directory
	module   string

	mu       sync.Mutex
	explicit models.SharingMode

	itemsKey   memoKey
	items      []Item
	itemsValid bool

	statsKey   memoKey
	stats      sharing.Stats
	statsValid bool

	recomputes int
}

// New composes source with the sharing settings for module. An empty module
// is derived from the collection name.
func New(source Source, settings *sharing.SettingsService, provider identity.Provider, dir identity.Directory, module string) *Accessor {
	if module == "" {
		module = models.ModuleFor(source.Name())
	}
	return &Accessor{
		source:   source,
		settings: settings,
		provider: provider,
		dir:      dir,
		module:   module,
	}
}

// Module returns the module whose preferences apply.
func (a *Accessor) Module() string { return a.module }

// Mode returns the effective sharing mode.
func (a *Accessor) Mode() models.SharingMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.modeLocked()
}

func (a *Accessor) modeLocked() models.SharingMode {
	if a.settings == nil {
		if a.explicit.Valid() {
			return a.explicit
		}
		return models.ModeAll
	}
	return a.settings.ResolveEffectiveMode(a.module, a.explicit)
}

// SetMode pins the mode for this accessor. An empty mode follows the settings again.
func (a *Accessor) SetMode(mode models.SharingMode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.explicit = mode
}

// ShowOwnerLabels reports whether owner names should be rendered.
func (a *Accessor) ShowOwnerLabels() bool {
	if a.settings == nil {
		return true
	}
	return a.settings.ShowOwnerLabelsFor(a.module)
}

// Loading passes through the store's loading flag.
func (a *Accessor) Loading() bool { return a.source.Loading() }

func (a *Accessor) keyLocked(version uint64) memoKey {
	v := a.provider.Viewer()
	k := memoKey{version: version, uid: v.UID, admin: v.Privileged(), mode: a.modeLocked()}
	if a.settings != nil {
		k.revision = a.settings.Revision()
	}
	return k
}

// Items returns the visible records in store order. While nothing relevant
// changes, repeated calls return the same slice; callers must not modify it.
func (a *Accessor) Items() []Item {
	records, version := a.source.Snapshot()

	a.mu.Lock()
	defer a.mu.Unlock()
	key := a.keyLocked(version)
	if a.itemsValid && a.itemsKey == key {
		return a.items
	}

	items := a.annotate(records, key.mode)
	a.items, a.itemsKey, a.itemsValid = items, key, true
	a.recomputes++
	return items
}

// ItemsIn returns the visible records under mode without touching the
// accessor's own mode or memo.
func (a *Accessor) ItemsIn(mode models.SharingMode) []Item {
	records, _ := a.source.Snapshot()
	return a.annotate(records, mode)
}

func (a *Accessor) annotate(records []models.Record, mode models.SharingMode) []Item {
	viewer := a.provider.Viewer()
	visible := sharing.Filter(records, viewer.UID, mode, viewer.Privileged())
	items := make([]Item, len(visible))
	for i, r := range visible {
		items[i] = Item{
			Record:             r,
			OwnerDisplayName:   a.displayName(r.Owner),
			IsOwnedByViewer:    viewer.UID != "" && r.Owner == viewer.UID,
			IsEditableByViewer: sharing.CanEdit(r, viewer),
		}
	}
	return items
}

// Stats counts the unfiltered list for the mode badges.
func (a *Accessor) Stats() sharing.Stats {
	records, version := a.source.Snapshot()

	a.mu.Lock()
	defer a.mu.Unlock()
	key := a.keyLocked(version)
	// Mode and settings do not affect the counts
	key.mode, key.revision = "", 0
	if a.statsValid && a.statsKey == key {
		return a.stats
	}
	a.stats, a.statsKey, a.statsValid = sharing.StatsFor(records, key.uid), key, true
	return a.stats
}

func (a *Accessor) displayName(uid string) string {
	if a.dir == nil || uid == "" {
		return uid
	}
	return a.dir.DisplayName(uid)
}

// Get returns one visible item.
func (a *Accessor) Get(id string) (Item, bool) {
	for _, it := range a.Items() {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Add passes through to the store.
func (a *Accessor) Add(item models.Fields) models.Record { return a.source.Add(item) }

// Update passes through to the store.
func (a *Accessor) Update(id string, patch models.Fields) { a.source.Update(id, patch) }

// Upsert passes through to the store.
func (a *Accessor) Upsert(id string, patch models.Fields) { a.source.Upsert(id, patch) }

// Remove passes through to the store.
func (a *Accessor) Remove(id string) { a.source.Remove(id) }
