// ABOUTME: Viewer identity provider and display-name directory
// ABOUTME: Static implementations built from the application config
package identity

import (
	"sort"
	"sync"

	"github.com/joalcobiz/mylifeos/config"
	"github.com/joalcobiz/mylifeos/models"
)

// Provider supplies the current viewer and the sandbox flag.
type Provider interface {
	Viewer() models.Viewer
	Sandbox() bool
}

// Directory resolves uids to human-readable names.
type Directory interface {
	DisplayName(uid string) string
}

// Static is a Provider with a fixed viewer.
type Static struct {
	viewer  models.Viewer
	sandbox bool
}

// NewStatic returns a provider for viewer.
func NewStatic(viewer models.Viewer, sandbox bool) *Static {
	return &Static{viewer: viewer, sandbox: sandbox}
}

// FromConfig builds the provider and directory described by cfg.
func FromConfig(cfg *config.Config) (*Static, *MemoryDirectory) {
	viewer := models.Viewer{
		UID:           cfg.UserID,
		IsAdmin:       cfg.IsAdmin,
		IsSystemAdmin: cfg.IsSystemAdmin,
		DisplayName:   cfg.DisplayName,
		Email:         cfg.Email,
	}
	dir := NewMemoryDirectory(cfg.People)
	if viewer.UID != "" && viewer.DisplayName != "" {
		dir.Set(viewer.UID, viewer.DisplayName)
	}
	return NewStatic(viewer, cfg.Sandbox), dir
}

func (s *Static) Viewer() models.Viewer { return s.viewer }
func (s *Static) Sandbox() bool         { return s.sandbox }

// MemoryDirectory is a Directory backed by a map.
type MemoryDirectory struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewMemoryDirectory copies names.
func NewMemoryDirectory(names map[string]string) *MemoryDirectory {
	d := &MemoryDirectory{names: make(map[string]string, len(names))}
	for uid, name := range names {
		d.names[uid] = name
	}
	return d
}

// Set records a display name.
func (d *MemoryDirectory) Set(uid, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[uid] = name
}

// DisplayName returns the known name, or the uid itself.
func (d *MemoryDirectory) DisplayName(uid string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if name, ok := d.names[uid]; ok && name != "" {
		return name
	}
	return uid
}

// UIDs lists the known uids, sorted.
func (d *MemoryDirectory) UIDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.names))
	for uid := range d.names {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}
