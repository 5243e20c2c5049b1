// ABOUTME: Sharing settings service with explicit load and save lifecycle
// ABOUTME: Resolves the effective sharing mode per module from persisted preferences
package sharing

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/joalcobiz/mylifeos/models"
)

// SettingsService owns the sharing preferences. Create one at startup, Load
// it once and hand it to every consumer.
type SettingsService struct {
	store  SettingsPersistence
	logger *log.Logger

	mu       sync.RWMutex
	settings models.SharingSettings
	revision uint64
	loaded   bool
}

// NewSettingsService returns a service holding the defaults until Load runs.
func NewSettingsService(store SettingsPersistence, logger *log.Logger) *SettingsService {
	if logger == nil {
		logger = log.Default().WithPrefix("sharing")
	}
	return &SettingsService{
		store:    store,
		logger:   logger,
		settings: models.DefaultSharingSettings(),
	}
}

// Load reads the persisted blob. Missing or unreadable settings fall back to
// the defaults; Load never fails.
func (s *SettingsService) Load() models.SharingSettings {
	settings := models.DefaultSharingSettings()

	if s.store != nil {
		data, err := s.store.Get()
		switch {
		case err != nil:
			s.logger.Warn("failed to read sharing settings, using defaults", "err", err)
		case len(data) > 0:
			var stored models.SharingSettings
			if err := json.Unmarshal(data, &stored); err != nil {
				s.logger.Warn("sharing settings corrupt, using defaults", "err", err)
			} else {
				settings = normalize(stored)
			}
		}
	}

	s.mu.Lock()
	s.settings = settings
	s.loaded = true
	s.revision++
	s.mu.Unlock()
	return settings.Clone()
}

func normalize(in models.SharingSettings) models.SharingSettings {
	if !in.GlobalDefaultMode.Valid() {
		in.GlobalDefaultMode = models.ModeAll
	}
	if in.ModulePreferences == nil {
		in.ModulePreferences = map[string]models.ModulePreference{}
	}
	return in
}

// Snapshot returns a copy of the current settings.
func (s *SettingsService) Snapshot() models.SharingSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// Revision changes whenever the settings change.
func (s *SettingsService) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Loaded reports whether Load has run.
func (s *SettingsService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// ResolveEffectiveMode picks explicit when it is a valid mode, then the
// module's preference, then the global default.
func (s *SettingsService) ResolveEffectiveMode(module string, explicit models.SharingMode) models.SharingMode {
	if explicit.Valid() {
		return explicit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolve(s.settings, module)
}

func resolve(settings models.SharingSettings, module string) models.SharingMode {
	if pref, ok := settings.ModulePreferences[module]; ok && pref.DefaultMode.Valid() {
		return pref.DefaultMode
	}
	if settings.GlobalDefaultMode.Valid() {
		return settings.GlobalDefaultMode
	}
	return models.ModeAll
}

// ShowOwnerLabelsFor returns the module override, or the global flag.
func (s *SettingsService) ShowOwnerLabelsFor(module string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pref, ok := s.settings.ModulePreferences[module]; ok && pref.ShowOwnerLabels != nil {
		return *pref.ShowOwnerLabels
	}
	return s.settings.ShowOwnerLabels
}

// SetGlobalDefaultMode changes the fallback mode and saves.
func (s *SettingsService) SetGlobalDefaultMode(mode models.SharingMode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid sharing mode: %q", mode)
	}
	return s.update(func(st *models.SharingSettings) {
		st.GlobalDefaultMode = mode
	})
}

// SetShowOwnerLabels toggles owner labels globally and saves.
func (s *SettingsService) SetShowOwnerLabels(show bool) error {
	return s.update(func(st *models.SharingSettings) {
		st.ShowOwnerLabels = show
	})
}

// SetModulePreference replaces one module's override and saves. An empty
// DefaultMode keeps following the global default.
func (s *SettingsService) SetModulePreference(module string, pref models.ModulePreference) error {
	if module == "" {
		return fmt.Errorf("module name is required")
	}
	if pref.DefaultMode != "" && !pref.DefaultMode.Valid() {
		return fmt.Errorf("invalid sharing mode: %q", pref.DefaultMode)
	}
	return s.update(func(st *models.SharingSettings) {
		st.ModulePreferences[module] = pref
	})
}

// ClearModulePreference drops a module's override and saves.
func (s *SettingsService) ClearModulePreference(module string) error {
	return s.update(func(st *models.SharingSettings) {
		delete(st.ModulePreferences, module)
	})
}

// update applies fn and writes the whole blob back. Concurrent writers are
// last-writer-wins.
func (s *SettingsService) update(fn func(st *models.SharingSettings)) error {
	s.mu.Lock()
	next := s.settings.Clone()
	fn(&next)
	data, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to encode sharing settings: %w", err)
	}
	s.settings = next
	s.revision++
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.Set(data); err != nil {
		return fmt.Errorf("failed to save sharing settings: %w", err)
	}
	return nil
}
