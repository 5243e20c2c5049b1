// ABOUTME: Sharing modes and the persisted sharing settings blob
// ABOUTME: Modes partition records into mine, shared, assigned and all-visible
package models

import (
	"fmt"
	"strings"
)

// SharingMode selects which records a viewer sees.
type SharingMode string

const (
	ModeAll      SharingMode = "all"
	ModeMine     SharingMode = "mine"
	ModeShared   SharingMode = "shared"
	ModeAssigned SharingMode = "assigned"
)

// SharingModes lists the known modes in display order.
var SharingModes = []SharingMode{ModeAll, ModeMine, ModeShared, ModeAssigned}

// Valid reports whether m is one of the known modes.
func (m SharingMode) Valid() bool {
	switch m {
	case ModeAll, ModeMine, ModeShared, ModeAssigned:
		return true
	}
	return false
}

// ParseSharingMode parses a mode name, case-insensitively.
func ParseSharingMode(s string) (SharingMode, error) {
	m := SharingMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("invalid sharing mode: %q", s)
	}
	return m, nil
}

// ModulePreference overrides the global defaults for one module.
type ModulePreference struct {
	DefaultMode     SharingMode `json:"defaultMode,omitempty"`
	ShowOwnerLabels *bool       `json:"showOwnerLabels,omitempty"`
}

// SharingSettings is the process-wide sharing preference blob.
type SharingSettings struct {
	GlobalDefaultMode SharingMode                 `json:"globalDefaultMode"`
	ShowOwnerLabels   bool                        `json:"showOwnerLabels"`
	ModulePreferences map[string]ModulePreference `json:"modulePreferences"`
}

// DefaultSharingSettings returns the settings used before anything is persisted.
func DefaultSharingSettings() SharingSettings {
	return SharingSettings{
		GlobalDefaultMode: ModeAll,
		ShowOwnerLabels:   true,
		ModulePreferences: map[string]ModulePreference{},
	}
}

// Clone copies the module preference map.
func (s SharingSettings) Clone() SharingSettings {
	out := s
	out.ModulePreferences = make(map[string]ModulePreference, len(s.ModulePreferences))
	for k, v := range s.ModulePreferences {
		if v.ShowOwnerLabels != nil {
			b := *v.ShowOwnerLabels
			v.ShowOwnerLabels = &b
		}
		out.ModulePreferences[k] = v
	}
	return out
}
