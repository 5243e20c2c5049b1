// ABOUTME: Sharing settings MCP tool handlers
// ABOUTME: Implements get_sharing_settings and set_sharing_mode
package handlers

import (
	"context"
	"fmt"

	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/sharing"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SettingsHandlers struct {
	settings *sharing.SettingsService
}

func NewSettingsHandlers(settings *sharing.SettingsService) *SettingsHandlers {
	return &SettingsHandlers{settings: settings}
}

type GetSharingSettingsInput struct {
	Module string `json:"module,omitempty" jsonschema:"Optional module to resolve the effective mode for"`
}

type SharingSettingsOutput struct {
	Settings        models.SharingSettings `json:"settings"`
	Module          string                 `json:"module,omitempty"`
	EffectiveMode   string                 `json:"effective_mode,omitempty"`
	ShowOwnerLabels bool                   `json:"show_owner_labels"`
}

func (h *SettingsHandlers) output(module string) SharingSettingsOutput {
	out := SharingSettingsOutput{Settings: h.settings.Snapshot(), Module: module}
	if module != "" {
		out.EffectiveMode = string(h.settings.ResolveEffectiveMode(module, ""))
		out.ShowOwnerLabels = h.settings.ShowOwnerLabelsFor(module)
	} else {
		out.ShowOwnerLabels = out.Settings.ShowOwnerLabels
	}
	return out
}

func (h *SettingsHandlers) GetSharingSettings(_ context.Context, _ *mcp.CallToolRequest, input GetSharingSettingsInput) (*mcp.CallToolResult, SharingSettingsOutput, error) {
	return nil, h.output(input.Module), nil
}

type SetSharingModeInput struct {
	Module          string `json:"module,omitempty" jsonschema:"Module to configure; empty changes the global default"`
	Mode            string `json:"mode,omitempty" jsonschema:"Sharing mode: all, mine, shared or assigned"`
	ShowOwnerLabels *bool  `json:"show_owner_labels,omitempty" jsonschema:"Show owner names next to records"`
	Clear           bool   `json:"clear,omitempty" jsonschema:"Drop the module override and follow the global default"`
}

func (h *SettingsHandlers) SetSharingMode(_ context.Context, _ *mcp.CallToolRequest, input SetSharingModeInput) (*mcp.CallToolResult, SharingSettingsOutput, error) {
	var mode models.SharingMode
	if input.Mode != "" {
		m, err := models.ParseSharingMode(input.Mode)
		if err != nil {
			return nil, SharingSettingsOutput{}, err
		}
		mode = m
	}

	if input.Module == "" {
		if input.Clear {
			return nil, SharingSettingsOutput{}, fmt.Errorf("clear requires a module")
		}
		if mode == "" && input.ShowOwnerLabels == nil {
			return nil, SharingSettingsOutput{}, fmt.Errorf("mode or show_owner_labels is required")
		}
		if mode != "" {
			if err := h.settings.SetGlobalDefaultMode(mode); err != nil {
				return nil, SharingSettingsOutput{}, err
			}
		}
		if input.ShowOwnerLabels != nil {
			if err := h.settings.SetShowOwnerLabels(*input.ShowOwnerLabels); err != nil {
				return nil, SharingSettingsOutput{}, err
			}
		}
		return nil, h.output(""), nil
	}

	if input.Clear {
		if err := h.settings.ClearModulePreference(input.Module); err != nil {
			return nil, SharingSettingsOutput{}, err
		}
		return nil, h.output(input.Module), nil
	}

	pref := h.settings.Snapshot().ModulePreferences[input.Module]
	if mode != "" {
		pref.DefaultMode = mode
	}
	if input.ShowOwnerLabels != nil {
		pref.ShowOwnerLabels = input.ShowOwnerLabels
	}
	if err := h.settings.SetModulePreference(input.Module, pref); err != nil {
		return nil, SharingSettingsOutput{}, err
	}
	return nil, h.output(input.Module), nil
}
