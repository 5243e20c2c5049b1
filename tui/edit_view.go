package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joalcobiz/mylifeos/models"
)

func (m Model) renderEditView() string {
	var s strings.Builder

	// Title
	name := strings.ToUpper(m.collectionName())
	if m.selectedID == "" {
		s.WriteString(titleStyle.Render("NEW " + name))
	} else {
		s.WriteString(titleStyle.Render("EDIT " + name))
	}
	s.WriteString("\n\n")

	// Form fields
	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(fieldLabelStyle.Render(m.formKeys[i]))
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(m.err.Error()))
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = nil
		m.viewMode = ViewList
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		// Save the record
		if err := m.saveRecord(); err != nil {
			m.err = err
		} else {
			m.err = nil
			m.status = "Saved"
			m.viewMode = ViewList
		}
		return m, nil
	}

	// Update current input
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

// formKeysFor lists the editable keys: the schema's fields, or for free-form
// collections the record's own fields, followed by the sharing columns.
func formKeysFor(collection string, rec *models.Record) []string {
	var keys []string
	if schema := models.SchemaFor(collection); schema != nil && len(schema.Fields) > 0 {
		for k := range schema.Fields {
			keys = append(keys, k)
		}
	} else {
		keys = append(keys, "name")
		if rec != nil {
			for k := range rec.Fields {
				if k != "name" {
					keys = append(keys, k)
				}
			}
		}
	}
	sort.Strings(keys)
	return append(keys, models.KeyIsShared, models.KeySharedWith, models.KeyAssignedTo)
}

func (m *Model) initFormInputs(rec *models.Record) {
	m.formKeys = formKeysFor(m.collectionName(), rec)
	m.formInputs = make([]textinput.Model, len(m.formKeys))

	for i, key := range m.formKeys {
		input := textinput.New()
		input.Placeholder = key
		input.CharLimit = 500

		// If editing, populate fields
		if rec != nil {
			switch key {
			case models.KeyIsShared:
				input.SetValue(fmt.Sprintf("%t", rec.IsShared))
			case models.KeySharedWith:
				input.SetValue(strings.Join(rec.SharedWith, ","))
			case models.KeyAssignedTo:
				input.SetValue(rec.AssignedTo)
			default:
				if v, ok := rec.Fields[key]; ok && v != nil {
					input.SetValue(formatValue(v))
				}
			}
		}
		m.formInputs[i] = input
	}

	m.err = nil
	m.focusIndex = 0
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

// formPatch turns the form into a patch. Blank inputs are left out.
func (m Model) formPatch() (models.Fields, error) {
	schema := models.SchemaFor(m.collectionName())
	patch := models.Fields{}

	for i, key := range m.formKeys {
		raw := strings.TrimSpace(m.formInputs[i].Value())
		if raw == "" {
			continue
		}
		switch key {
		case models.KeySharedWith:
			var uids []interface{}
			for _, uid := range strings.Split(raw, ",") {
				if uid = strings.TrimSpace(uid); uid != "" {
					uids = append(uids, uid)
				}
			}
			patch[key] = uids
		case models.KeyAssignedTo:
			patch[key] = raw
		case models.KeyIsShared:
			switch raw {
			case "true", "yes", "y":
				patch[key] = true
			case "false", "no", "n":
				patch[key] = false
			default:
				return nil, fmt.Errorf("%s must be true or false", key)
			}
		default:
			patch[key] = parseValue(schema, key, raw)
		}
	}

	if len(patch) == 0 {
		return nil, fmt.Errorf("nothing to save")
	}
	return patch, nil
}

// parseValue keeps string-typed fields verbatim and decodes the rest as JSON
// where possible.
func parseValue(schema *models.Schema, key, raw string) interface{} {
	if schema != nil {
		switch schema.Fields[key] {
		case models.KindString, models.KindTime:
			return raw
		}
	}
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func (m Model) saveRecord() error {
	patch, err := m.formPatch()
	if err != nil {
		return err
	}
	acc, err := m.accessor()
	if err != nil {
		return err
	}

	if m.selectedID == "" {
		// Create new
		acc.Add(patch)
		return nil
	}
	// Update existing
	acc.Update(m.selectedID, patch)
	return nil
}
