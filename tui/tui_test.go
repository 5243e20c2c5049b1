// ABOUTME: Tests for the list, detail, edit and delete flows of the TUI
// ABOUTME: Drives the model with key messages against cache-only collections
package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joalcobiz/mylifeos/models"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(key(k))
		m = updated.(Model)
	}
	return m
}

func seededModel(t *testing.T) (Model, *testWorkspace) {
	t.Helper()
	ws := newTestWorkspace(t, ana)
	ws.seed(models.CollectionGroceries,
		models.Record{ID: "a", Owner: "u1", Fields: models.Fields{"name": "Milk"}},
		models.Record{ID: "b", Owner: "u2", IsShared: true, Fields: models.Fields{"name": "Bread"}},
		models.Record{ID: "c", Owner: "u2", AssignedTo: "u1", Fields: models.Fields{"name": "Eggs"}},
	)
	return NewModel(ws, models.CollectionGroceries), ws
}

func TestListViewShowsItemsAndBadges(t *testing.T) {
	m, _ := seededModel(t)
	output := m.View()

	for _, want := range []string{"Milk", "Bread", "Eggs", "all 3", "mine 1", "shared 1", "assigned 1", "Ben"} {
		if !strings.Contains(output, want) {
			t.Errorf("List view should contain %q", want)
		}
	}
}

func TestTabCyclesSharingMode(t *testing.T) {
	m, ws := seededModel(t)
	acc, _ := ws.Accessor(models.CollectionGroceries)

	m = press(t, m, "tab")
	if acc.Mode() != models.ModeMine {
		t.Fatalf("Expected mine mode, got %s", acc.Mode())
	}
	output := m.View()
	if !strings.Contains(output, "Milk") || strings.Contains(output, "Bread") {
		t.Error("Mine mode should only list own records")
	}

	m = press(t, m, "tab", "tab", "tab")
	if acc.Mode() != models.ModeAll {
		t.Errorf("Expected mode to wrap back to all, got %s", acc.Mode())
	}
}

func TestCollectionSwitching(t *testing.T) {
	m, _ := seededModel(t)
	before := m.collectionName()

	m = press(t, m, "right")
	if m.collectionName() == before {
		t.Error("Right arrow should switch collection")
	}
	if _, ok := m.watching[m.collectionName()]; !ok {
		t.Error("Switched collection should be watched")
	}
}

func TestDetailView(t *testing.T) {
	m, _ := seededModel(t)

	m = press(t, m, "enter")
	if m.viewMode != ViewDetail {
		t.Fatalf("Enter should open detail view, got %d", m.viewMode)
	}
	output := m.View()
	if !strings.Contains(output, m.selectedID) {
		t.Error("Detail view should show the id")
	}

	m = press(t, m, "esc")
	if m.viewMode != ViewList {
		t.Error("Escape should return to the list")
	}
}

func TestAddRecordThroughForm(t *testing.T) {
	m, ws := seededModel(t)

	m = press(t, m, "n")
	if m.viewMode != ViewEdit {
		t.Fatalf("n should open the form, got %d", m.viewMode)
	}

	// Focus starts on the first schema key; type into whichever input is "name".
	for m.formKeys[m.focusIndex] != "name" {
		m = press(t, m, "tab")
	}
	m = press(t, m, "Oat milk", "enter")

	if m.viewMode != ViewList {
		t.Fatalf("Save should return to list, err=%v", m.err)
	}
	c, _ := ws.Collection(models.CollectionGroceries)
	var found bool
	for _, r := range c.Data() {
		if r.String("name") == "Oat milk" {
			found = true
			if !models.IsTempID(r.ID) {
				t.Errorf("New record should carry a temp id, got %s", r.ID)
			}
		}
	}
	if !found {
		t.Error("New record should be in the collection")
	}
}

func TestEmptyFormIsRejected(t *testing.T) {
	m, _ := seededModel(t)

	m = press(t, m, "n", "enter")
	if m.viewMode != ViewEdit {
		t.Error("Empty form should stay open")
	}
	if m.err == nil {
		t.Error("Empty form should report an error")
	}
}

func TestReadOnlyRecordCannotBeEdited(t *testing.T) {
	m, _ := seededModel(t)

	items := m.items()
	for i, it := range items {
		if it.ID == "b" {
			m.selectedRow = i
		}
	}
	// "b" is shared publicly but neither owned nor assigned.
	m = press(t, m, "e")
	if m.viewMode != ViewList {
		t.Error("Editing a read-only record should not open the form")
	}
	if m.err == nil {
		t.Error("Expected a read-only error")
	}
}

func TestEditPrefillsAndUpdates(t *testing.T) {
	m, ws := seededModel(t)
	for i, it := range m.items() {
		if it.ID == "a" {
			m.selectedRow = i
		}
	}

	m = press(t, m, "e")
	if m.viewMode != ViewEdit {
		t.Fatalf("Expected edit view, err=%v", m.err)
	}
	for i, k := range m.formKeys {
		if k == "name" && m.formInputs[i].Value() != "Milk" {
			t.Errorf("Name should be prefilled, got %q", m.formInputs[i].Value())
		}
	}

	for m.formKeys[m.focusIndex] != "name" {
		m = press(t, m, "tab")
	}
	m.formInputs[m.focusIndex].SetValue("Whole milk")
	m = press(t, m, "enter")

	c, _ := ws.Collection(models.CollectionGroceries)
	got, _ := c.Get("a")
	if got.String("name") != "Whole milk" {
		t.Errorf("Expected updated name, got %q", got.String("name"))
	}
}

func TestDeleteFlow(t *testing.T) {
	m, ws := seededModel(t)
	for i, it := range m.items() {
		if it.ID == "a" {
			m.selectedRow = i
		}
	}

	m = press(t, m, "d")
	if m.viewMode != ViewConfirmDelete {
		t.Fatalf("Expected delete confirmation, got %d", m.viewMode)
	}
	if !strings.Contains(m.View(), "Milk") {
		t.Error("Confirmation should name the record")
	}

	m = press(t, m, "y")
	if m.viewMode != ViewList {
		t.Error("Confirming should return to the list")
	}
	c, _ := ws.Collection(models.CollectionGroceries)
	if _, ok := c.Get("a"); ok {
		t.Error("Record should be removed")
	}
}

func TestFormPatchParsing(t *testing.T) {
	m, _ := seededModel(t)
	m.initFormInputs(nil)

	for i, k := range m.formKeys {
		switch k {
		case "name":
			m.formInputs[i].SetValue("42")
		case "quantity":
			m.formInputs[i].SetValue("3")
		case models.KeySharedWith:
			m.formInputs[i].SetValue("u2, u3")
		case models.KeyIsShared:
			m.formInputs[i].SetValue("yes")
		}
	}

	patch, err := m.formPatch()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if patch["name"] != "42" {
		t.Errorf("String fields stay strings, got %#v", patch["name"])
	}
	if patch["quantity"] != 3.0 {
		t.Errorf("Numbers decode as JSON, got %#v", patch["quantity"])
	}
	if uids, ok := patch[models.KeySharedWith].([]interface{}); !ok || len(uids) != 2 {
		t.Errorf("sharedWith should split on commas, got %#v", patch[models.KeySharedWith])
	}
	if patch[models.KeyIsShared] != true {
		t.Errorf("isShared should parse yes, got %#v", patch[models.KeyIsShared])
	}
}

func TestQuitCancelsWatchers(t *testing.T) {
	m, _ := seededModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should return a quit command")
	}
	if len(m.watching) != 0 {
		t.Error("Quitting should cancel watchers")
	}
}

func TestChangeMessageRearmsWait(t *testing.T) {
	m, ws := seededModel(t)
	acc, _ := ws.Accessor(models.CollectionGroceries)
	acc.Add(models.Fields{"name": "Butter"})

	msg := waitForChange(m.changes)()
	if change, ok := msg.(changeMsg); !ok || change.collection != models.CollectionGroceries {
		t.Fatalf("Expected a change for groceries, got %#v", msg)
	}
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("Change messages should re-arm the wait")
	}
}
