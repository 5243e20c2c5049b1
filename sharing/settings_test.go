package sharing

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/joalcobiz/mylifeos/cache"
	"github.com/joalcobiz/mylifeos/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, p SettingsPersistence) *SettingsService {
	t.Helper()
	s := NewSettingsService(p, log.New(io.Discard))
	s.Load()
	return s
}

func TestResolveEffectiveModeFallsBackPerModule(t *testing.T) {
	kv := cache.NewMemoryKV()
	require.NoError(t, kv.Set([]byte(SettingsKey), []byte(`{
		"globalDefaultMode": "all",
		"showOwnerLabels": true,
		"modulePreferences": {"goals": {"defaultMode": "mine"}}
	}`)))
	s := newService(t, NewKVPersistence(kv))

	assert.Equal(t, models.ModeMine, s.ResolveEffectiveMode("goals", ""))
	assert.Equal(t, models.ModeAll, s.ResolveEffectiveMode("habits", ""))
	assert.Equal(t, models.ModeShared, s.ResolveEffectiveMode("goals", models.ModeShared))
}

func TestResolveEffectiveModeIsStable(t *testing.T) {
	s := newService(t, NewKVPersistence(cache.NewMemoryKV()))
	require.NoError(t, s.SetModulePreference("journal", models.ModulePreference{DefaultMode: models.ModeAssigned}))

	for _, module := range []string{"journal", "tasks", ""} {
		for _, explicit := range []models.SharingMode{"", models.ModeMine, "nonsense"} {
			first := s.ResolveEffectiveMode(module, explicit)
			second := s.ResolveEffectiveMode(module, explicit)
			assert.Equal(t, first, second)
			assert.True(t, first.Valid())
		}
	}
}

func TestLoadDefaultsWhenEmpty(t *testing.T) {
	s := newService(t, NewKVPersistence(cache.NewMemoryKV()))

	assert.True(t, s.Loaded())
	assert.Equal(t, models.DefaultSharingSettings(), s.Snapshot())
	assert.Equal(t, models.ModeAll, s.ResolveEffectiveMode("anything", ""))
	assert.True(t, s.ShowOwnerLabelsFor("anything"))
}

func TestLoadDefaultsWhenCorrupt(t *testing.T) {
	kv := cache.NewMemoryKV()
	require.NoError(t, kv.Set([]byte(SettingsKey), []byte("{not json")))
	s := newService(t, NewKVPersistence(kv))

	assert.Equal(t, models.DefaultSharingSettings(), s.Snapshot())
}

func TestLoadNormalizesInvalidGlobalMode(t *testing.T) {
	kv := cache.NewMemoryKV()
	require.NoError(t, kv.Set([]byte(SettingsKey), []byte(`{"globalDefaultMode":"everyone"}`)))
	s := newService(t, NewKVPersistence(kv))

	snap := s.Snapshot()
	assert.Equal(t, models.ModeAll, snap.GlobalDefaultMode)
	assert.NotNil(t, snap.ModulePreferences)
}

type brokenPersistence struct{}

func (brokenPersistence) Get() ([]byte, error) { return nil, errors.New("quota exceeded") }
func (brokenPersistence) Set([]byte) error     { return errors.New("quota exceeded") }

func TestPersistenceFailures(t *testing.T) {
	s := newService(t, brokenPersistence{})
	assert.Equal(t, models.DefaultSharingSettings(), s.Snapshot())

	err := s.SetGlobalDefaultMode(models.ModeMine)
	assert.ErrorContains(t, err, "failed to save sharing settings")
	// The in-memory value still changes
	assert.Equal(t, models.ModeMine, s.ResolveEffectiveMode("x", ""))
}

func TestSettersPersistWholeBlob(t *testing.T) {
	kv := cache.NewMemoryKV()
	s := newService(t, NewKVPersistence(kv))

	require.NoError(t, s.SetGlobalDefaultMode(models.ModeShared))
	require.NoError(t, s.SetShowOwnerLabels(false))
	hide := true
	require.NoError(t, s.SetModulePreference("goals", models.ModulePreference{DefaultMode: models.ModeMine, ShowOwnerLabels: &hide}))

	reloaded := newService(t, NewKVPersistence(kv))
	assert.Equal(t, models.ModeShared, reloaded.ResolveEffectiveMode("habits", ""))
	assert.Equal(t, models.ModeMine, reloaded.ResolveEffectiveMode("goals", ""))
	assert.False(t, reloaded.ShowOwnerLabelsFor("habits"))
	assert.True(t, reloaded.ShowOwnerLabelsFor("goals"))

	require.NoError(t, reloaded.ClearModulePreference("goals"))
	assert.Equal(t, models.ModeShared, reloaded.ResolveEffectiveMode("goals", ""))
}

func TestSettersValidate(t *testing.T) {
	s := newService(t, nil)
	rev := s.Revision()

	assert.Error(t, s.SetGlobalDefaultMode("everyone"))
	assert.Error(t, s.SetModulePreference("", models.ModulePreference{}))
	assert.Error(t, s.SetModulePreference("goals", models.ModulePreference{DefaultMode: "nope"}))
	assert.Equal(t, rev, s.Revision())

	require.NoError(t, s.SetShowOwnerLabels(false))
	assert.Greater(t, s.Revision(), rev)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newService(t, nil)
	snap := s.Snapshot()
	snap.ModulePreferences["goals"] = models.ModulePreference{DefaultMode: models.ModeMine}

	assert.Equal(t, models.ModeAll, s.ResolveEffectiveMode("goals", ""))
}

func TestFilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", SettingsFileName)
	p := NewFilePersistence(path)

	data, err := p.Get()
	require.NoError(t, err)
	assert.Nil(t, data)

	s := newService(t, p)
	require.NoError(t, s.SetGlobalDefaultMode(models.ModeAssigned))

	_, err = os.Stat(path)
	require.NoError(t, err)

	reloaded := newService(t, NewFilePersistence(path))
	assert.Equal(t, models.ModeAssigned, reloaded.ResolveEffectiveMode("tasks", ""))
}
