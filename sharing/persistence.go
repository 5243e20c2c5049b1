// ABOUTME: Storage backends for the sharing settings blob
// ABOUTME: One JSON document kept either in a cache KV or in a file under the data dir
package sharing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joalcobiz/mylifeos/cache"
)

// SettingsKey is where KVPersistence stores the blob.
const SettingsKey = "settings:sharing"

// SettingsFileName is the blob's file name under the data directory.
const SettingsFileName = "sharing-settings.json"

// SettingsPersistence stores the raw settings blob. Get returns nil data and
// no error when nothing has been saved yet.
type SettingsPersistence interface {
	Get() ([]byte, error)
	Set(data []byte) error
}

// KVPersistence keeps the blob in a cache KV.
type KVPersistence struct {
	kv  cache.KV
	key []byte
}

// NewKVPersistence stores the blob in kv under SettingsKey.
func NewKVPersistence(kv cache.KV) *KVPersistence {
	return &KVPersistence{kv: kv, key: []byte(SettingsKey)}
}

func (p *KVPersistence) Get() ([]byte, error) {
	data, err := p.kv.Get(p.key)
	if errors.Is(err, cache.ErrKeyNotFound) {
		return nil, nil
	}
	return data, err
}

func (p *KVPersistence) Set(data []byte) error {
	return p.kv.Set(p.key, data)
}

// FilePersistence keeps the blob in a JSON file.
type FilePersistence struct {
	path string
}

// NewFilePersistence stores the blob at path.
func NewFilePersistence(path string) *FilePersistence {
	return &FilePersistence{path: path}
}

// DefaultSettingsPath returns xdg.DataHome/<app>/sharing-settings.json.
func DefaultSettingsPath(app string) string {
	return filepath.Join(xdg.DataHome, app, SettingsFileName)
}

// Path returns the file location.
func (p *FilePersistence) Path() string { return p.path }

func (p *FilePersistence) Get() ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func (p *FilePersistence) Set(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	return os.WriteFile(p.path, data, 0600)
}
