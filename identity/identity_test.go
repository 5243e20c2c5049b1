package identity

import (
	"testing"

	"github.com/joalcobiz/mylifeos/config"
	"github.com/stretchr/testify/assert"
)

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.UserID = "u1"
	cfg.DisplayName = "Ana"
	cfg.IsAdmin = true
	cfg.Sandbox = true
	cfg.People = map[string]string{"u2": "Ben"}

	provider, dir := FromConfig(cfg)

	v := provider.Viewer()
	assert.Equal(t, "u1", v.UID)
	assert.True(t, v.IsAdmin)
	assert.True(t, provider.Sandbox())

	assert.Equal(t, "Ana", dir.DisplayName("u1"))
	assert.Equal(t, "Ben", dir.DisplayName("u2"))
	assert.Equal(t, "u3", dir.DisplayName("u3"))
	assert.Equal(t, []string{"u1", "u2"}, dir.UIDs())
}

func TestAnonymousConfig(t *testing.T) {
	provider, _ := FromConfig(config.Default())
	assert.False(t, provider.Viewer().Authenticated())
}
