package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := LoadConfig()
	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, "http://127.0.0.1:8090", cfg.StationURL)
	assert.Empty(t, cfg.Token)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, SaveConfig(&Config{ServerURL: "https://alto.choiros.app", Org: "alto", Token: "tok"}))

	info, err := os.Stat(filepath.Join(home, ".choiros", "cli.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg := LoadConfig()
	assert.Equal(t, "alto", cfg.Org)
	assert.Equal(t, "tok", cfg.Token)
	assert.Equal(t, "https://alto.choiros.app", cfg.ServerURL)
}
