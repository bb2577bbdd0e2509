package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromPrecedence(t *testing.T) {
	cases := []struct {
		name  string
		yaml  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8090, cfg.Agent.Port)
				assert.Equal(t, "redis", cfg.Agent.Store)
				assert.Equal(t, 10*time.Second, cfg.Agent.SyncCallTimeout)
				assert.Equal(t, 5*time.Minute, cfg.Attendance.MaxClockSkew)
				assert.Zero(t, cfg.Agent.UserID)
			},
		},
		{
			name: "env only, keys without a non-zero default",
			env: map[string]string{
				"CHOIROS_AGENT_USER_ID":      "7",
				"CHOIROS_AGENT_TOKEN":        "station-token",
				"CHOIROS_AGENT_ORGANIZATION": "alto",
				"CHOIROS_REDIS_PASSWORD":     "hunter2",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, int64(7), cfg.Agent.UserID)
				assert.Equal(t, "station-token", cfg.Agent.Token)
				assert.Equal(t, "alto", cfg.Agent.Organization)
				assert.Equal(t, "hunter2", cfg.Redis.Password)
			},
		},
		{
			name: "env overrides a default",
			env:  map[string]string{"CHOIROS_AGENT_PORT": "9999", "CHOIROS_JOBS_ENABLED": "false"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9999, cfg.Agent.Port)
				assert.False(t, cfg.Jobs.Enabled)
			},
		},
		{
			name: "durations from env",
			env: map[string]string{
				"CHOIROS_AGENT_SYNC_CALL_TIMEOUT":   "3s",
				"CHOIROS_ATTENDANCE_MAX_CLOCK_SKEW": "90s",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3*time.Second, cfg.Agent.SyncCallTimeout)
				assert.Equal(t, 90*time.Second, cfg.Attendance.MaxClockSkew)
			},
		},
		{
			name: "config file",
			yaml: "agent:\n  user_id: 5\n  organization: bass\n  sync_interval: 1m\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, int64(5), cfg.Agent.UserID)
				assert.Equal(t, "bass", cfg.Agent.Organization)
				assert.Equal(t, time.Minute, cfg.Agent.SyncInterval)
				assert.Equal(t, "device", cfg.Agent.StoreNamespace)
			},
		},
		{
			name: "env overrides config file",
			yaml: "agent:\n  user_id: 5\n  token: from-file\n",
			env:  map[string]string{"CHOIROS_AGENT_USER_ID": "9"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, int64(9), cfg.Agent.UserID)
				assert.Equal(t, "from-file", cfg.Agent.Token)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if tc.yaml != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tc.yaml), 0644))
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadFrom(dir)
			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestLoadFromMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("agent: [unclosed"), 0644))

	_, err := LoadFrom(dir)
	assert.Error(t, err)
}
