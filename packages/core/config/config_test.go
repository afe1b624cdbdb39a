package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.DefaultEnvironment)
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration())
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetRestrictFiles())
	assert.False(t, cfg.GetVerbose())
	assert.False(t, cfg.GetNoColor())
	assert.Equal(t, "console", cfg.Output)
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 30000, cfg.Timeout)
	assert.Equal(t, 10, cfg.MaxRedirects)
	assert.True(t, cfg.GetFollowRedirects())
}

func TestFindAndLoadConfig_Formats(t *testing.T) {
	tests := []struct {
		filename string
		content  string
	}{
		{
			filename: ".reqchain.json",
			content:  `{"defaultEnvironment": "staging", "timeout": 5000, "followRedirects": false, "restrictFiles": true, "headers": {"X-Team": "core"}}`,
		},
		{
			filename: "reqchain.yaml",
			content:  "defaultEnvironment: staging\ntimeout: 5000\nfollowRedirects: false\nrestrictFiles: true\nheaders:\n  X-Team: core\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.filename), []byte(tt.content), 0644))

			cfg, err := FindAndLoadConfig(dir)
			require.NoError(t, err)
			assert.Equal(t, "staging", cfg.DefaultEnvironment)
			assert.Equal(t, 5000, cfg.Timeout)
			assert.False(t, cfg.GetFollowRedirects())
			assert.True(t, cfg.GetValidateSSL())
			assert.True(t, cfg.GetRestrictFiles())
			assert.Equal(t, 10, cfg.MaxRedirects)
			// viper folds keys to lower case; header names are case-insensitive
			assert.Equal(t, "core", cfg.Headers["x-team"])
		})
	}
}

func TestLoadConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("REQCHAIN_TIMEOUT", "1234")
	t.Setenv("REQCHAIN_VERBOSE", "true")

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timeout": 5000}`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Timeout)
	assert.True(t, cfg.GetVerbose())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timeout": `), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_Merge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"a": "1"}

	merged := base.Merge(&Config{
		DefaultEnvironment: "prod",
		Rate:               2.5,
		ValidateSSL:        BoolPtr(false),
		RestrictFiles:      BoolPtr(true),
		Headers:            map[string]string{"b": "2"},
	})

	assert.Equal(t, "prod", merged.DefaultEnvironment)
	assert.Equal(t, 2.5, merged.Rate)
	assert.False(t, merged.GetValidateSSL())
	assert.True(t, merged.GetRestrictFiles())
	assert.True(t, merged.GetFollowRedirects())
	assert.Equal(t, 30000, merged.Timeout)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, merged.Headers)
	assert.Equal(t, map[string]string{"a": "1"}, base.Headers)

	assert.Same(t, base, base.Merge(nil))
}

func TestConfig_SaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".reqchain.json")
	cfg := DefaultConfig()
	cfg.DefaultEnvironment = "local"
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "local", loaded.DefaultEnvironment)
	assert.Equal(t, cfg.Timeout, loaded.Timeout)
}
