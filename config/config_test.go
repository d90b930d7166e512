package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/montycloud/moya"
	"github.com/montycloud/moya/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	assert.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Server.FrameTimeout())
	assert.Equal(t, moya.DefaultTheme(), cfg.UI.Theme())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFrom(t *testing.T) {
	t.Run("reads all sections", func(t *testing.T) {
		path := writeConfig(t, `
[server]
base_url = "https://assistant.example.com"
frame_timeout_secs = 10

[session]
thread_id = "thread-42"
export_path = "/tmp/transcript.json"

[ui]
user_color = 6
error_color = 9
success_color = 10
muted_color = 7
accent_color = 13
`)

		cfg, err := config.LoadFrom(path)
		require.NoError(t, err)

		assert.Equal(t, "https://assistant.example.com", cfg.Server.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.Server.FrameTimeout())
		assert.Equal(t, "thread-42", cfg.Session.ThreadID)
		assert.Equal(t, "/tmp/transcript.json", cfg.Session.ExportPath)
		assert.Equal(t, moya.Theme{UserMsg: 6, Error: 9, Success: 10, Muted: 7, Accent: 13}, cfg.UI.Theme())
	})

	t.Run("partial file keeps defaults for the rest", func(t *testing.T) {
		path := writeConfig(t, `
[session]
thread_id = "thread-1"
`)

		cfg, err := config.LoadFrom(path)
		require.NoError(t, err)

		assert.Equal(t, "thread-1", cfg.Session.ThreadID)
		assert.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
		assert.Equal(t, 30, cfg.Server.FrameTimeoutSecs)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := config.LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})

	t.Run("malformed toml is an error", func(t *testing.T) {
		path := writeConfig(t, `server = not toml`)
		_, err := config.LoadFrom(path)
		assert.Error(t, err)
	})

	t.Run("invalid base url is rejected", func(t *testing.T) {
		path := writeConfig(t, `
[server]
base_url = "not a url"
`)
		_, err := config.LoadFrom(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "base_url")
	})

	t.Run("non-positive frame timeout is rejected", func(t *testing.T) {
		path := writeConfig(t, `
[server]
base_url = "http://localhost:8000"
frame_timeout_secs = -5
`)
		_, err := config.LoadFrom(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "frame_timeout_secs")
	})

	t.Run("environment overrides file values", func(t *testing.T) {
		t.Setenv("MOYA_BASE_URL", "http://override:9000")
		t.Setenv("MOYA_THREAD_ID", "env-thread")
		path := writeConfig(t, `
[server]
base_url = "http://file:8000"

[session]
thread_id = "file-thread"
`)

		cfg, err := config.LoadFrom(path)
		require.NoError(t, err)

		assert.Equal(t, "http://override:9000", cfg.Server.BaseURL)
		assert.Equal(t, "env-thread", cfg.Session.ThreadID)
	})
}

func TestSave(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		cfg := config.Default()
		cfg.Server.BaseURL = "http://saved:8000"
		cfg.Session.ThreadID = "saved-thread"

		path := filepath.Join(t.TempDir(), "nested", "config.toml")
		require.NoError(t, config.Save(cfg, path))

		loaded, err := config.LoadFrom(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded)
	})

	t.Run("file is owner-only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, config.Save(config.Default(), path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})
}
