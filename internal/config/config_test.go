package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Root)
	assert.Equal(t, []string{".git"}, cfg.ExcludeDirs)
	assert.Equal(t, "utf-8", cfg.Encoding)
	assert.False(t, cfg.DryRun)
	assert.Empty(t, cfg.JournalPath)
	assert.Zero(t, cfg.WriteRate)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Console)
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfig(t, `
root: /data/project
exclude_dirs: [".git", ".hg", "node_modules"]
encoding: windows-1252
dry_run: true
journal_path: /var/lib/emoji-scrub/journal.db
write_rate: 50
log:
  level: debug
  file: /tmp/scrub.log
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/project", cfg.Root)
	assert.Equal(t, []string{".git", ".hg", "node_modules"}, cfg.ExcludeDirs)
	assert.Equal(t, "windows-1252", cfg.Encoding)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "/var/lib/emoji-scrub/journal.db", cfg.JournalPath)
	assert.Equal(t, 50.0, cfg.WriteRate)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/scrub.log", cfg.Log.File)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("EMOJI_SCRUB_ROOT", "/from/env")
	t.Setenv("EMOJI_SCRUB_DRY_RUN", "true")
	t.Setenv("EMOJI_SCRUB_LOG_LEVEL", "warn")
	t.Setenv("EMOJI_SCRUB_EXCLUDE_DIRS", ".git,vendor")

	cfg, err := LoadConfig(writeConfig(t, "root: /from/file\n"))
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Root)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{".git", "vendor"}, cfg.ExcludeDirs)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "root: [unterminated\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &AppConfig{Root: "/x", Encoding: "utf-8"}
	assert.NoError(t, cfg.Validate())

	cfg.Root = "  "
	assert.ErrorIs(t, cfg.Validate(), ErrNoRoot)

	cfg.Root = "/x"
	cfg.Encoding = "ebcdic-martian"
	assert.Error(t, cfg.Validate())

	cfg.Encoding = ""
	assert.NoError(t, cfg.Validate(), "empty encoding falls back to utf-8")

	cfg.WriteRate = -1
	assert.Error(t, cfg.Validate())
}
