package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func mustWriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(LoadOptions{RepoRoot: t.TempDir(), LookupEnv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "git", cfg.Git.Binary)
	assert.Equal(t, 30*time.Second, cfg.Git.Timeout)
	assert.Equal(t, DifferBuiltin, cfg.Patch.Differ)
	assert.Equal(t, 3, cfg.Patch.Context)
	assert.True(t, cfg.Patch.VerifyEnabled())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, ColorAuto, cfg.UI.Color)
}

func TestLoadYAMLFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWriteFile(t, dir, FileName, `
git:
  binary: /usr/local/bin/git
  timeout: 5s
  lock_retries: 4
patch:
  differ: GIT
  context: 5
  verify: false
log:
  level: debug
  file: /tmp/hunkstage.log
ui:
  color: never
`)

	cfg, err := Load(LoadOptions{RepoRoot: dir, LookupEnv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/git", cfg.Git.Binary)
	assert.Equal(t, 5*time.Second, cfg.Git.Timeout)
	assert.Equal(t, 4, cfg.Git.LockRetries)
	assert.Equal(t, DifferGit, cfg.Patch.Differ)
	assert.Equal(t, 5, cfg.Patch.Context)
	assert.False(t, cfg.Patch.VerifyEnabled())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/hunkstage.log", cfg.Log.File)
	assert.Equal(t, ColorNever, cfg.UI.Color)
}

func TestLoadPrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWriteFile(t, dir, FileName, "patch:\n  context: 7\nlog:\n  level: info\n")
	mustWriteFile(t, dir, ".env", "HUNKSTAGE_PATCH_CONTEXT=9\nHUNKSTAGE_LOG_LEVEL=error\n")

	cfg, err := Load(LoadOptions{
		RepoRoot:  dir,
		LookupEnv: envMap(map[string]string{"HUNKSTAGE_LOG_LEVEL": "debug", "HUNKSTAGE_GIT_TIMEOUT": "2m"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Patch.Context, ".env overrides the YAML file")
	assert.Equal(t, "debug", cfg.Log.Level, "process environment overrides .env")
	assert.Equal(t, 2*time.Minute, cfg.Git.Timeout)
}

func TestLoadExplicitConfigPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWriteFile(t, dir, "custom.yaml", "ui:\n  color: always\n")

	cfg, err := Load(LoadOptions{RepoRoot: t.TempDir(), ConfigPath: filepath.Join(dir, "custom.yaml"), LookupEnv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, ColorAlways, cfg.UI.Color)

	_, err = Load(LoadOptions{RepoRoot: dir, ConfigPath: filepath.Join(dir, "missing.yaml"), LookupEnv: noEnv})
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	cases := map[string]map[string]string{
		"differ":  {"HUNKSTAGE_PATCH_DIFFER": "meld"},
		"color":   {"HUNKSTAGE_COLOR": "rainbow"},
		"level":   {"HUNKSTAGE_LOG_LEVEL": "chatty"},
		"timeout": {"HUNKSTAGE_GIT_TIMEOUT": "soon"},
		"retries": {"HUNKSTAGE_GIT_LOCK_RETRIES": "many"},
		"context": {"HUNKSTAGE_PATCH_CONTEXT": "wide"},
		"verify":  {"HUNKSTAGE_PATCH_VERIFY": "maybe"},
	}
	for name, env := range cases {
		env := env
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(LoadOptions{RepoRoot: t.TempDir(), LookupEnv: envMap(env)})
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWriteFile(t, dir, FileName, "git: [unterminated\n")
	_, err := Load(LoadOptions{RepoRoot: dir, LookupEnv: noEnv})
	assert.ErrorContains(t, err, "parse")
}
