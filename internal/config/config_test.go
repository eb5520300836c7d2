package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnptool/internal/config"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaultsWhenNoFileExists(t *testing.T) {
	home := isolateHome(t)

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(home, ".config", "bnptool", "config.toml"), resolved)

	assert.Equal(t, "bnp-engine", cfg.Engine.Binary)
	assert.Empty(t, cfg.Engine.Args)
	assert.Zero(t, cfg.EngineTimeout())
	assert.Equal(t, "", cfg.Engine.StoreDir)
	assert.Equal(t, filepath.Join(home, ".cache", "bnptool", "scratch"), cfg.Paths.ScratchDir)
	assert.Equal(t, "", cfg.Paths.LogDir)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 24*time.Hour, cfg.CleanMaxAge())

	require.NoError(t, cfg.EnsureDirectories())
	info, err := os.Stat(cfg.Paths.ScratchDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadCustomPath(t *testing.T) {
	home := isolateHome(t)
	configPath := filepath.Join(t.TempDir(), "bnptool.toml")

	content := `
[engine]
binary = "python3"
args = ["-m", "bcml_bridge", "  "]
timeout_seconds = 90
store_dir = "~/bcml-data"

[paths]
scratch_dir = "~/scratch"
log_dir = "~/logs"

[logging]
format = "JSON"
level = "Warning"

[clean]
max_age_hours = 6
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, resolved, exists, err := config.Load(configPath)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, configPath, resolved)

	assert.Equal(t, "python3", cfg.Engine.Binary)
	assert.Equal(t, []string{"-m", "bcml_bridge"}, cfg.Engine.Args)
	assert.Equal(t, 90*time.Second, cfg.EngineTimeout())
	assert.Equal(t, filepath.Join(home, "bcml-data"), cfg.Engine.StoreDir)
	assert.Equal(t, filepath.Join(home, "scratch"), cfg.Paths.ScratchDir)
	assert.Equal(t, filepath.Join(home, "logs"), cfg.Paths.LogDir)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 6*time.Hour, cfg.CleanMaxAge())
}

func TestLoadPicksUpProjectFile(t *testing.T) {
	isolateHome(t)
	dir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bnptool.toml"), []byte("[engine]\nbinary = \"project-engine\"\n"), 0o644))

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "bnptool.toml", filepath.Base(resolved))
	assert.Equal(t, "project-engine", cfg.Engine.Binary)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	isolateHome(t)
	configPath := filepath.Join(t.TempDir(), "bnptool.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[engine]\nbinary = \"from-file\"\n"), 0o644))

	t.Setenv("BNPTOOL_ENGINE_BINARY", "from-env")
	t.Setenv("BNPTOOL_LOGGING_LEVEL", "debug")

	cfg, _, _, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Engine.Binary)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingCustomPathUsesDefaults(t *testing.T) {
	isolateHome(t)
	missing := filepath.Join(t.TempDir(), "nope.toml")

	cfg, resolved, exists, err := config.Load(missing)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, missing, resolved)
	assert.Equal(t, "bnp-engine", cfg.Engine.Binary)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"empty binary":     "[engine]\nbinary = \"  \"\n",
		"negative timeout": "[engine]\ntimeout_seconds = -1\n",
		"bad format":       "[logging]\nformat = \"xml\"\n",
		"bad level":        "[logging]\nlevel = \"chatty\"\n",
		"negative age":     "[clean]\nmax_age_hours = -3\n",
		"broken toml":      "[engine\nbinary = 1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			isolateHome(t)
			path := filepath.Join(t.TempDir(), "bnptool.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, _, _, err := config.Load(path)
			require.Error(t, err)
		})
	}
}

func TestEmptyBinaryErrorMentionsEnvOverride(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "bnptool.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nbinary = \"\"\n"), 0o644))

	_, _, _, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BNPTOOL_ENGINE_BINARY")
}

func TestCreateSampleRoundTrips(t *testing.T) {
	home := isolateHome(t)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	require.NoError(t, config.CreateSample(target))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# bnptool configuration"))

	var decoded config.Config
	require.NoError(t, toml.Unmarshal(data, &decoded))
	assert.Equal(t, "bnp-engine", decoded.Engine.Binary)

	cfg, _, exists, err := config.Load(target)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, filepath.Join(home, ".cache", "bnptool", "scratch"), cfg.Paths.ScratchDir)
}

func TestTOMLRendersSections(t *testing.T) {
	cfg := config.Default()
	data, err := cfg.TOML()
	require.NoError(t, err)
	for _, section := range []string{"[engine]", "[paths]", "[logging]", "[clean]"} {
		assert.Contains(t, string(data), section)
	}
}

func TestExpandPath(t *testing.T) {
	home := isolateHome(t)

	got, err := config.ExpandPath("~/mods")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "mods"), got)

	got, err = config.ExpandPath("")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = config.ExpandPath("relative/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}
