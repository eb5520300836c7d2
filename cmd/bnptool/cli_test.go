package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnptool/internal/config"
	"bnptool/internal/engine"
	"bnptool/internal/services"
	"bnptool/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	cwd        string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv(testsupport.StubFailEnv, "")
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedEngine())
	configPath := testsupport.WriteConfig(t, cfg)

	cwd := filepath.Join(testsupport.BaseDir(cfg), "work")
	require.NoError(t, os.MkdirAll(cwd, 0o755))
	t.Chdir(cwd)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	return &cliTestEnv{cfg: cfg, configPath: configPath, cwd: cwd}
}

func (e *cliTestEnv) touch(t *testing.T, name string) {
	t.Helper()
	testsupport.WriteFile(t, filepath.Join(e.cwd, name), 32)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd, cc := newRootCommand()
	t.Cleanup(func() { assert.NoError(t, cc.close()) })
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func callsFor(t *testing.T, cfg *config.Config, action string) []string {
	t.Helper()
	var matched []string
	for _, line := range testsupport.EngineCalls(t, cfg) {
		if strings.HasPrefix(line, action+" ") || line == action {
			matched = append(matched, line)
		}
	}
	return matched
}

func TestHashPrintsIdentifier(t *testing.T) {
	for _, name := range []string{"hash", "h"} {
		out, _, err := runCLI(t, []string{name, "MyMod", "2.3.1"}, "")
		require.NoError(t, err)
		assert.Equal(t, "The mod hash ID is: TXlNb2Q9PTIuMy4x\n", out)
	}
}

func TestHashJSON(t *testing.T) {
	out, _, err := runCLI(t, []string{"hash", "--json", "MyMod", "2.3.1"}, "")
	require.NoError(t, err)

	var payload hashOutput
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, hashOutput{Name: "MyMod", Version: "2.3.1", ID: "TXlNb2Q9PTIuMy4x"}, payload)
}

func TestHashIgnoresBrokenConfig(t *testing.T) {
	broken := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("[engine\n"), 0o644))

	_, _, err := runCLI(t, []string{"hash", "A", "1"}, broken)
	require.NoError(t, err)
}

func TestDecode(t *testing.T) {
	out, _, err := runCLI(t, []string{"d", "TXlNb2Q9PTIuMy4x"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Name: MyMod\nVersion: 2.3.1\n", out)

	_, _, err = runCLI(t, []string{"decode", "bm8tc2VwYXJhdG9y"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, 2, exitCode(err))
}

func TestCreateDefaultsToUnnamedInWorkingDir(t *testing.T) {
	env := setupCLITestEnv(t)
	env.touch(t, "mymod.zip")

	out, _, err := runCLI(t, []string{"create", "mymod.zip"}, env.configPath)
	require.NoError(t, err)

	target := filepath.Join(env.cwd, "Unnamed.bnp")
	assert.FileExists(t, target)
	assert.Contains(t, out, target)

	calls := callsFor(t, env.cfg, engine.ActionCreate)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "--output "+target)
	assert.Contains(t, calls[0], `"name":"Unnamed"`)
	assert.Contains(t, calls[0], `"version":"1.0.0"`)
	assert.Contains(t, calls[0], `{"disable":[],"options":{}}`)
}

func TestCreateMapsFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	env.touch(t, "src/rules.txt")

	_, _, err := runCLI(t, []string{
		"c", "src",
		"-n", "Second Wind",
		"--version", "2.0",
		"--disablerstb",
		"--disableactorinfo",
		"--mergetextalllang",
	}, env.configPath)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(env.cwd, "Second Wind.bnp"))
	calls := callsFor(t, env.cfg, engine.ActionCreate)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], `"disable":["actors","rstb"]`)
	assert.Contains(t, calls[0], `"texts":{"all_langs":true}`)
	assert.Contains(t, calls[0], `"version":"2.0"`)
}

func TestCreateExplicitOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	env.touch(t, "mod.zip")
	target := filepath.Join(t.TempDir(), "custom.bnp")

	_, _, err := runCLI(t, []string{"create", "mod.zip", "-o", target}, env.configPath)
	require.NoError(t, err)
	assert.FileExists(t, target)
	assert.NoFileExists(t, filepath.Join(env.cwd, "Unnamed.bnp"))
}

func TestCreateEngineFailurePropagates(t *testing.T) {
	env := setupCLITestEnv(t)
	env.touch(t, "mod.zip")
	t.Setenv(testsupport.StubFailEnv, engine.ActionCreate)

	_, _, err := runCLI(t, []string{"create", "mod.zip"}, env.configPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrExternalTool)
	assert.Contains(t, err.Error(), "stub create failed")
	assert.Equal(t, 1, exitCode(err))
}

func TestConvertProducesStandaloneAndCleansUp(t *testing.T) {
	env := setupCLITestEnv(t)
	env.touch(t, "pack.bnp")

	out, _, err := runCLI(t, []string{"cv", "pack.bnp"}, env.configPath)
	require.NoError(t, err)

	target := filepath.Join(env.cwd, "StandAlone.zip")
	assert.FileExists(t, target)
	assert.Contains(t, out, target)

	installs := callsFor(t, env.cfg, engine.ActionInstall)
	require.Len(t, installs, 1)
	assert.Contains(t, installs[0], "--merge-now=true")
	assert.Contains(t, installs[0], `"texts":{"all_langs":true}`)
	assert.Contains(t, installs[0], "--store-dir "+filepath.Join(env.cfg.Paths.ScratchDir, engine.TempPrefix))
	require.Len(t, callsFor(t, env.cfg, engine.ActionExport), 1)

	entries, err := os.ReadDir(env.cfg.Paths.ScratchDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertExportFailureStillCleansUp(t *testing.T) {
	env := setupCLITestEnv(t)
	env.touch(t, "pack.bnp")
	t.Setenv(testsupport.StubFailEnv, engine.ActionExport)

	_, _, err := runCLI(t, []string{"convert", "pack.bnp"}, env.configPath)
	require.Error(t, err)

	var toolErr *engine.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, engine.ActionExport, toolErr.Action)

	entries, err := os.ReadDir(env.cfg.Paths.ScratchDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoFileExists(t, filepath.Join(env.cwd, "StandAlone.zip"))
}

func TestInstallRemergeFlag(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{args: []string{"install", "pack.bnp", "--remerge"}, want: "--merge-now=true"},
		{args: []string{"i", "pack.bnp", "-r"}, want: "--merge-now=true"},
		{args: []string{"install", "pack.bnp"}, want: "--merge-now=false"},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			env := setupCLITestEnv(t)
			env.touch(t, "pack.bnp")

			out, _, err := runCLI(t, tc.args, env.configPath)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, "Installing pack.bnp . . .\n"))

			installs := callsFor(t, env.cfg, engine.ActionInstall)
			require.Len(t, installs, 1)
			assert.Contains(t, installs[0], tc.want)
			assert.NotContains(t, installs[0], "--options")
		})
	}
}

func TestInstallMissingArchive(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"install", "ghost.bnp"}, env.configPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Empty(t, testsupport.EngineCalls(t, env.cfg))
}

func TestCleanDryRunAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	stale := filepath.Join(env.cfg.Paths.ScratchDir, engine.TempPrefix+"stale")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	out, _, err := runCLI(t, []string{"clean", "--list"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, engine.TempPrefix+"stale")

	out, _, err = runCLI(t, []string{"clean", "--dry-run"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Would remove "+stale)
	assert.DirExists(t, stale)

	out, _, err = runCLI(t, []string{"clean", "--max-age", "1h"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed "+stale)
	assert.NoDirExists(t, stale)

	out, _, err = runCLI(t, []string{"clean"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to clean")
}

func TestDoctorReportsEngine(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr, "doctor failures must carry an exit code")
	}
	assert.Contains(t, out, "Mod engine ("+testsupport.StubEngineName+")")
	assert.Contains(t, out, "stub-engine 9.9.9")
	assert.Contains(t, out, "Scratch directory")
}

func TestDoctorFailsWithoutEngine(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Engine.Binary = "clearly-not-present-engine"
	configPath := testsupport.WriteConfig(t, env.cfg)

	out, _, err := runCLI(t, []string{"doctor"}, configPath)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "clearly-not-present-engine")
}

func TestConfigInitShowValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote sample configuration")
	assert.FileExists(t, target)

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--overwrite")

	_, _, err = runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "")
	require.NoError(t, err)

	out, _, err = runCLI(t, []string{"config", "validate"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Config path: "+env.configPath)
	assert.Contains(t, out, "Configuration valid")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "[engine]")
	assert.Contains(t, out, testsupport.StubEngineName)
}

func TestConfigValidateReportsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644))

	_, _, err := runCLI(t, []string{"config", "validate"}, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 3, exitCode(&ExitError{Code: 3}))
	assert.Equal(t, 2, exitCode(services.Wrap(services.ErrValidation, "x", "y", "z", nil)))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}
