package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bnptool/internal/config"
)

// StubEngineName is the executable name WithStubbedEngine installs on PATH.
const StubEngineName = "bnp-engine"

// StubFailEnv names the environment variable that makes the stub engine fail
// the matching action (create, install, export, version).
const StubFailEnv = "BNP_STUB_FAIL"

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithEngineBinary overrides the engine executable on the test config.
func WithEngineBinary(binary string, args ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.Binary = binary
		b.cfg.Engine.Args = args
	}
}

// WithStoreDir points the persistent engine store at a temp directory.
func WithStoreDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.StoreDir = filepath.Join(b.baseDir, "store")
	}
}

// WithStubbedEngine writes a shell-script engine to a private bin directory,
// prepends it to PATH and points the config at it. The stub appends every
// invocation's arguments to EngineLog, creates the file named by --output for
// create and export, drops an "installed" marker into --store-dir on install,
// and prints a version string. Setting StubFailEnv to an action makes that
// action exit 1 with an ERROR line.
func WithStubbedEngine() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := strings.ReplaceAll(stubEngineScript, "@LOG@", engineLogPath(b.baseDir))
		target := filepath.Join(binDir, StubEngineName)
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub %s: %v", StubEngineName, err)
		}

		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
		b.cfg.Engine.Binary = StubEngineName
		b.cfg.Engine.Args = nil
	}
}

const stubEngineScript = `#!/bin/sh
printf '%s\n' "$*" >> '@LOG@'
action=""
output=""
store=""
prev=""
for arg in "$@"; do
  case "$prev" in
    --output) output="$arg" ;;
    --store-dir) store="$arg" ;;
  esac
  if [ -z "$action" ]; then
    case "$arg" in
      create|install|export|version) action="$arg" ;;
    esac
  fi
  prev="$arg"
done
if [ -n "$BNP_STUB_FAIL" ] && [ "$BNP_STUB_FAIL" = "$action" ]; then
  echo "ERROR: stub $action failed" >&2
  exit 1
fi
case "$action" in
  version) echo "stub-engine 9.9.9" ;;
  create|export) echo "PROGRESS:100,done"; : > "$output" ;;
  install) if [ -n "$store" ]; then : > "$store/installed"; fi ;;
esac
exit 0
`

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ScratchDir)
}

func engineLogPath(base string) string {
	return filepath.Join(base, "engine-calls.log")
}

// EngineCalls returns one line of space-joined arguments per stub engine
// invocation, in call order.
func EngineCalls(t testing.TB, cfg *config.Config) []string {
	t.Helper()
	data, err := os.ReadFile(engineLogPath(BaseDir(cfg)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read engine log: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// WriteConfig renders cfg as TOML next to its temp directories and returns
// the file path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()
	data, err := cfg.TOML()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
