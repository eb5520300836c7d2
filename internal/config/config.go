package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (BNPTOOL_ENGINE_BINARY, ...).
const EnvPrefix = "BNPTOOL"

// Engine describes how the external mod engine is launched.
type Engine struct {
	// Binary is the executable name or path.
	Binary string `toml:"binary" mapstructure:"binary"`
	// Args are prepended to every engine invocation (e.g. ["-m", "bcml_bridge"]).
	Args []string `toml:"args" mapstructure:"args"`
	// TimeoutSeconds bounds each engine call; 0 disables the limit.
	TimeoutSeconds int `toml:"timeout_seconds" mapstructure:"timeout_seconds"`
	// StoreDir overrides the engine's persistent install store. Empty keeps the
	// engine default.
	StoreDir string `toml:"store_dir" mapstructure:"store_dir"`
}

// Paths contains directories owned by bnptool.
type Paths struct {
	ScratchDir string `toml:"scratch_dir" mapstructure:"scratch_dir"`
	LogDir     string `toml:"log_dir" mapstructure:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" mapstructure:"format"`
	Level  string `toml:"level" mapstructure:"level"`
}

// Clean contains configuration for the scratch sweep.
type Clean struct {
	MaxAgeHours int `toml:"max_age_hours" mapstructure:"max_age_hours"`
}

// Config encapsulates all configuration values for bnptool.
type Config struct {
	Engine  Engine  `toml:"engine" mapstructure:"engine"`
	Paths   Paths   `toml:"paths" mapstructure:"paths"`
	Logging Logging `toml:"logging" mapstructure:"logging"`
	Clean   Clean   `toml:"clean" mapstructure:"clean"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Environment
// overrides are applied on top of the file. The returned config has all path
// fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	v := newViper()
	if exists {
		v.SetConfigFile(resolvedPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", false, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("engine.binary", d.Engine.Binary)
	v.SetDefault("engine.args", d.Engine.Args)
	v.SetDefault("engine.timeout_seconds", d.Engine.TimeoutSeconds)
	v.SetDefault("engine.store_dir", d.Engine.StoreDir)
	v.SetDefault("paths.scratch_dir", d.Paths.ScratchDir)
	v.SetDefault("paths.log_dir", d.Paths.LogDir)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("clean.max_age_hours", d.Clean.MaxAgeHours)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories bnptool writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ScratchDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EngineTimeout returns the per-call engine timeout (zero means none).
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSeconds) * time.Second
}

// CleanMaxAge returns the age after which abandoned temporary stores are swept.
func (c *Config) CleanMaxAge() time.Duration {
	return time.Duration(c.Clean.MaxAgeHours) * time.Hour
}

// TOML renders the configuration as a TOML document.
func (c *Config) TOML() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

const sampleHeader = `# bnptool configuration
#
# Every key can be overridden from the environment with the BNPTOOL_ prefix,
# e.g. BNPTOOL_ENGINE_BINARY=/opt/bcml/bin/bnp-engine.

`

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := Default()
	body, err := toml.Marshal(sample)
	if err != nil {
		return fmt.Errorf("encode sample config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, append([]byte(sampleHeader), body...), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
