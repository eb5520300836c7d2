package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultEngineBinary = "bnp-engine"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultCleanMaxAge  = 24
	defaultConfigPath   = "~/.config/bnptool/config.toml"
	projectConfigName   = "bnptool.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Engine: Engine{
			Binary: defaultEngineBinary,
			Args:   []string{},
		},
		Paths: Paths{
			ScratchDir: defaultScratchDir(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Clean: Clean{
			MaxAgeHours: defaultCleanMaxAge,
		},
	}
}

func defaultScratchDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "bnptool", "scratch")
	}
	return "~/.cache/bnptool/scratch"
}
