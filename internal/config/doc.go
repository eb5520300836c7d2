// Package config loads, normalizes, and validates bnptool configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files through viper, and honours BNPTOOL_* environment
// overrides such as BNPTOOL_ENGINE_BINARY. The Config type centralizes every
// knob the CLI needs: where the engine lives, where temporary stores are
// created, and how logs are written.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
