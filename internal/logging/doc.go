// Package logging assembles structured slog loggers and formatting helpers used
// across bnptool.
//
// It owns the console/JSON handler choice, centralizes level and output
// plumbing, and exposes context-aware helpers so workflow code can tag log
// lines with the workflow name and run ID. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
//
// Logs default to stderr so stdout stays reserved for command results.
package logging
