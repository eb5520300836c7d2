package preflight

import (
	"context"

	"bnptool/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Versioner is the slice of the engine client the engine check needs.
type Versioner interface {
	Binary() string
	Version(ctx context.Context) (string, error)
}

// RunAll executes all applicable preflight checks for the given config.
// The engine check is skipped when engine is nil.
func RunAll(ctx context.Context, cfg *config.Config, engine Versioner) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Scratch root (always checked)
	results = append(results, CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir))
	results = append(results, CheckFreeSpace("Scratch free space", cfg.Paths.ScratchDir, MinScratchFreeBytes))

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	if cfg.Engine.StoreDir != "" {
		results = append(results, CheckDirectoryAccess("Engine store", cfg.Engine.StoreDir))
	}

	if engine != nil {
		results = append(results, CheckEngine(ctx, engine, cfg.EngineTimeout()))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
