// Package workflow sequences engine calls for bnptool's commands.
//
// Create assembles metadata and merger configuration before packaging,
// deriving <cwd>/<name>.bnp when no output is given. Convert installs an
// archive into a temporary store and exports it as a standalone archive; the
// store is released on every exit path and its final state is reported on
// the result. Install hands an archive to the engine's persistent store.
// Hash is the pure dependency identifier encoder.
//
// Every workflow stamps its context with the workflow name and a run_id so
// engine output lines can be correlated in the logs.
package workflow
