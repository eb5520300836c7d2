// Package engine drives the external mod engine through its command-line
// bridge.
//
// Every call spawns `<binary> <args...> <action> [flags]`, streams the child's
// output into the debug log, and converts failures into *ToolError values
// tagged with services.ErrExternalTool. Merger configuration and metadata
// travel as JSON flag values.
//
// TempStore provisions the isolated install areas used by conversion. Each
// store lives under the scratch root as a bnptool-<uuid> directory guarded by
// an advisory lock file, and is removed on Close or Release.
package engine
